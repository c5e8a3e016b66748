package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go-media-platform/internal/config"
	"go-media-platform/internal/models"
)

// Connect opens the relational store used for media metadata.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

// Migrate creates or updates the media tables, including the unique index
// on (workplace_id, path) that the folder resolver's atomic find-or-create
// relies on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MediaFolder{},
		&models.Media{},
		&models.MediaThumbnail{},
	)
}
