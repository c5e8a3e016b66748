package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaThumbnail is a derived preview image owned by exactly one Media.
// Rows are removed together with their parent record.
type MediaThumbnail struct {
	ID          string `json:"id" gorm:"type:uuid;primarykey"`
	WorkplaceID string `json:"workplaceId" gorm:"type:uuid;not null"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Path        string `json:"path" gorm:"size:2048;not null"`
	MediaID     string `json:"mediaId" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"createdAt"`
}

func (MediaThumbnail) TableName() string {
	return "platform_media_thumbnail"
}

func (t *MediaThumbnail) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
