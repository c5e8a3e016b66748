// Package folders owns the per-workplace folder tree: resolution of upload
// targets, folder CRUD and the cached listings.
package folders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-media-platform/internal/faults"
	"go-media-platform/internal/models"
)

// DefaultFolderName is the scope-wide root every parentless upload lands
// under.
const DefaultFolderName = "General"

// Resolver finds or creates the folder an upload is destined for.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the folder for (scope, name), creating it if needed.
// With a parent id the folder is created directly under that parent;
// without one it is created under the scope's default folder, which is
// itself created on first use.
func (r *Resolver) Resolve(ctx context.Context, scope, name string, parentID *string) (*models.MediaFolder, error) {
	if parentID != nil {
		var parent models.MediaFolder
		err := r.db.WithContext(ctx).
			First(&parent, "id = ? AND workplace_id = ?", *parentID, scope).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &faults.NotFoundError{Kind: "media folder", ID: *parentID}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up parent folder: %w", err)
		}
		if name == "" {
			return &parent, nil
		}
		return r.findOrCreate(ctx, scope, name, &parent)
	}

	general, err := r.findOrCreate(ctx, scope, DefaultFolderName, nil)
	if err != nil {
		return nil, err
	}
	if name == "" || name == DefaultFolderName {
		return general, nil
	}
	return r.findOrCreate(ctx, scope, name, general)
}

// findOrCreate is an atomic insert-or-fetch-existing keyed on the folder
// path. Two concurrent resolutions of the same (scope, name) both attempt
// the insert; the loser's attempt hits the unique index, affects zero rows
// and falls through to fetching the winner's row.
func (r *Resolver) findOrCreate(ctx context.Context, scope, name string, parent *models.MediaFolder) (*models.MediaFolder, error) {
	path := scope + "/"
	var parentID *string
	if parent != nil {
		path = parent.Path + name + "/"
		parentID = &parent.ID
	}

	folder := &models.MediaFolder{
		ID:          uuid.NewString(),
		WorkplaceID: scope,
		Name:        name,
		Path:        path,
		ParentID:    parentID,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(folder)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, result.Error)
	}

	if result.RowsAffected == 0 {
		var existing models.MediaFolder
		err := r.db.WithContext(ctx).
			First(&existing, "workplace_id = ? AND path = ?", scope, path).Error
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing folder %q: %w", name, err)
		}
		return &existing, nil
	}

	if parent != nil {
		err := r.db.WithContext(ctx).Model(&models.MediaFolder{}).
			Where("id = ?", parent.ID).
			UpdateColumn("child_count", gorm.Expr("child_count + 1")).Error
		if err != nil {
			return nil, fmt.Errorf("failed to bump child count: %w", err)
		}
	}

	return folder, nil
}
