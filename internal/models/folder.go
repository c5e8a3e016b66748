package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaFolder is a node in the per-workplace folder tree. The parent is an
// id reference and children are derived by query; no live bidirectional
// collection is maintained.
//
// Path always materializes the ancestor chain: "<scope>/" for a root,
// "<parent path><name>/" otherwise. The unique index on (workplace_id, path)
// backs the atomic find-or-create in the folder resolver.
type MediaFolder struct {
	ID          string  `json:"id" gorm:"type:uuid;primarykey"`
	WorkplaceID string  `json:"workplaceId" gorm:"type:uuid;not null;uniqueIndex:idx_media_folder_scope_path"`
	Name        string  `json:"name" gorm:"size:255;not null"`
	Path        string  `json:"path" gorm:"size:2048;not null;uniqueIndex:idx_media_folder_scope_path"`
	ParentID    *string `json:"parentId" gorm:"type:uuid;index"`
	ChildCount  int     `json:"childCount"`
	Private     *bool   `json:"private"`
	Favorite    *bool   `json:"favorite"`

	UseParentConfiguration *bool `json:"useParentConfiguration"`
	Configuration          JSON  `json:"configuration" gorm:"type:jsonb"`

	Media      []Media `json:"media,omitempty" gorm:"foreignKey:FolderID"`
	MediaCount int64   `json:"mediaCount" gorm:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (MediaFolder) TableName() string {
	return "platform_media_folder"
}

func (f *MediaFolder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// IsRoot reports whether the folder sits directly under the scope.
func (f *MediaFolder) IsRoot() bool {
	return f.ParentID == nil
}
