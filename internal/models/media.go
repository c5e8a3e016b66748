package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media kinds derived from the declared mime type.
const (
	KindImage    = "image"
	KindVideo    = "video"
	KindDocument = "document"
	KindUnknown  = "unknown"
)

// kindDocumentMimes is the explicit document mime list used by the kind
// classifier. Image and video are matched by prefix instead.
var kindDocumentMimes = []string{
	"application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/rtf", "application/vnd.oasis.opendocument.text",
	"application/vnd.oasis.opendocument.spreadsheet", "application/x-abiword",
	"application/vnd.ms-excel", "application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/epub+zip", "application/x-freearc", "text/plain",
	"text/csv", "application/json", "application/xml",
}

// KindForMime classifies a mime type into a coarse media kind. It is a pure
// function: the same mime type always yields the same kind.
func KindForMime(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	default:
		for _, m := range kindDocumentMimes {
			if m == mimeType {
				return KindDocument
			}
		}
		return KindUnknown
	}
}

// Media represents a stored media file and its durable metadata record.
// The record is created by the ingestion worker, not by the upload handler;
// its ID is pre-generated so the ingestion message can reference it.
type Media struct {
	ID            string  `json:"id" gorm:"type:uuid;primarykey"`
	WorkplaceID   string  `json:"workplaceId" gorm:"type:uuid;index;not null"`
	UserID        *string `json:"userId" gorm:"type:uuid"`
	ContextKey    string  `json:"contextKey" gorm:"size:255"`
	ContextID     *string `json:"contextId" gorm:"type:uuid"`
	MimeType      string  `json:"mimeType" gorm:"size:255"`
	FileExtension string  `json:"fileExtension" gorm:"size:50"`
	FileSize      int64   `json:"fileSize"`
	MetaData      JSON    `json:"metaData" gorm:"type:jsonb"`
	FileName      string  `json:"fileName"`
	Title         string  `json:"title"`
	Alt           string  `json:"alt"`
	MediaType     string  `json:"mediaType" gorm:"size:20"`
	Path          string  `json:"path" gorm:"size:2048;uniqueIndex"`
	Private       *bool   `json:"private"`
	Favorite      *bool   `json:"favorite"`

	FolderID   *string          `json:"folderId" gorm:"type:uuid;index"`
	Folder     *MediaFolder     `json:"folder,omitempty" gorm:"foreignKey:FolderID"`
	Thumbnails []MediaThumbnail `json:"thumbnails,omitempty" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Media) TableName() string {
	return "platform_media"
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MetaData == nil {
		m.MetaData = JSON{}
	}
	return nil
}

// JSON is a map column stored as JSONB.
type JSON map[string]interface{}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value")
	}

	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = JSON(result)
	return nil
}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
