// Package ingest carries uploads from the API to the durable media record.
// The upload handler stores the blob and enqueues a creation message; the
// worker materializes the record, indexes it and schedules thumbnailing.
package ingest

// Task type names routed through the queue.
const (
	TaskCreateMedia   = "media:create"
	TaskThumbnail     = "media:thumbnail"
	TaskFolderChanged = "media:folder_changed"
)

// CreateMediaMessage is the ingestion payload. The media id is
// pre-generated by the upload handler so retries of the same message
// converge on one record.
type CreateMediaMessage struct {
	MediaID       string  `json:"mediaId"`
	MediaFolderID string  `json:"mediaFolderId"`
	WorkplaceID   string  `json:"workplaceId"`
	Path          string  `json:"path"`
	FileName      string  `json:"fileName"`
	MimeType      string  `json:"mimeType"`
	Size          int64   `json:"size"`
	Type          string  `json:"type"`
	UserID        *string `json:"userId,omitempty"`
	ContextKey    string  `json:"contextKey,omitempty"`
	ContextID     *string `json:"contextId,omitempty"`
	Title         string  `json:"title,omitempty"`
	Alt           string  `json:"alt,omitempty"`
}

// ThumbnailMessage asks the worker to generate a thumbnail for a persisted
// media record.
type ThumbnailMessage struct {
	MediaID string `json:"mediaId"`
}

// FolderChangedMessage announces a committed folder mutation in a scope.
type FolderChangedMessage struct {
	WorkplaceID string `json:"workplaceId"`
}
