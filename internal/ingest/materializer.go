package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go-media-platform/internal/metrics"
	"go-media-platform/internal/models"
)

// MediaIndexer is the slice of the search indexer the materializer needs.
type MediaIndexer interface {
	Index(ctx context.Context, media *models.Media) error
}

// ThumbnailEnqueuer schedules thumbnail generation after a record is
// persisted.
type ThumbnailEnqueuer interface {
	EnqueueThumbnail(ctx context.Context, msg ThumbnailMessage) error
}

// Materializer turns creation messages into durable media records. The
// queue delivers at least once, so every step is written to tolerate
// redelivery.
type Materializer struct {
	db      *gorm.DB
	indexer MediaIndexer
	thumbs  ThumbnailEnqueuer
	log     zerolog.Logger
}

func NewMaterializer(db *gorm.DB, indexer MediaIndexer, thumbs ThumbnailEnqueuer, log zerolog.Logger) *Materializer {
	return &Materializer{
		db:      db,
		indexer: indexer,
		thumbs:  thumbs,
		log:     log.With().Str("component", "ingest").Logger(),
	}
}

// ProcessCreate persists the media record described by the message. A
// record that already exists means the message was redelivered and the
// call is a no-op. A missing target folder cannot heal on retry and fails
// the message permanently.
func (m *Materializer) ProcessCreate(ctx context.Context, msg CreateMediaMessage) error {
	var existing int64
	err := m.db.WithContext(ctx).Model(&models.Media{}).
		Where("id = ?", msg.MediaID).Count(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to check for existing media: %w", err)
	}
	if existing > 0 {
		m.log.Debug().Str("media_id", msg.MediaID).Msg("media already materialized, skipping")
		return nil
	}

	var folder models.MediaFolder
	err = m.db.WithContext(ctx).
		First(&folder, "id = ? AND workplace_id = ?", msg.MediaFolderID, msg.WorkplaceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("target folder %s is gone: %w", msg.MediaFolderID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to look up target folder: %w", err)
	}

	// The kind column is always derived from the mime type here; the
	// message's type hint only survives in the metadata block.
	kind := models.KindForMime(msg.MimeType)

	media := &models.Media{
		ID:            msg.MediaID,
		WorkplaceID:   msg.WorkplaceID,
		UserID:        msg.UserID,
		ContextKey:    msg.ContextKey,
		ContextID:     msg.ContextID,
		MimeType:      msg.MimeType,
		FileExtension: strings.TrimPrefix(fileExtension(msg.FileName), "."),
		FileSize:      msg.Size,
		FileName:      msg.FileName,
		Title:         defaultString(msg.Title, msg.FileName),
		Alt:           defaultString(msg.Alt, msg.FileName),
		MediaType:     kind,
		Path:          msg.Path,
		FolderID:      &folder.ID,
		MetaData:      buildMetadata(msg),
	}

	if err := m.db.WithContext(ctx).Create(media).Error; err != nil {
		return fmt.Errorf("failed to persist media %s: %w", msg.MediaID, err)
	}
	metrics.IngestProcessed.Inc()

	// Indexing and thumbnailing run post-persist. Failures here must not
	// fail the message: a retry would see the existing record and skip,
	// losing nothing but this attempt.
	if err := m.indexer.Index(ctx, media); err != nil {
		metrics.IndexFailures.Inc()
		m.log.Error().Err(err).Str("media_id", media.ID).Msg("failed to index media")
	} else {
		metrics.IndexOps.Inc()
	}

	if media.MediaType == models.KindImage || media.MediaType == models.KindVideo {
		err := m.thumbs.EnqueueThumbnail(ctx, ThumbnailMessage{MediaID: media.ID})
		if err != nil {
			m.log.Error().Err(err).Str("media_id", media.ID).Msg("failed to enqueue thumbnail")
		}
	}

	m.log.Info().
		Str("media_id", media.ID).
		Str("path", media.Path).
		Str("type", media.MediaType).
		Msg("media materialized")
	return nil
}

// buildMetadata assembles the default metadata document stored alongside
// the record. Keys are camelCased so API consumers see one convention.
func buildMetadata(msg CreateMediaMessage) models.JSON {
	meta := map[string]interface{}{
		"name":        baseName(msg.FileName),
		"title":       defaultString(msg.Title, msg.FileName),
		"alt":         defaultString(msg.Alt, msg.FileName),
		"type":        msg.Type,
		"mime-type":   msg.MimeType,
		"size":        msg.Size,
		"uploaded-at": time.Now().UTC().Format(time.RFC3339),
	}

	out := models.JSON{}
	for k, v := range meta {
		out[camelizeKey(k)] = v
	}
	return out
}

// camelizeKey normalizes a metadata key to camelCase: lowered, with dashes
// and spaces treated as word breaks ("mime-type" becomes "mimeType").
func camelizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func baseName(fileName string) string {
	return strings.TrimSuffix(fileName, fileExtension(fileName))
}

func fileExtension(fileName string) string {
	if idx := strings.LastIndex(fileName, "."); idx > 0 {
		return fileName[idx:]
	}
	return ""
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
