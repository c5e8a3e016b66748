package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"go-media-platform/internal/metrics"
)

// CacheInvalidator drops the cached folder listings of a scope.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, scope string) error
}

// HandleCreateMedia adapts the materializer to the queue. Payloads that do
// not decode can never succeed and are dropped without retry.
func (m *Materializer) HandleCreateMedia(ctx context.Context, task *asynq.Task) error {
	var msg CreateMediaMessage
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return fmt.Errorf("malformed %s payload: %v: %w", TaskCreateMedia, err, asynq.SkipRetry)
	}

	if err := m.ProcessCreate(ctx, msg); err != nil {
		metrics.IngestFailed.Inc()
		return err
	}
	return nil
}

// NewFolderChangedHandler returns the handler that invalidates a scope's
// cached folder listings when its tree changes.
func NewFolderChangedHandler(cache CacheInvalidator, log zerolog.Logger) asynq.HandlerFunc {
	log = log.With().Str("component", "ingest").Logger()

	return func(ctx context.Context, task *asynq.Task) error {
		var msg FolderChangedMessage
		if err := json.Unmarshal(task.Payload(), &msg); err != nil {
			return fmt.Errorf("malformed %s payload: %v: %w", TaskFolderChanged, err, asynq.SkipRetry)
		}

		if err := cache.Invalidate(ctx, msg.WorkplaceID); err != nil {
			return fmt.Errorf("failed to invalidate folder cache for %s: %w", msg.WorkplaceID, err)
		}
		log.Debug().Str("scope", msg.WorkplaceID).Msg("folder cache invalidated")
		return nil
	}
}
