package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"go-media-platform/internal/faults"
	"go-media-platform/internal/ingest"
	"go-media-platform/internal/metrics"
)

// HandleThumbnail adapts the generator to the queue. A media record that
// disappeared before the message arrived cannot heal on retry.
func (g *Generator) HandleThumbnail(ctx context.Context, task *asynq.Task) error {
	var msg ingest.ThumbnailMessage
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		return fmt.Errorf("malformed %s payload: %v: %w", ingest.TaskThumbnail, err, asynq.SkipRetry)
	}

	err := g.Generate(ctx, msg.MediaID)
	if faults.IsNotFound(err) {
		return fmt.Errorf("media %s is gone: %w", msg.MediaID, asynq.SkipRetry)
	}
	if err != nil {
		metrics.ThumbnailsFailed.Inc()
		return err
	}

	metrics.ThumbnailsGenerated.Inc()
	return nil
}
