package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Queue enqueues pipeline tasks. It also satisfies the folder service's
// EventPublisher so folder mutations flow through the same broker.
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisOpt asynq.RedisClientOpt) *Queue {
	return &Queue{client: asynq.NewClient(redisOpt)}
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// EnqueueCreateMedia schedules materialization of an uploaded file.
func (q *Queue) EnqueueCreateMedia(ctx context.Context, msg CreateMediaMessage) error {
	return q.enqueue(ctx, TaskCreateMedia, msg, asynq.MaxRetry(5))
}

// EnqueueThumbnail schedules thumbnail generation for a persisted record.
func (q *Queue) EnqueueThumbnail(ctx context.Context, msg ThumbnailMessage) error {
	return q.enqueue(ctx, TaskThumbnail, msg, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute))
}

// PublishFolderChanged implements folders.EventPublisher.
func (q *Queue) PublishFolderChanged(ctx context.Context, scope string) error {
	return q.enqueue(ctx, TaskFolderChanged, FolderChangedMessage{WorkplaceID: scope}, asynq.MaxRetry(3))
}

func (q *Queue) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", taskType, err)
	}
	if _, err := q.client.EnqueueContext(ctx, asynq.NewTask(taskType, body), opts...); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}
