package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/healthed/article-pipeline/config"
)

// Task types handled by the worker.
const (
	TaskTypeDocumentProcess = "document:process"
)

// DocumentTask is the payload enqueued when a document is uploaded.
type DocumentTask struct {
	DocumentID string    `json:"documentId"`
	StorageKey string    `json:"storageKey"`
	Filename   string    `json:"filename"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// TaskStatus is the progress snapshot kept in redis while a document
// moves through the pipeline.
type TaskStatus struct {
	DocumentID string    `json:"documentId"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Queue enqueues document processing work and tracks its status.
type Queue interface {
	Enqueue(ctx context.Context, task *DocumentTask) error
	GetStatus(ctx context.Context, documentID string) (*TaskStatus, error)
	SaveStatus(ctx context.Context, status *TaskStatus) error
	Cancel(ctx context.Context, documentID string) error
	Close() error
}

// AsynqQueue implements Queue on asynq with redis status snapshots.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
}

const (
	statusKeyPrefix = "document_status:"
	statusTTL       = 24 * time.Hour
	taskTimeout     = 30 * time.Minute
	maxRetry        = 3
)

// NewAsynqQueue creates a queue client backed by the configured redis.
func NewAsynqQueue(cfg config.RedisConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
	}, nil
}

func (q *AsynqQueue) Enqueue(ctx context.Context, task *DocumentTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(taskTimeout),
		asynq.TaskID(task.DocumentID),
		asynq.Queue("default"),
	}

	t := asynq.NewTask(TaskTypeDocumentProcess, payload, opts...)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	return q.SaveStatus(ctx, &TaskStatus{
		DocumentID: task.DocumentID,
		Status:     "pending",
	})
}

func (q *AsynqQueue) GetStatus(ctx context.Context, documentID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKeyPrefix+documentID).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get status from redis: %w", err)
	}
	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("unmarshal status: %w", err)
		}
		return &status, nil
	}

	// No snapshot yet, fall back to the queue itself.
	info, err := q.inspector.GetTaskInfo("default", documentID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	return convertTaskInfo(info), nil
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, statusKeyPrefix+status.DocumentID, data, statusTTL).Err(); err != nil {
		return fmt.Errorf("save status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Cancel(ctx context.Context, documentID string) error {
	if err := q.inspector.DeleteTask("default", documentID); err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	return q.redis.Del(ctx, statusKeyPrefix+documentID).Err()
}

func (q *AsynqQueue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	return q.redis.Close()
}

func convertTaskInfo(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		DocumentID: info.ID,
	}

	switch info.State {
	case asynq.TaskStatePending:
		status.Status = "pending"
	case asynq.TaskStateActive:
		status.Status = "running"
		status.Progress = 0.5
	case asynq.TaskStateCompleted:
		status.Status = "completed"
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateRetry:
		status.Status = "failed"
		status.Error = info.LastErr
	default:
		status.Status = "pending"
	}

	return status
}
