package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/healthed/article-pipeline/internal/service/pipeline"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/queue"
)

// DocumentWorker consumes document processing tasks and runs them through
// the pipeline service.
type DocumentWorker struct {
	BaseWorker
	svc pipeline.Service
}

func NewDocumentWorker(cfg *Config, svc pipeline.Service, log logger.Logger) (*DocumentWorker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"default": 1},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &DocumentWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log,
		},
		svc: svc,
	}

	w.mux.HandleFunc(queue.TaskTypeDocumentProcess, w.handleDocumentProcess)
	return w, nil
}

func (w *DocumentWorker) handleDocumentProcess(ctx context.Context, t *asynq.Task) error {
	var task queue.DocumentTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal task",
			logger.String("payload", string(t.Payload())),
			logger.Error(err),
		)
		return fmt.Errorf("unmarshal task: %w", err)
	}
	if task.DocumentID == "" {
		return fmt.Errorf("invalid task: missing document id")
	}

	w.logger.Info("Processing document task",
		logger.String("documentId", task.DocumentID),
		logger.String("filename", task.Filename),
	)

	if err := w.svc.ProcessDocument(ctx, &task); err != nil {
		return fmt.Errorf("process document %s: %w", task.DocumentID, err)
	}
	return nil
}

func (w *DocumentWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		_ = w.Stop()
	}()

	return nil
}
