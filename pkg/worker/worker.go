package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/healthed/article-pipeline/pkg/logger"
)

// Worker consumes queued tasks until its context is cancelled.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

// Config holds queue consumer settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

type BaseWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logger.Logger
}

func (w *BaseWorker) Stop() error {
	w.server.Stop()
	w.server.Shutdown()
	return nil
}
