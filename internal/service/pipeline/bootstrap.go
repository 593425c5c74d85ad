package pipeline

import (
	"context"
	"fmt"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/agent/extract/pdf"
	"github.com/healthed/article-pipeline/internal/chunker"
	"github.com/healthed/article-pipeline/internal/dedup"
	"github.com/healthed/article-pipeline/internal/imagematch"
	"github.com/healthed/article-pipeline/internal/store"
	"github.com/healthed/article-pipeline/internal/summarize"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/queue"
	"github.com/healthed/article-pipeline/pkg/storage/minio"
)

// GetService builds a fully wired pipeline service from configuration. The
// returned cleanup closes the database and queue connections.
func GetService(ctx context.Context, cfg config.Config, log logger.Logger) (Service, func(), error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	q, err := queue.NewAsynqQueue(cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect queue: %w", err)
	}

	objectStore, err := minio.New(ctx, cfg.Minio, log)
	if err != nil {
		_ = db.Close()
		_ = q.Close()
		return nil, nil, fmt.Errorf("connect object storage: %w", err)
	}

	svc := NewService(
		pdf.NewExtractor(log.Named("extract")),
		chunker.New(cfg.Pipeline, chunker.DefaultLexicon(), log.Named("chunker")),
		summarize.NewOpenAIOracle(cfg.Summarizer, log.Named("summarize")),
		dedup.New(cfg.Pipeline, log.Named("dedup")),
		imagematch.NewMatcher(imagematch.NewUnsplashProvider(cfg.Unsplash, log.Named("images")), log.Named("images")),
		db,
		db,
		objectStore,
		q,
		cfg.Pipeline,
		log,
	)

	cleanup := func() {
		if err := q.Close(); err != nil {
			log.Warn("Failed to close queue", logger.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("Failed to close store", logger.Error(err))
		}
	}
	return svc, cleanup, nil
}
