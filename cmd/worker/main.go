package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/service/pipeline"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	concurrency := flag.Int("concurrency", 5, "max documents processed in parallel")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	svc, cleanup, err := pipeline.GetService(context.Background(), cfg, log)
	if err != nil {
		log.Error("Failed to build pipeline service", logger.Error(err))
		os.Exit(1)
	}
	defer cleanup()

	workerCfg := &worker.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   *concurrency,
	}

	documentWorker, err := worker.NewDocumentWorker(workerCfg, svc, log)
	if err != nil {
		log.Error("Failed to create document worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	_ = documentWorker.Stop()
	log.Info("Worker stopped")
}
