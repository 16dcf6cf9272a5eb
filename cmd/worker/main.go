package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafael/topic-research-back/internal/config"
	"github.com/rafael/topic-research-back/internal/fetcher"
	"github.com/rafael/topic-research-back/internal/pipeline"
	"github.com/rafael/topic-research-back/internal/queue"
	"github.com/rafael/topic-research-back/internal/repository"
	"github.com/rafael/topic-research-back/internal/summarizer"
)

// Standalone pipeline worker: consumes all stage queues without serving the
// API. Requires Redis and Postgres; there is nothing useful a worker can do
// against in-process fallbacks.
func main() {
	logger := log.New(os.Stdout, "[research-worker] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required for the worker")
	}
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to initialize postgres store: %v", err)
	}
	defer store.Close()

	client, err := queue.NewClient(ctx, queue.ClientConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatalf("failed to connect redis: %v", err)
	}
	defer client.Close()

	producers := make(pipeline.Producers)
	consumers := make(pipeline.Consumers)
	for _, stage := range pipeline.Stages() {
		streams, streamErr := queue.NewStreamsQueue(ctx, client, queue.StreamsConfig{
			Stream:      pipeline.StreamName(cfg.RedisStreamPrefix, stage),
			Group:       cfg.RedisGroup,
			Consumer:    cfg.RedisConsumer,
			MaxAttempts: cfg.QueueMaxAttempts,
		})
		if streamErr != nil {
			logger.Fatalf("failed to initialize stream for stage %s: %v", stage, streamErr)
		}
		producers[stage] = streams
		consumers[stage] = streams
	}

	articleSource := fetcher.NewNewsAPIClient(fetcher.NewsAPIConfig{
		APIKey:  cfg.NewsAPIKey,
		BaseURL: cfg.NewsAPIBaseURL,
		Timeout: time.Duration(cfg.NewsTimeoutMS) * time.Millisecond,
	})
	gemini := summarizer.NewGeminiClient(summarizer.GeminiConfig{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		Timeout:    time.Duration(cfg.GeminiTimeoutMS) * time.Millisecond,
		MaxRetries: cfg.GeminiMaxRetries,
	})
	throttled := summarizer.NewThrottled(gemini, cfg.SummarizerRPS, cfg.SummarizerBurst)

	runner := pipeline.NewRunner(consumers, producers, store, cfg.StageWorkers, logger)
	runner.Register(pipeline.NewInputValidationStage(store, store, logger))
	runner.Register(pipeline.NewDataGatheringStage(store, articleSource, logger))
	runner.Register(pipeline.NewContentProcessingStage(store, throttled, logger))
	runner.Register(pipeline.NewPersistenceStage(store, logger))

	logger.Printf("worker started, consuming %d stage queues", len(pipeline.Stages()))
	runner.Run(ctx)
	logger.Printf("worker drained, exiting")
}
