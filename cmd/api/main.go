package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rafael/topic-research-back/internal/config"
	"github.com/rafael/topic-research-back/internal/fetcher"
	httpserver "github.com/rafael/topic-research-back/internal/http"
	"github.com/rafael/topic-research-back/internal/http/handlers"
	"github.com/rafael/topic-research-back/internal/pipeline"
	"github.com/rafael/topic-research-back/internal/queue"
	"github.com/rafael/topic-research-back/internal/repository"
	"github.com/rafael/topic-research-back/internal/summarizer"
)

func main() {
	logger := log.New(os.Stdout, "[research-back] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, users, storeCloser := setupStores(ctx, cfg, logger)
	defer storeCloser()

	producers, consumers, queueCloser := setupQueues(ctx, cfg, logger)
	defer queueCloser()

	orchestrator := pipeline.NewOrchestrator(producers, logger)
	api := handlers.NewAPI(store, users, orchestrator, logger)
	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	runnerDone := make(chan struct{})
	if cfg.WorkerEnabled {
		runner := buildRunner(cfg, store, users, producers, consumers, logger)
		go func() {
			runner.Run(ctx)
			close(runnerDone)
		}()
		logger.Printf("pipeline worker enabled and started")
	} else {
		close(runnerDone)
		logger.Printf("pipeline worker disabled by configuration")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}

	// Let in-flight stage handlers drain before exiting.
	stop()
	select {
	case <-runnerDone:
	case <-time.After(15 * time.Second):
		logger.Printf("pipeline worker drain timed out")
	}
}

func setupStores(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.ResearchStore, repository.UserStore, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory store")
		memory := repository.NewMemoryStore()
		return memory, memory, func() {}
	}

	pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres store, fallback to memory: %v", err)
		memory := repository.NewMemoryStore()
		return memory, memory, func() {}
	}
	logger.Printf("postgres store initialized")
	return pg, pg, pg.Close
}

func setupQueues(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (pipeline.Producers, pipeline.Consumers, func()) {
	producers := make(pipeline.Producers)
	consumers := make(pipeline.Consumers)

	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using local queues")
		for _, stage := range pipeline.Stages() {
			local := queue.NewLocalQueue(256, cfg.QueueMaxAttempts, logger)
			producers[stage] = local
			consumers[stage] = local
		}
		return producers, consumers, func() {}
	}

	client, err := queue.NewClient(ctx, queue.ClientConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Printf("failed to connect redis, fallback to local queues: %v", err)
		for _, stage := range pipeline.Stages() {
			local := queue.NewLocalQueue(256, cfg.QueueMaxAttempts, logger)
			producers[stage] = local
			consumers[stage] = local
		}
		return producers, consumers, func() {}
	}

	for _, stage := range pipeline.Stages() {
		streams, streamErr := queue.NewStreamsQueue(ctx, client, queue.StreamsConfig{
			Stream:      pipeline.StreamName(cfg.RedisStreamPrefix, stage),
			Group:       cfg.RedisGroup,
			Consumer:    cfg.RedisConsumer,
			MaxAttempts: cfg.QueueMaxAttempts,
		})
		if streamErr != nil {
			logger.Printf("failed to initialize stream for stage %s: %v", stage, streamErr)
			client.Close()
			os.Exit(1)
		}
		producers[stage] = streams
		consumers[stage] = streams
	}
	logger.Printf("redis stage queues initialized prefix=%s", cfg.RedisStreamPrefix)
	return producers, consumers, func() {
		_ = client.Close()
	}
}

func buildRunner(
	cfg config.Config,
	store repository.ResearchStore,
	users repository.UserStore,
	producers pipeline.Producers,
	consumers pipeline.Consumers,
	logger *log.Logger,
) *pipeline.Runner {
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
	runner.Register(pipeline.NewInputValidationStage(store, users, logger))
	runner.Register(pipeline.NewDataGatheringStage(store, articleSource, logger))
	runner.Register(pipeline.NewContentProcessingStage(store, throttled, logger))
	runner.Register(pipeline.NewPersistenceStage(store, logger))
	return runner
}
