package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/queue"
	"github.com/rafael/topic-research-back/internal/repository"
)

// Consumers maps stage names to their queue consumers.
type Consumers map[string]queue.Consumer

// Runner owns one consumer pool per stage. It routes each stage's successor
// payload to the next stage's queue using the pipeline transition table, and
// drops redelivered jobs for requests that already reached a terminal status.
type Runner struct {
	consumers Consumers
	producers Producers
	handlers  map[string]Handler
	store     repository.ResearchStore
	workers   int
	logger    *log.Logger
}

func NewRunner(
	consumers Consumers,
	producers Producers,
	store repository.ResearchStore,
	workers int,
	logger *log.Logger,
) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		consumers: consumers,
		producers: producers,
		handlers:  make(map[string]Handler),
		store:     store,
		workers:   workers,
		logger:    logger,
	}
}

func (r *Runner) Register(handler Handler) {
	r.handlers[handler.Stage()] = handler
}

// Run blocks until ctx is canceled and every in-flight handler has returned.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, stage := range Stages() {
		handler, ok := r.handlers[stage]
		if !ok {
			if r.logger != nil {
				r.logger.Printf("no handler registered for stage %s, skipping", stage)
			}
			continue
		}
		consumer, ok := r.consumers[stage]
		if !ok {
			if r.logger != nil {
				r.logger.Printf("no consumer for stage %s, skipping", stage)
			}
			continue
		}

		handle := r.dispatch(handler)
		for i := 0; i < r.workers; i++ {
			wg.Add(1)
			go func(stage string, consumer queue.Consumer) {
				defer wg.Done()
				r.consumeLoop(ctx, stage, consumer, handle)
			}(stage, consumer)
		}
	}
	wg.Wait()
}

func (r *Runner) consumeLoop(
	ctx context.Context,
	stage string,
	consumer queue.Consumer,
	handle func(context.Context, domain.StageMessage) error,
) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := consumer.Consume(ctx, handle)
		if err == nil || ctx.Err() != nil {
			return
		}
		if r.logger != nil {
			r.logger.Printf("consume loop error stage=%s err=%v", stage, err)
		}

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// dispatch wraps a stage handler with the terminal-status guard and the
// successor lookup.
func (r *Runner) dispatch(handler Handler) func(context.Context, domain.StageMessage) error {
	stage := handler.Stage()
	return func(ctx context.Context, message domain.StageMessage) error {
		request, err := r.store.GetRequest(ctx, message.RequestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				if r.logger != nil {
					r.logger.Printf("dropping job for unknown request_id=%s stage=%s", message.RequestID, stage)
				}
				return nil
			}
			return fmt.Errorf("load request %s: %w", message.RequestID, err)
		}
		if request.Status.Terminal() {
			if r.logger != nil {
				r.logger.Printf(
					"dropping job for terminal request_id=%s status=%s stage=%s",
					message.RequestID, request.Status, stage,
				)
			}
			return nil
		}

		next, err := handler.Handle(ctx, message)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		successor := Next(stage)
		if successor == "" {
			return nil
		}
		producer, ok := r.producers[successor]
		if !ok {
			return fmt.Errorf("no producer for stage %s", successor)
		}
		return producer.Enqueue(ctx, domain.StageMessage{
			RequestID:  message.RequestID,
			Stage:      successor,
			Payload:    next,
			EnqueuedAt: time.Now().UTC(),
		})
	}
}
