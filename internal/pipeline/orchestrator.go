package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/rafael/topic-research-back/internal/queue"

	"github.com/rafael/topic-research-back/internal/domain"
)

// Producers maps stage names to their queue producers.
type Producers map[string]queue.Producer

// Orchestrator is the pipeline entry point. Submit enqueues the first stage
// job; it never touches persistent state, so an enqueue failure propagates to
// the caller, which owns the just-created request record.
type Orchestrator struct {
	producers Producers
	logger    *log.Logger
}

func NewOrchestrator(producers Producers, logger *log.Logger) *Orchestrator {
	return &Orchestrator{producers: producers, logger: logger}
}

func (o *Orchestrator) Submit(ctx context.Context, requestID, topic, userID string) error {
	first := Stages()[0]
	producer, ok := o.producers[first]
	if !ok {
		return fmt.Errorf("no producer for stage %s", first)
	}

	payload, err := json.Marshal(domain.ValidateJob{
		RequestID: requestID,
		Topic:     topic,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("marshal validate job: %w", err)
	}

	message := domain.StageMessage{
		RequestID:  requestID,
		Stage:      first,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := producer.Enqueue(ctx, message); err != nil {
		return fmt.Errorf("submit request %s: %w", requestID, err)
	}

	if o.logger != nil {
		o.logger.Printf("research submitted request_id=%s topic=%q", requestID, topic)
	}
	return nil
}
