package queue

import (
	"context"

	"github.com/rafael/topic-research-back/internal/domain"
)

// Producer publishes stage jobs to a named queue.
type Producer interface {
	Enqueue(ctx context.Context, message domain.StageMessage) error
}

// Consumer delivers stage jobs to a handler with at-least-once semantics.
// A handler error triggers the queue's retry policy; exhausted messages land
// in the dead-letter stream.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.StageMessage) error) error
}
