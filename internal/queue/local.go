package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
)

// LocalQueue is an in-process stage queue used when Redis is not configured
// and in tests. It mirrors the streams queue's retry and dead-letter behavior.
type LocalQueue struct {
	ch          chan domain.StageMessage
	maxAttempts int
	logger      *log.Logger

	dlqMu sync.Mutex
	dlq   []domain.StageMessage
}

func NewLocalQueue(bufferSize, maxAttempts int, logger *log.Logger) *LocalQueue {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &LocalQueue{
		ch:          make(chan domain.StageMessage, bufferSize),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, message domain.StageMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- message:
		return nil
	}
}

func (q *LocalQueue) Consume(ctx context.Context, handler func(context.Context, domain.StageMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-q.ch:
			err := handler(ctx, message)
			if err == nil {
				continue
			}

			message.Attempt++
			if message.Attempt >= q.maxAttempts {
				q.dlqMu.Lock()
				q.dlq = append(q.dlq, message)
				q.dlqMu.Unlock()
				if q.logger != nil {
					q.logger.Printf(
						"local queue dead-lettered message stage=%s request_id=%s err=%v",
						message.Stage, message.RequestID, err,
					)
				}
				continue
			}

			// Linear backoff before redelivery.
			delay := time.Duration(message.Attempt) * 500 * time.Millisecond
			go func(retry domain.StageMessage) {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
					q.ch <- retry
				}
			}(message)
		}
	}
}

func (q *LocalQueue) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}
