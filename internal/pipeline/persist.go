package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/repository"
)

// PersistenceStage writes the final result and completes the request. It is
// the terminal stage and enqueues no successor. A failed write marks the
// request failed so it cannot sit in processing forever.
type PersistenceStage struct {
	store  repository.ResearchStore
	logger *log.Logger
}

func NewPersistenceStage(store repository.ResearchStore, logger *log.Logger) *PersistenceStage {
	return &PersistenceStage{store: store, logger: logger}
}

func (s *PersistenceStage) Stage() string {
	return StagePersist
}

func (s *PersistenceStage) Handle(ctx context.Context, message domain.StageMessage) (json.RawMessage, error) {
	var job domain.PersistJob
	if err := json.Unmarshal(message.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode persist job: %w", err)
	}

	result := &domain.ResearchResult{
		RequestID: job.RequestID,
		Summary:   strings.Join(job.Summaries, "\n\n"),
		Keywords:  job.Keywords,
		Articles:  job.Articles,
	}

	inserted, err := s.store.SaveResult(ctx, result)
	if err != nil {
		return nil, s.fail(ctx, job.RequestID, fmt.Errorf("save result: %w", err))
	}

	if inserted {
		logLine := fmt.Sprintf(
			"Saved results to DB with %d articles and %d keywords",
			len(job.Articles), len(job.Keywords),
		)
		if err := s.store.AppendLog(ctx, job.RequestID, StepPersist, logLine); err != nil {
			return nil, fmt.Errorf("append persistence log: %w", err)
		}
	} else if s.logger != nil {
		s.logger.Printf("result already persisted request_id=%s, skipping insert", job.RequestID)
	}

	if err := s.store.SetStatus(ctx, job.RequestID, domain.StatusCompleted); err != nil {
		return nil, fmt.Errorf("mark request completed: %w", err)
	}
	return nil, nil
}

func (s *PersistenceStage) fail(ctx context.Context, requestID string, cause error) error {
	if err := s.store.AppendLog(ctx, requestID, StepPersist, "Persistence failed: "+cause.Error()); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	if err := s.store.SetStatus(ctx, requestID, domain.StatusFailed); err != nil {
		return fmt.Errorf("mark request failed: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("persistence failed request_id=%s reason=%q", requestID, cause.Error())
	}
	return cause
}
