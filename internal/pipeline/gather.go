package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/fetcher"
	"github.com/rafael/topic-research-back/internal/repository"
)

// DataGatheringStage fetches candidate articles for the topic. The source
// applies its own bounding; an empty result set is terminal for the request.
type DataGatheringStage struct {
	store  repository.ResearchStore
	source fetcher.ArticleSource
	logger *log.Logger
}

func NewDataGatheringStage(
	store repository.ResearchStore,
	source fetcher.ArticleSource,
	logger *log.Logger,
) *DataGatheringStage {
	return &DataGatheringStage{store: store, source: source, logger: logger}
}

func (s *DataGatheringStage) Stage() string {
	return StageDataGather
}

func (s *DataGatheringStage) Handle(ctx context.Context, message domain.StageMessage) (json.RawMessage, error) {
	var job domain.GatherJob
	if err := json.Unmarshal(message.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode gather job: %w", err)
	}

	articles, err := s.source.FetchArticles(ctx, job.Topic)
	if err != nil {
		return nil, s.fail(ctx, job.RequestID, fmt.Errorf("article fetch failed: %w", err))
	}
	if len(articles) == 0 {
		return nil, s.fail(ctx, job.RequestID, fmt.Errorf("no articles found for the topic"))
	}

	logLine := fmt.Sprintf("Fetched %d articles", len(articles))
	if err := s.store.AppendLog(ctx, job.RequestID, StepDataGather, logLine); err != nil {
		return nil, fmt.Errorf("append gathering log: %w", err)
	}

	return json.Marshal(domain.ProcessJob{
		RequestID: job.RequestID,
		Topic:     job.Topic,
		UserID:    job.UserID,
		Articles:  articles,
	})
}

func (s *DataGatheringStage) fail(ctx context.Context, requestID string, cause error) error {
	if err := s.store.AppendLog(ctx, requestID, StepDataGather, "Gathering failed: "+cause.Error()); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	if err := s.store.SetStatus(ctx, requestID, domain.StatusFailed); err != nil {
		return fmt.Errorf("mark request failed: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("gathering failed request_id=%s reason=%q", requestID, cause.Error())
	}
	return cause
}
