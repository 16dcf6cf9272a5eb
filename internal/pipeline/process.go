package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/keywords"
	"github.com/rafael/topic-research-back/internal/repository"
	"github.com/rafael/topic-research-back/internal/summarizer"
)

const (
	topKeywordCount = 5

	noContentSummary = "No content available for summarization."
)

// ContentProcessingStage summarizes each article independently and derives
// keywords from the combined summaries. Per-article failures are absorbed
// with placeholder summaries; this stage never fails the request.
type ContentProcessingStage struct {
	store      repository.ResearchStore
	summarizer summarizer.Summarizer
	logger     *log.Logger
}

func NewContentProcessingStage(
	store repository.ResearchStore,
	textSummarizer summarizer.Summarizer,
	logger *log.Logger,
) *ContentProcessingStage {
	return &ContentProcessingStage{store: store, summarizer: textSummarizer, logger: logger}
}

func (s *ContentProcessingStage) Stage() string {
	return StageProcess
}

func (s *ContentProcessingStage) Handle(ctx context.Context, message domain.StageMessage) (json.RawMessage, error) {
	var job domain.ProcessJob
	if err := json.Unmarshal(message.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode process job: %w", err)
	}

	summaries := make([]string, 0, len(job.Articles))
	withSummaries := make([]domain.ArticleSummary, 0, len(job.Articles))
	processed := 0
	failed := 0

	for _, article := range job.Articles {
		if strings.TrimSpace(article.Content) == "" {
			summaries = append(summaries, noContentSummary)
			failed++
			continue
		}

		summary, err := s.summarizer.Summarize(ctx, article.Content)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf(
					"summarize failed request_id=%s url=%s err=%v",
					job.RequestID, article.URL, err,
				)
			}
			placeholder := "Failed to process article: " + article.Title
			summaries = append(summaries, placeholder)
			withSummaries = append(withSummaries, domain.ArticleSummary{
				Title:   article.Title,
				URL:     article.URL,
				Summary: placeholder,
			})
			failed++
			continue
		}

		summaries = append(summaries, summary)
		withSummaries = append(withSummaries, domain.ArticleSummary{
			Title:   article.Title,
			URL:     article.URL,
			Summary: summary,
		})
		processed++
	}

	topKeywords := keywords.Extract(strings.Join(summaries, " "), topKeywordCount)

	logLine := fmt.Sprintf(
		"Processed %d/%d articles successfully (%d failed)",
		processed, len(job.Articles), failed,
	)
	if err := s.store.AppendLog(ctx, job.RequestID, StepProcess, logLine); err != nil {
		return nil, fmt.Errorf("append processing log: %w", err)
	}

	return json.Marshal(domain.PersistJob{
		RequestID: job.RequestID,
		UserID:    job.UserID,
		Articles:  withSummaries,
		Summaries: summaries,
		Keywords:  topKeywords,
	})
}
