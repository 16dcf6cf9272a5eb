package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/repository"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func stageMessage(t *testing.T, stage string, payload any) domain.StageMessage {
	t.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var requestID string
	switch job := payload.(type) {
	case domain.ValidateJob:
		requestID = job.RequestID
	case domain.GatherJob:
		requestID = job.RequestID
	case domain.ProcessJob:
		requestID = job.RequestID
	case domain.PersistJob:
		requestID = job.RequestID
	}
	return domain.StageMessage{
		RequestID:  requestID,
		Stage:      stage,
		Payload:    encoded,
		EnqueuedAt: time.Now().UTC(),
	}
}

func seedRequest(t *testing.T, store *repository.MemoryStore, status domain.RequestStatus) (*domain.ResearchRequest, *domain.User) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{
		ID:        "user-1",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	request := &domain.ResearchRequest{
		ID:        "req-1",
		UserID:    user.ID,
		Topic:     "Climate change impacts",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateRequest(ctx, request); err != nil {
		t.Fatalf("create request: %v", err)
	}
	return request, user
}

func requestStatus(t *testing.T, store *repository.MemoryStore, requestID string) domain.RequestStatus {
	t.Helper()
	request, err := store.GetRequest(context.Background(), requestID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	return request.Status
}

func requestLogs(t *testing.T, store *repository.MemoryStore, requestID string) []domain.WorkflowLogEntry {
	t.Helper()
	logs, err := store.ListLogs(context.Background(), requestID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	return logs
}

type stubArticleSource struct {
	articles []domain.Article
	err      error
}

func (s *stubArticleSource) FetchArticles(_ context.Context, _ string) ([]domain.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

type stubSummarizer struct {
	err   error
	calls int
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("condensed findings about %s", text), nil
}

type recordingProducer struct {
	messages []domain.StageMessage
	err      error
}

func (p *recordingProducer) Enqueue(_ context.Context, message domain.StageMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

func testArticles(n int) []domain.Article {
	articles := make([]domain.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, domain.Article{
			Title:   fmt.Sprintf("Article %d", i+1),
			URL:     fmt.Sprintf("https://news.example.com/a/%d", i+1),
			Content: fmt.Sprintf("rising sea levels threaten coastal cities report %d", i+1),
		})
	}
	return articles
}
