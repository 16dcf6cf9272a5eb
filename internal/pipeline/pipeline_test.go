package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/queue"
	"github.com/rafael/topic-research-back/internal/repository"
)

func TestStageTransitions(t *testing.T) {
	want := []string{StageInputParse, StageDataGather, StageProcess, StagePersist}
	got := Stages()
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	for i := 0; i < len(want)-1; i++ {
		if next := Next(want[i]); next != want[i+1] {
			t.Fatalf("Next(%s): expected %s, got %s", want[i], want[i+1], next)
		}
	}
	if next := Next(StagePersist); next != "" {
		t.Fatalf("expected the terminal stage to have no successor, got %s", next)
	}
}

func TestStreamName(t *testing.T) {
	if got := StreamName("research", StageInputParse); got != "research:input_parse" {
		t.Fatalf("unexpected stream name %q", got)
	}
	if got := StreamName("", StageProcess); got != "research:process" {
		t.Fatalf("expected default prefix, got %q", got)
	}
}

func TestOrchestratorSubmitEnqueuesFirstStage(t *testing.T) {
	producer := &recordingProducer{}
	orchestrator := NewOrchestrator(Producers{StageInputParse: producer}, testLogger())

	if err := orchestrator.Submit(context.Background(), "req-1", "Climate change impacts", "user-1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(producer.messages) != 1 {
		t.Fatalf("expected one enqueued message, got %d", len(producer.messages))
	}
	message := producer.messages[0]
	if message.Stage != StageInputParse || message.RequestID != "req-1" {
		t.Fatalf("unexpected message: %+v", message)
	}

	var job domain.ValidateJob
	if err := json.Unmarshal(message.Payload, &job); err != nil {
		t.Fatalf("decode validate job: %v", err)
	}
	if job.Topic != "Climate change impacts" || job.UserID != "user-1" {
		t.Fatalf("unexpected validate job: %+v", job)
	}
}

func TestOrchestratorSubmitPropagatesEnqueueError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("redis down")}
	orchestrator := NewOrchestrator(Producers{StageInputParse: producer}, testLogger())

	err := orchestrator.Submit(context.Background(), "req-1", "Climate change impacts", "user-1")
	if err == nil {
		t.Fatalf("expected enqueue error to propagate")
	}
	if !strings.Contains(err.Error(), "redis down") {
		t.Fatalf("expected the queue error to be wrapped, got %v", err)
	}
}

func newPipelineHarness(t *testing.T, store *repository.MemoryStore, source *stubArticleSource) (*Orchestrator, *Runner) {
	t.Helper()

	producers := make(Producers, len(Stages()))
	consumers := make(Consumers, len(Stages()))
	for _, stage := range Stages() {
		q := queue.NewLocalQueue(16, 3, testLogger())
		producers[stage] = q
		consumers[stage] = q
	}

	runner := NewRunner(consumers, producers, store, 1, testLogger())
	runner.Register(NewInputValidationStage(store, store, testLogger()))
	runner.Register(NewDataGatheringStage(store, source, testLogger()))
	runner.Register(NewContentProcessingStage(store, &stubSummarizer{}, testLogger()))
	runner.Register(NewPersistenceStage(store, testLogger()))

	return NewOrchestrator(producers, testLogger()), runner
}

func awaitStatus(t *testing.T, store *repository.MemoryStore, requestID string, want domain.RequestStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := requestStatus(t, store, requestID); got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("request %s never reached status %s (last %s)", requestID, want, requestStatus(t, store, requestID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineCompletesEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	request, user := seedRequest(t, store, domain.StatusPending)
	orchestrator, runner := newPipelineHarness(t, store, &stubArticleSource{articles: testArticles(5)})

	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	if err := orchestrator.Submit(ctx, request.ID, request.Topic, user.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	awaitStatus(t, store, request.ID, domain.StatusCompleted)

	logs := requestLogs(t, store, request.ID)
	if len(logs) != 4 {
		t.Fatalf("expected 4 workflow logs, got %d: %+v", len(logs), logs)
	}
	wantSteps := []string{StepInputParse, StepDataGather, StepProcess, StepPersist}
	for i, entry := range logs {
		if entry.Step != wantSteps[i] {
			t.Fatalf("log %d: expected step %q, got %q", i, wantSteps[i], entry.Step)
		}
	}
	if !strings.Contains(logs[1].Message, "Fetched 5 articles") {
		t.Fatalf("unexpected gathering log: %q", logs[1].Message)
	}
	if !strings.Contains(logs[2].Message, "Processed 5/5 articles successfully (0 failed)") {
		t.Fatalf("unexpected processing log: %q", logs[2].Message)
	}

	result, err := store.GetResult(ctx, request.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if len(result.Articles) != 5 {
		t.Fatalf("expected 5 article summaries, got %d", len(result.Articles))
	}
	if len(result.Keywords) == 0 {
		t.Fatalf("expected keywords in the result")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not drain after cancel")
	}
}

func TestPipelineFailsOnInvalidTopic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	_, user := seedRequest(t, store, domain.StatusPending)
	request := &domain.ResearchRequest{
		ID:        "req-short",
		UserID:    user.ID,
		Topic:     "ab",
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateRequest(ctx, request); err != nil {
		t.Fatalf("create request: %v", err)
	}

	orchestrator, runner := newPipelineHarness(t, store, &stubArticleSource{articles: testArticles(5)})
	go runner.Run(ctx)

	if err := orchestrator.Submit(ctx, request.ID, request.Topic, user.ID); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	awaitStatus(t, store, request.ID, domain.StatusFailed)

	logs := requestLogs(t, store, request.ID)
	if len(logs) != 1 {
		t.Fatalf("expected one failure log, got %d: %+v", len(logs), logs)
	}
	if logs[0].Step != StepInputParse || !strings.Contains(logs[0].Message, "Validation failed:") {
		t.Fatalf("unexpected failure log: %+v", logs[0])
	}

	// No downstream stage ran and no result was written.
	if _, err := store.GetResult(ctx, request.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no result, got err=%v", err)
	}
}
