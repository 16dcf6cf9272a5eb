package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/repository"
)

func TestValidationPassesAndHandsOffToGathering(t *testing.T) {
	store := repository.NewMemoryStore()
	request, user := seedRequest(t, store, domain.StatusPending)
	stage := NewInputValidationStage(store, store, testLogger())

	next, err := stage.Handle(context.Background(), stageMessage(t, StageInputParse, domain.ValidateJob{
		RequestID: request.ID,
		Topic:     request.Topic,
		UserID:    user.ID,
	}))
	if err != nil {
		t.Fatalf("expected validation to pass: %v", err)
	}
	if next == nil {
		t.Fatalf("expected a successor payload")
	}

	var job domain.GatherJob
	if err := json.Unmarshal(next, &job); err != nil {
		t.Fatalf("decode gather job: %v", err)
	}
	if job.RequestID != request.ID || job.Topic != request.Topic || job.UserID != user.ID {
		t.Fatalf("unexpected gather job: %+v", job)
	}

	if got := requestStatus(t, store, request.ID); got != domain.StatusProcessing {
		t.Fatalf("expected status processing, got %s", got)
	}

	logs := requestLogs(t, store, request.ID)
	if len(logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(logs))
	}
	if logs[0].Step != StepInputParse {
		t.Fatalf("expected step %q, got %q", StepInputParse, logs[0].Step)
	}
	if !strings.Contains(logs[0].Message, user.Name) {
		t.Fatalf("expected log to include the user's name, got %q", logs[0].Message)
	}
}

func TestValidationRejectsShortTopic(t *testing.T) {
	store := repository.NewMemoryStore()
	request, user := seedRequest(t, store, domain.StatusPending)
	stage := NewInputValidationStage(store, store, testLogger())

	next, err := stage.Handle(context.Background(), stageMessage(t, StageInputParse, domain.ValidateJob{
		RequestID: request.ID,
		Topic:     "  ab ",
		UserID:    user.ID,
	}))
	if err == nil {
		t.Fatalf("expected a short topic to fail validation")
	}
	if next != nil {
		t.Fatalf("expected no successor payload on failure")
	}

	if got := requestStatus(t, store, request.ID); got != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", got)
	}

	logs := requestLogs(t, store, request.ID)
	if len(logs) != 1 {
		t.Fatalf("expected one failure log, got %d", len(logs))
	}
	if !strings.Contains(logs[0].Message, "at least 3 characters") {
		t.Fatalf("expected log to reference the length constraint, got %q", logs[0].Message)
	}
}

func TestValidationRejectsOverlongTopic(t *testing.T) {
	store := repository.NewMemoryStore()
	request, user := seedRequest(t, store, domain.StatusPending)
	stage := NewInputValidationStage(store, store, testLogger())

	next, err := stage.Handle(context.Background(), stageMessage(t, StageInputParse, domain.ValidateJob{
		RequestID: request.ID,
		Topic:     strings.Repeat("x", 201),
		UserID:    user.ID,
	}))
	if err == nil {
		t.Fatalf("expected an overlong topic to fail validation")
	}
	if next != nil {
		t.Fatalf("expected no successor payload on failure")
	}

	logs := requestLogs(t, store, request.ID)
	if len(logs) != 1 || !strings.Contains(logs[0].Message, "max 200 chars") {
		t.Fatalf("expected log to reference the max length, got %+v", logs)
	}
}

func TestValidationRejectsUnknownUser(t *testing.T) {
	store := repository.NewMemoryStore()
	request, _ := seedRequest(t, store, domain.StatusPending)
	stage := NewInputValidationStage(store, store, testLogger())

	next, err := stage.Handle(context.Background(), stageMessage(t, StageInputParse, domain.ValidateJob{
		RequestID: request.ID,
		Topic:     request.Topic,
		UserID:    "ghost-user",
	}))
	if err == nil {
		t.Fatalf("expected an unknown user to fail validation")
	}
	if next != nil {
		t.Fatalf("expected no successor payload on failure")
	}

	if got := requestStatus(t, store, request.ID); got != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", got)
	}
}

func TestValidationTreatsDeletedUserAsFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	request, user := seedRequest(t, store, domain.StatusPending)
	if err := store.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	stage := NewInputValidationStage(store, store, testLogger())

	_, err := stage.Handle(context.Background(), stageMessage(t, StageInputParse, domain.ValidateJob{
		RequestID: request.ID,
		Topic:     request.Topic,
		UserID:    user.ID,
	}))
	if err == nil {
		t.Fatalf("expected a deleted user to fail validation")
	}
	if got := requestStatus(t, store, request.ID); got != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", got)
	}
}
