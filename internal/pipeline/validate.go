package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/repository"
)

const (
	minTopicLength = 3
	maxTopicLength = 200
)

// InputValidationStage checks the submitted topic and owner before any
// external work happens. Validation failures are terminal for the request.
type InputValidationStage struct {
	store  repository.ResearchStore
	users  repository.UserStore
	logger *log.Logger
}

func NewInputValidationStage(
	store repository.ResearchStore,
	users repository.UserStore,
	logger *log.Logger,
) *InputValidationStage {
	return &InputValidationStage{store: store, users: users, logger: logger}
}

func (s *InputValidationStage) Stage() string {
	return StageInputParse
}

func (s *InputValidationStage) Handle(ctx context.Context, message domain.StageMessage) (json.RawMessage, error) {
	var job domain.ValidateJob
	if err := json.Unmarshal(message.Payload, &job); err != nil {
		return nil, fmt.Errorf("decode validate job: %w", err)
	}

	if err := validateTopic(job.Topic); err != nil {
		return nil, s.fail(ctx, job.RequestID, err)
	}

	user, err := s.users.FindUser(ctx, job.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Covers users deleted between submission and processing.
			return nil, s.fail(ctx, job.RequestID, fmt.Errorf("user with ID %s does not exist", job.UserID))
		}
		return nil, fmt.Errorf("look up user %s: %w", job.UserID, err)
	}

	logLine := fmt.Sprintf("Validated topic %q for user %s", job.Topic, user.Name)
	if err := s.store.AppendLog(ctx, job.RequestID, StepInputParse, logLine); err != nil {
		return nil, fmt.Errorf("append validation log: %w", err)
	}
	if err := s.store.SetStatus(ctx, job.RequestID, domain.StatusProcessing); err != nil {
		return nil, fmt.Errorf("mark request processing: %w", err)
	}

	return json.Marshal(domain.GatherJob{
		RequestID: job.RequestID,
		Topic:     job.Topic,
		UserID:    job.UserID,
	})
}

func (s *InputValidationStage) fail(ctx context.Context, requestID string, cause error) error {
	logLine := "Validation failed: " + cause.Error()
	if err := s.store.AppendLog(ctx, requestID, StepInputParse, logLine); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	if err := s.store.SetStatus(ctx, requestID, domain.StatusFailed); err != nil {
		return fmt.Errorf("mark request failed: %w", err)
	}
	if s.logger != nil {
		s.logger.Printf("validation failed request_id=%s reason=%q", requestID, cause.Error())
	}
	return cause
}

func validateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" || len(strings.TrimSpace(topic)) < minTopicLength {
		return fmt.Errorf("topic must be at least %d characters long", minTopicLength)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("topic too long (max %d chars)", maxTopicLength)
	}
	return nil
}
