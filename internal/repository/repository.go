package repository

import (
	"context"
	"errors"

	"github.com/rafael/topic-research-back/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// UserStore resolves request owners. The pipeline only reads users; creation
// exists for the API and for seeding.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUser(ctx context.Context, userID string) (*domain.User, error)
}

// ResearchStore is the narrow read/write contract the pipeline holds against
// the persistent store: request lifecycle, append-only workflow logs, and the
// guarded one-per-request result insert.
type ResearchStore interface {
	CreateRequest(ctx context.Context, request *domain.ResearchRequest) error
	GetRequest(ctx context.Context, requestID string) (*domain.ResearchRequest, error)
	ListRequestsByUser(ctx context.Context, userID string) ([]domain.ResearchRequest, error)
	SetStatus(ctx context.Context, requestID string, status domain.RequestStatus) error

	AppendLog(ctx context.Context, requestID, step, message string) error
	ListLogs(ctx context.Context, requestID string) ([]domain.WorkflowLogEntry, error)

	// SaveResult inserts the result only if none exists for the request yet and
	// reports whether a row was written. Redelivered persist jobs stay no-ops.
	SaveResult(ctx context.Context, result *domain.ResearchResult) (bool, error)
	GetResult(ctx context.Context, requestID string) (*domain.ResearchResult, error)
}
