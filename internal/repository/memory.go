package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
)

// MemoryStore keeps users, requests, logs and results in memory for local
// development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	requests map[string]*domain.ResearchRequest
	logs     []domain.WorkflowLogEntry
	results  map[string]*domain.ResearchResult

	nextLogID    int64
	nextResultID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*domain.User),
		requests: make(map[string]*domain.ResearchRequest),
		results:  make(map[string]*domain.ResearchResult),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *MemoryStore) FindUser(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) CreateRequest(_ context.Context, request *domain.ResearchRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *request
	s.requests[request.ID] = &clone
	return nil
}

func (s *MemoryStore) GetRequest(_ context.Context, requestID string) (*domain.ResearchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *request
	return &clone, nil
}

func (s *MemoryStore) ListRequestsByUser(_ context.Context, userID string) ([]domain.ResearchRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests := make([]domain.ResearchRequest, 0)
	for _, request := range s.requests {
		if request.UserID == userID {
			requests = append(requests, *request)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, requestID string, status domain.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	request.Status = status
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, requestID, step, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	s.logs = append(s.logs, domain.WorkflowLogEntry{
		ID:        s.nextLogID,
		RequestID: requestID,
		Step:      step,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) ListLogs(_ context.Context, requestID string) ([]domain.WorkflowLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.WorkflowLogEntry, 0)
	for _, entry := range s.logs {
		if entry.RequestID == requestID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, result *domain.ResearchResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.RequestID]; exists {
		return false, nil
	}

	s.nextResultID++
	clone := *result
	clone.ID = s.nextResultID
	clone.Keywords = append([]string(nil), result.Keywords...)
	clone.Articles = append([]domain.ArticleSummary(nil), result.Articles...)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.results[result.RequestID] = &clone
	result.ID = clone.ID
	return true, nil
}

func (s *MemoryStore) GetResult(_ context.Context, requestID string) (*domain.ResearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *result
	clone.Keywords = append([]string(nil), result.Keywords...)
	clone.Articles = append([]domain.ArticleSummary(nil), result.Articles...)
	return &clone, nil
}
