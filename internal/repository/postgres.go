package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafael/topic-research-back/internal/domain"
)

// PostgresStore implements UserStore and ResearchStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Name, user.Email, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateRequest(ctx context.Context, request *domain.ResearchRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO research_requests (id, user_id, topic, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, request.ID, request.UserID, request.Topic, string(request.Status), request.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert research request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, requestID string) (*domain.ResearchRequest, error) {
	var (
		request domain.ResearchRequest
		status  string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, topic, status, created_at
		FROM research_requests
		WHERE id = $1
	`, requestID).Scan(&request.ID, &request.UserID, &request.Topic, &status, &request.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query research request: %w", err)
	}
	request.Status = domain.RequestStatus(status)
	return &request, nil
}

func (s *PostgresStore) ListRequestsByUser(ctx context.Context, userID string) ([]domain.ResearchRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, topic, status, created_at
		FROM research_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list research requests: %w", err)
	}
	defer rows.Close()

	requests := make([]domain.ResearchRequest, 0)
	for rows.Next() {
		var (
			request domain.ResearchRequest
			status  string
		)
		if err := rows.Scan(&request.ID, &request.UserID, &request.Topic, &status, &request.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan research request: %w", err)
		}
		request.Status = domain.RequestStatus(status)
		requests = append(requests, request)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate research requests: %w", rows.Err())
	}
	return requests, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, requestID string, status domain.RequestStatus) error {
	command, err := s.pool.Exec(ctx, `
		UPDATE research_requests
		SET status = $2
		WHERE id = $1
	`, requestID, string(status))
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if command.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, requestID, step, message string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO workflow_logs (request_id, step, message, created_at)
		VALUES ($1, $2, $3, $4)
	`, requestID, step, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert workflow log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLogs(ctx context.Context, requestID string) ([]domain.WorkflowLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, request_id, step, message, created_at
		FROM workflow_logs
		WHERE request_id = $1
		ORDER BY id ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list workflow logs: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.WorkflowLogEntry, 0)
	for rows.Next() {
		var entry domain.WorkflowLogEntry
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.Step, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow log: %w", err)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate workflow logs: %w", rows.Err())
	}
	return entries, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *domain.ResearchResult) (bool, error) {
	keywords, err := json.Marshal(result.Keywords)
	if err != nil {
		return false, fmt.Errorf("marshal keywords: %w", err)
	}
	articles, err := json.Marshal(result.Articles)
	if err != nil {
		return false, fmt.Errorf("marshal articles: %w", err)
	}

	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// Insert-if-absent keeps redelivered persist jobs from writing a second row.
	command, err := s.pool.Exec(ctx, `
		INSERT INTO research_results (request_id, summary, keywords, articles, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM research_results WHERE request_id = $1
		)
	`, result.RequestID, result.Summary, keywords, articles, createdAt)
	if err != nil {
		return false, fmt.Errorf("insert research result: %w", err)
	}
	return command.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetResult(ctx context.Context, requestID string) (*domain.ResearchResult, error) {
	var (
		result   domain.ResearchResult
		keywords []byte
		articles []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, request_id, summary, keywords, articles, created_at
		FROM research_results
		WHERE request_id = $1
	`, requestID).Scan(&result.ID, &result.RequestID, &result.Summary, &keywords, &articles, &result.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query research result: %w", err)
	}

	if err := json.Unmarshal(keywords, &result.Keywords); err != nil {
		return nil, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal(articles, &result.Articles); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	return &result, nil
}
