package domain

import "time"

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// Terminal reports whether no further pipeline work may happen for this status.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// User is the owner of research requests. Authentication is handled upstream;
// the pipeline only needs identity and display name.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// ResearchRequest tracks one submitted topic through the pipeline lifecycle.
type ResearchRequest struct {
	ID        string
	UserID    string
	Topic     string
	Status    RequestStatus
	CreatedAt time.Time
}

// WorkflowLogEntry is one append-only line of the per-request audit trail.
// Entries are never mutated; ordering is creation order.
type WorkflowLogEntry struct {
	ID        int64
	RequestID string
	Step      string
	Message   string
	CreatedAt time.Time
}

// Article is ephemeral pipeline payload: fetched content before processing,
// not persisted on its own.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// ArticleSummary is the per-article record persisted with a result.
type ArticleSummary struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// ResearchResult is the single terminal output of a completed request.
type ResearchResult struct {
	ID        int64
	RequestID string
	Summary   string
	Keywords  []string
	Articles  []ArticleSummary
	CreatedAt time.Time
}
