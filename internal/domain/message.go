package domain

import (
	"encoding/json"
	"time"
)

// StageMessage is the transport envelope delivered to stage queues.
// Payload is the stage-specific job body; Attempt counts redeliveries.
type StageMessage struct {
	RequestID  string          `json:"request_id"`
	Stage      string          `json:"stage"`
	Payload    json.RawMessage `json:"payload"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ValidateJob is consumed by the Input Validation stage.
type ValidateJob struct {
	RequestID string `json:"request_id"`
	Topic     string `json:"topic"`
	UserID    string `json:"user_id"`
}

// GatherJob is consumed by the Data Gathering stage.
type GatherJob struct {
	RequestID string `json:"request_id"`
	Topic     string `json:"topic"`
	UserID    string `json:"user_id"`
}

// ProcessJob is consumed by the Content Processing stage. Topic is carried for
// traceability but unused downstream.
type ProcessJob struct {
	RequestID string    `json:"request_id"`
	Topic     string    `json:"topic"`
	UserID    string    `json:"user_id"`
	Articles  []Article `json:"articles"`
}

// PersistJob is consumed by the terminal Persistence stage.
type PersistJob struct {
	RequestID string           `json:"request_id"`
	UserID    string           `json:"user_id"`
	Articles  []ArticleSummary `json:"articles"`
	Summaries []string         `json:"summaries"`
	Keywords  []string         `json:"keywords"`
}
