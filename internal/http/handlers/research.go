package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rafael/topic-research-back/internal/domain"
	"github.com/rafael/topic-research-back/internal/repository"
)

type createResearchRequest struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`
}

type researchResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type logEntryResponse struct {
	ID        int64     `json:"id"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type resultResponse struct {
	Summary   string                  `json:"summary"`
	Keywords  []string                `json:"keywords"`
	Articles  []domain.ArticleSummary `json:"articles"`
	CreatedAt time.Time               `json:"created_at"`
}

// Research dispatches the /v1/research collection endpoint.
func (api *API) Research(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		api.createResearch(w, r)
	case http.MethodGet:
		api.listResearch(w, r)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// createResearch records a pending request and submits it to the pipeline.
// Topic semantics are validated by the Input Validation stage, not here; this
// handler only rejects requests it cannot even record.
func (api *API) createResearch(w http.ResponseWriter, r *http.Request) {
	var body createResearchRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}

	userID := strings.TrimSpace(body.UserID)
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if strings.TrimSpace(body.Topic) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "topic is required")
		return
	}

	request := &domain.ResearchRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     body.Topic,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := api.store.CreateRequest(r.Context(), request); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to create research request")
		return
	}

	if err := api.orchestrator.Submit(r.Context(), request.ID, request.Topic, request.UserID); err != nil {
		// The record exists but never entered the pipeline; fail it so it
		// cannot sit in pending forever.
		if api.logger != nil {
			api.logger.Printf("submit failed request_id=%s err=%v", request.ID, err)
		}
		_ = api.store.SetStatus(r.Context(), request.ID, domain.StatusFailed)
		writeError(w, r, http.StatusServiceUnavailable, "queue_unavailable", "failed to submit research request")
		return
	}

	writeJSON(w, http.StatusAccepted, researchResponse{
		ID:        request.ID,
		UserID:    request.UserID,
		Topic:     request.Topic,
		Status:    string(request.Status),
		CreatedAt: request.CreatedAt,
	})
}

func (api *API) listResearch(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "user_id query parameter is required")
		return
	}

	requests, err := api.store.ListRequestsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list research requests")
		return
	}

	items := make([]researchResponse, 0, len(requests))
	for _, request := range requests {
		items = append(items, researchResponse{
			ID:        request.ID,
			UserID:    request.UserID,
			Topic:     request.Topic,
			Status:    string(request.Status),
			CreatedAt: request.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ResearchByID serves /v1/research/{id}: the request with its ordered log
// trail and, once completed, its result.
func (api *API) ResearchByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	requestID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/research/"))
	if requestID == "" || strings.Contains(requestID, "/") {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "request id is required")
		return
	}

	request, err := api.store.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "research request not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load research request")
		return
	}

	logs, err := api.store.ListLogs(r.Context(), requestID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load workflow logs")
		return
	}

	logItems := make([]logEntryResponse, 0, len(logs))
	for _, entry := range logs {
		logItems = append(logItems, logEntryResponse{
			ID:        entry.ID,
			Step:      entry.Step,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}

	response := map[string]any{
		"request": researchResponse{
			ID:        request.ID,
			UserID:    request.UserID,
			Topic:     request.Topic,
			Status:    string(request.Status),
			CreatedAt: request.CreatedAt,
		},
		"logs": logItems,
	}

	result, err := api.store.GetResult(r.Context(), requestID)
	if err == nil {
		response["result"] = resultResponse{
			Summary:   result.Summary,
			Keywords:  result.Keywords,
			Articles:  result.Articles,
			CreatedAt: result.CreatedAt,
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load research result")
		return
	}

	writeJSON(w, http.StatusOK, response)
}
