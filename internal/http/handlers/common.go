package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rafael/topic-research-back/internal/http/middleware"
	"github.com/rafael/topic-research-back/internal/pipeline"
	"github.com/rafael/topic-research-back/internal/repository"
)

var errInvalidPayload = errors.New("invalid payload")

// API holds the handler dependencies for the research endpoints.
type API struct {
	store        repository.ResearchStore
	users        repository.UserStore
	orchestrator *pipeline.Orchestrator
	logger       *log.Logger
}

func NewAPI(
	store repository.ResearchStore,
	users repository.UserStore,
	orchestrator *pipeline.Orchestrator,
	logger *log.Logger,
) *API {
	return &API{
		store:        store,
		users:        users,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	payload := errorPayload{RequestID: middleware.GetRequestID(r.Context())}
	payload.Error.Code = code
	payload.Error.Message = message
	writeJSON(w, statusCode, payload)
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}
