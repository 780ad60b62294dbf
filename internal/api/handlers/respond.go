package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fpl-squad/backend/internal/advisor"
	"github.com/wonny/fpl-squad/backend/internal/squad"
	"github.com/wonny/fpl-squad/backend/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, advisor.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, advisor.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, squad.ErrInfeasible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, squad.ErrExhausted):
		return http.StatusServiceUnavailable // 재시도 가능
	case errors.Is(err, store.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	case errors.Is(err, advisor.ErrNoRunLog):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
