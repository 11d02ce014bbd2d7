package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"moneytracker/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps report errors to a status and a message safe to return.
// Infrastructure details stay in the logs.
func statusFor(err error) (int, string) {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound, core.ErrUserNotFound.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "report generation timed out"
	default:
		return http.StatusInternalServerError, "failed to generate report"
	}
}
