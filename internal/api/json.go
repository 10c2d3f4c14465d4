package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gabipgz/haras-project/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidIdentity):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConfiguration):
		writeJSON(w, http.StatusUnauthorized, errorBody("no active operator identity, login first"))
	case errors.Is(err, apperr.ErrSubscription):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("event history unavailable"))
	default:
		var upstream *apperr.Upstream
		if errors.As(err, &upstream) {
			slog.Error(op+" failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody("upstream failure"))
			return
		}
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
