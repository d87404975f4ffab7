package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
	"github.com/mind-engage/mindengage-psy/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized is
// logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, bank.ErrMalformedItem):
		return http.StatusBadRequest, "malformed_item"
	case errors.Is(err, bank.ErrDuplicateItem):
		return http.StatusConflict, "duplicate_item"
	case errors.Is(err, scoring.ErrInvalidResponse):
		return http.StatusBadRequest, "invalid_response"
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrDuplicateResponse):
		return http.StatusConflict, "duplicate_response"
	case errors.Is(err, session.ErrOutOfOrderResponse):
		return http.StatusConflict, "out_of_order_response"
	case errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, scoring.ErrEmptySession):
		return http.StatusUnprocessableEntity, "empty_session"
	default:
		return http.StatusInternalServerError, ""
	}
}
