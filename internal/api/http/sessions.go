package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-psy/internal/adaptive"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/session"
)

// Sessions is the turn API served over HTTP; *session.Manager implements it.
type Sessions interface {
	Start(ctx context.Context, target int) (string, error)
	NextItem(ctx context.Context, id string) (bank.Item, error)
	Submit(ctx context.Context, id string, itemID bank.ItemID, raw int) (session.Ack, error)
	Finish(ctx context.Context, id string) (session.Progress, error)
	Results(ctx context.Context, id string) (*session.Result, error)
	Progress(ctx context.Context, id string) (session.Progress, error)
}

var _ Sessions = (*session.Manager)(nil)

// MountSessions registers the session routes under r.
func MountSessions(r chi.Router, s Sessions) {
	r.Post("/", StartSessionHandler(s))
	r.Get("/{sessionID}", GetSessionHandler(s))
	r.Get("/{sessionID}/next", NextItemHandler(s))
	r.Post("/{sessionID}/responses", SubmitResponseHandler(s))
	r.Post("/{sessionID}/finish", FinishSessionHandler(s))
	r.Get("/{sessionID}/results", ResultsHandler(s))
}

func StartSessionHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Target int `json:"target_item_count"`
		}
		// An empty body asks for the default length.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Target < 0 {
			http.Error(w, "target_item_count must not be negative", http.StatusBadRequest)
			return
		}
		id, err := s.Start(r.Context(), req.Target)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
	}
}

func GetSessionHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Progress(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// nextItem is what the respondent sees. Difficulty and valence stay server side.
type nextItem struct {
	ID     bank.ItemID `json:"id"`
	Domain string      `json:"domain"`
	Text   string      `json:"text"`
	Scale  bank.Scale  `json:"scale"`
}

func NextItemHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := s.NextItem(r.Context(), chi.URLParam(r, "sessionID"))
		if errors.Is(err, adaptive.ErrExhausted) {
			writeJSON(w, http.StatusOK, map[string]bool{"exhausted": true})
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nextItem{
			ID:     it.ID,
			Domain: it.Domain,
			Text:   it.Text,
			Scale:  it.Scale,
		})
	}
}

func SubmitResponseHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ItemID bank.ItemID `json:"item_id"`
			Raw    *int        `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ItemID == "" || req.Raw == nil {
			http.Error(w, "item_id and raw required", http.StatusBadRequest)
			return
		}
		ack, err := s.Submit(r.Context(), chi.URLParam(r, "sessionID"), req.ItemID, *req.Raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ack)
	}
}

func FinishSessionHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Finish(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func ResultsHandler(s Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Results(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
