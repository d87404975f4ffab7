package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-psy/internal/auth"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/rbac"
	"github.com/mind-engage/mindengage-psy/internal/session"
	syncx "github.com/mind-engage/mindengage-psy/internal/sync"
)

// access builds per-route guards. With no token service every route is open.
type access struct{ svc *auth.Service }

func (a access) need(perm string) []func(http.Handler) http.Handler {
	if a.svc == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{auth.Middleware(a.svc), rbac.Require(perm)}
}

// mountAdminRoutes wires operator endpoints under /admin. The event trail
// is only mounted when a database is configured.
func mountAdminRoutes(r chi.Router, acc access, mgr *session.Manager, b *bank.Bank, events *syncx.EventRepo) {
	r.Route("/admin", func(ar chi.Router) {
		ar.With(acc.need(rbac.PermSessionsAdmin)...).Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]int{"live": mgr.Len()})
		})
		ar.With(acc.need(rbac.PermSessionsAdmin)...).Post("/sessions/{sessionID}/evict", func(w http.ResponseWriter, r *http.Request) {
			err := mgr.Evict(r.Context(), chi.URLParam(r, "sessionID"))
			if errors.Is(err, session.ErrSessionNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		ar.With(acc.need(rbac.PermBankReload)...).Post("/bank/reload", func(w http.ResponseWriter, r *http.Request) {
			n, err := b.LoadFrom(r.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"items": n, "version": b.Snapshot().Version()})
		})
		if events != nil {
			ar.With(acc.need(rbac.PermEventsRead)...).Get("/sessions/{sessionID}/events", func(w http.ResponseWriter, r *http.Request) {
				evs, err := events.ListByKey(r.Context(), chi.URLParam(r, "sessionID"))
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				if evs == nil {
					evs = []syncx.Event{}
				}
				writeJSON(w, evs)
			})
		}
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
