package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/formats"
)

// BankGuards are middlewares placed in front of the item routes. The stats
// route stays open: it reveals counts only.
type BankGuards struct {
	Read  []func(http.Handler) http.Handler // full items, including difficulty and valence
	Write []func(http.Handler) http.Handler
}

// MountBank registers item bank routes under r. Insertion is only mounted
// when writable is set.
func MountBank(r chi.Router, b *bank.Bank, writable bool, g BankGuards) {
	r.Get("/", BankStatsHandler(b))
	r.With(g.Read...).Get("/items", ListItemsHandler(b))
	if writable {
		r.With(g.Write...).Post("/items", AddItemsHandler(b))
	}
}

type bankStats struct {
	Version uint64         `json:"version"`
	Total   int            `json:"total"`
	Domains map[string]int `json:"domains"`
}

func BankStatsHandler(b *bank.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := b.Snapshot()
		writeJSON(w, http.StatusOK, bankStats{
			Version: snap.Version(),
			Total:   snap.Len(),
			Domains: snap.Stats(),
		})
	}
}

// ListItemsHandler returns items in the exchange shape. ?domain= filters.
func ListItemsHandler(b *bank.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := b.Snapshot()
		var items []bank.Item
		if d := r.URL.Query().Get("domain"); d != "" {
			items = snap.ItemsIn(d)
		} else {
			items = snap.Items()
		}
		writeJSON(w, http.StatusOK, formats.FromItems(items, nil))
	}
}

// AddItemsHandler publishes a batch of items. The body is a bank file in
// the format named by Content-Type (JSON by default). The batch is
// all-or-nothing.
func AddItemsHandler(b *bank.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec, ok := formats.ByContentType(r.Header.Get("Content-Type"))
		if !ok {
			http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
			return
		}
		bf, err := codec.Decode(http.MaxBytesReader(w, r.Body, 8<<20))
		if err != nil {
			http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(bf.Items) == 0 {
			http.Error(w, "no items", http.StatusBadRequest)
			return
		}
		items, err := bf.ItemList()
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := b.Add(r.Context(), items...); err != nil {
			writeError(w, r, err)
			return
		}
		snap := b.Snapshot()
		writeJSON(w, http.StatusCreated, map[string]any{
			"added":   len(items),
			"total":   snap.Len(),
			"version": snap.Version(),
		})
	}
}

func ListDomainsHandler(b *bank.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"domains": b.Snapshot().Domains()})
	}
}
