package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-psy/internal/session"
	"github.com/mind-engage/mindengage-psy/internal/storage"
)

func sampleResult(id string) *session.Result {
	return &session.Result{
		SessionID: id,
		Overall:   3.25,
		Domains: map[string]session.DomainResult{
			"A": {Score: 3.5, Interpretation: "high", Responses: 2, Ability: 3.4},
			"B": {Score: 3, Interpretation: "moderate", Responses: 1, Ability: 3},
		},
		Responses: []session.Response{
			{Seq: 1, ItemID: "A1", Domain: "A", Raw: 4, Normalized: 4},
		},
		ScoredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestResultStores(t *testing.T) {
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]session.ResultStore{
		"memory": session.NewMemoryResultStore(),
		"blob":   session.NewBlobResultStore(fs),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "s-1")
			assert.ErrorIs(t, err, session.ErrResultNotFound)

			want := sampleResult("s-1")
			require.NoError(t, store.Put(ctx, want))

			got, err := store.Get(ctx, "s-1")
			require.NoError(t, err)
			assert.Equal(t, want.Overall, got.Overall)
			assert.Equal(t, want.Domains, got.Domains)
			assert.Equal(t, want.Responses[0].ItemID, got.Responses[0].ItemID)
			assert.True(t, want.ScoredAt.Equal(got.ScoredAt))
		})
	}
}

func TestManager_PublishesResultsToBlobStore(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	store := session.NewBlobResultStore(fs)
	m := newManager(t, session.WithResultStore(store))

	id, err := m.Start(ctx, 1)
	require.NoError(t, err)
	answer(t, m, id, 2)
	_, err = m.Results(ctx, id)
	require.NoError(t, err)

	archived, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, archived.SessionID)
	assert.InDelta(t, 2.0, archived.Overall, 1e-9)
}
