package syncx_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-psy/internal/db"
	syncx "github.com/mind-engage/mindengage-psy/internal/sync"
)

func TestEventRepo_AppendAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer dbh.Close()
	repo := syncx.NewEventRepo(dbh)

	for _, typ := range []string{syncx.TypeSessionStarted, syncx.TypeResponseSubmitted} {
		ev, err := syncx.NewEvent(typ, "s-1", map[string]any{"item_id": "A1", "raw": 4})
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, ev))
	}
	other, err := syncx.NewEvent(syncx.TypeSessionStarted, "s-2", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, other))

	evs, err := repo.ListByKey(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, syncx.TypeSessionStarted, evs[0].Type)
	assert.Equal(t, syncx.TypeResponseSubmitted, evs[1].Type)
	assert.Less(t, evs[0].Seq, evs[1].Seq)
	assert.Equal(t, "local", evs[0].SiteID)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(evs[1].DataJSON), &data))
	assert.Equal(t, "A1", data["item_id"])
	assert.EqualValues(t, 4, data["raw"])

	none, err := repo.ListByKey(ctx, "s-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}
