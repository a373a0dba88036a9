package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/aretw0/gantry/internal/adapters/redis"
	"github.com/aretw0/gantry/pkg/domain"
)

func newStore(t *testing.T) *redisstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redisstore.NewFromClient(client)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	result := &domain.RunResult{
		RunID:    "run-1",
		Workflow: "test",
		Trigger:  domain.Trigger{Event: domain.EventPush, Ref: "main", SHA: "abc123"},
		Status:   domain.StatusPassed,
		Started:  time.Now().UTC().Truncate(time.Second),
		Outputs:  map[string]string{"changelog.body": "### Added"},
	}
	require.NoError(t, store.Save(ctx, result))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, result.Workflow, loaded.Workflow)
	assert.Equal(t, result.Status, loaded.Status)
	assert.Equal(t, result.Trigger, loaded.Trigger)
	assert.Equal(t, "### Added", loaded.Outputs["changelog.body"])
}

func TestLoadUnknownRun(t *testing.T) {
	store := newStore(t)

	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestListNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Save(ctx, &domain.RunResult{
			RunID:   id,
			Started: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestSaveOverwritesTerminalResult(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	started := time.Now()
	require.NoError(t, store.Save(ctx, &domain.RunResult{RunID: "run-1", Status: domain.StatusRunning, Started: started}))
	require.NoError(t, store.Save(ctx, &domain.RunResult{RunID: "run-1", Status: domain.StatusFailed, Started: started}))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, loaded.Status)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)
}
