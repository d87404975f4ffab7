package cleanup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-psy/internal/cleanup"
)

type fakeSessions struct {
	mu      sync.Mutex
	idle    []string
	evicted []string
	fail    map[string]bool
	gotTTL  time.Duration
}

func (f *fakeSessions) Idle(_ context.Context, ttl time.Duration) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotTTL = ttl
	return f.idle
}

func (f *fakeSessions) Evict(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[id] {
		return errors.New("boom")
	}
	f.evicted = append(f.evicted, id)
	return nil
}

func TestSweep(t *testing.T) {
	f := &fakeSessions{idle: []string{"a", "b", "c"}, fail: map[string]bool{"b": true}}
	c := cleanup.NewCleaner(f, time.Hour, time.Minute)

	n := c.Sweep(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "c"}, f.evicted)
	assert.Equal(t, time.Hour, f.gotTTL)
}

func TestSweep_NothingIdle(t *testing.T) {
	f := &fakeSessions{}
	assert.Zero(t, cleanup.NewCleaner(f, time.Hour, time.Minute).Sweep(context.Background()))
}

func TestNewCleaner_Defaults(t *testing.T) {
	f := &fakeSessions{}
	cleanup.NewCleaner(f, 0, 0).Sweep(context.Background())
	assert.Equal(t, 2*time.Hour, f.gotTTL)
}

func TestStart_SweepsOnTick(t *testing.T) {
	f := &fakeSessions{idle: []string{"a"}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup.NewCleaner(f, time.Hour, 10*time.Millisecond).Start(ctx)

	assert.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.evicted) > 0
	}, time.Second, 5*time.Millisecond)
}
