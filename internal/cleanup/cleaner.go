package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sessions is the part of the session manager the reaper needs.
type Sessions interface {
	Idle(ctx context.Context, ttl time.Duration) []string
	Evict(ctx context.Context, id string) error
}

// Cleaner periodically drops sessions nobody has touched for idleTTL.
// Abandoned sessions need no teardown beyond this.
type Cleaner struct {
	sessions Sessions
	idleTTL  time.Duration
	interval time.Duration
}

func NewCleaner(s Sessions, idleTTL, interval time.Duration) *Cleaner {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Cleaner{sessions: s, idleTTL: idleTTL, interval: interval}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("session cleaner started", "interval", c.interval, "idle_ttl", c.idleTTL)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session cleaner stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep evicts idle sessions once and reports how many were dropped.
func (c *Cleaner) Sweep(ctx context.Context) int {
	idle := c.sessions.Idle(ctx, c.idleTTL)
	if len(idle) == 0 {
		slog.Debug("no idle sessions found")
		return 0
	}

	evicted := 0
	for _, id := range idle {
		if err := c.sessions.Evict(ctx, id); err != nil {
			slog.Error("failed to evict idle session", "session_id", id, "error", err)
			continue
		}
		evicted++
	}
	slog.Info("idle sessions evicted", "count", evicted)
	return evicted
}
