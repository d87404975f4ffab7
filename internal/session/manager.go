package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-psy/internal/adaptive"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
	syncx "github.com/mind-engage/mindengage-psy/internal/sync"
)

// EventSink receives an audit trail of committed session changes.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Manager owns every live session and sequences calls into the selector and
// the scorer. Sessions never share mutable state; the bank is the only
// shared resource and is read through snapshots.
type Manager struct {
	bank          *bank.Bank
	engine        *scoring.Engine
	policy        adaptive.Policy
	defaultTarget int
	results       ResultStore
	events        EventSink
	now           func() time.Time
	newID         func() string

	mu       sync.RWMutex
	sessions map[string]*Session
}

type Option func(*Manager)

func WithPolicy(p adaptive.Policy) Option    { return func(m *Manager) { m.policy = p } }
func WithResultStore(r ResultStore) Option   { return func(m *Manager) { m.results = r } }
func WithEventSink(s EventSink) Option       { return func(m *Manager) { m.events = s } }
func WithClock(now func() time.Time) Option  { return func(m *Manager) { m.now = now } }
func WithIDGenerator(f func() string) Option { return func(m *Manager) { m.newID = f } }

// WithDefaultTarget sets the length used when Start is called with target <= 0.
func WithDefaultTarget(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.defaultTarget = n
		}
	}
}

func NewManager(b *bank.Bank, eng *scoring.Engine, opts ...Option) *Manager {
	m := &Manager{
		bank:          b,
		engine:        eng,
		policy:        adaptive.NewBalanced(),
		defaultTarget: DefaultTarget,
		results:       NewMemoryResultStore(),
		now:           time.Now,
		newID:         uuid.NewString,
		sessions:      map[string]*Session{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start creates a session in NotStarted state and returns its id.
func (m *Manager) Start(ctx context.Context, target int) (string, error) {
	if target <= 0 {
		target = m.defaultTarget
	}
	id := m.newID()
	s := newSession(id, target, m.now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	slog.Info("session started", "session_id", id, "target", target)
	m.emit(ctx, syncx.TypeSessionStarted, id, map[string]any{"target": target})
	return id, nil
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// NextItem offers the next item. Nothing is committed until the matching
// Submit; calling again without submitting re-runs selection. Returns
// adaptive.ErrExhausted when the bank has nothing left for this session.
func (m *Manager) NextItem(ctx context.Context, id string) (bank.Item, error) {
	s, err := m.get(id)
	if err != nil {
		return bank.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = m.now()

	it, err := s.next(m.bank.Snapshot(), m.policy)
	if errors.Is(err, adaptive.ErrExhausted) {
		slog.Info("item bank exhausted for session", "session_id", id, "answered", len(s.order))
	}
	return it, err
}

// Submit records the answer to the most recently offered item.
func (m *Manager) Submit(ctx context.Context, id string, itemID bank.ItemID, raw int) (Ack, error) {
	s, err := m.get(id)
	if err != nil {
		return Ack{}, err
	}
	s.mu.Lock()
	now := m.now()
	resp, err := s.submit(itemID, raw, m.engine, now)
	if err != nil {
		s.mu.Unlock()
		return Ack{}, err
	}
	s.lastActive = now
	ack := Ack{
		SessionID:  id,
		ItemID:     resp.ItemID,
		Normalized: resp.Normalized,
		Answered:   len(s.order),
		Target:     s.target,
		State:      s.state,
	}
	ability := s.ability[resp.Domain]
	s.mu.Unlock()

	m.emit(ctx, syncx.TypeResponseSubmitted, id, map[string]any{
		"item_id":    resp.ItemID,
		"domain":     resp.Domain,
		"raw":        resp.Raw,
		"normalized": resp.Normalized,
		"ability":    ability,
	})
	if ack.State == StateCompleted {
		slog.Info("session completed", "session_id", id, "answered", ack.Answered)
		m.emit(ctx, syncx.TypeSessionCompleted, id, map[string]any{"answered": ack.Answered})
	}
	return ack, nil
}

// Finish ends a session before its target length, typically after the bank
// was exhausted.
func (m *Manager) Finish(ctx context.Context, id string) (Progress, error) {
	s, err := m.get(id)
	if err != nil {
		return Progress{}, err
	}
	s.mu.Lock()
	before := s.state
	if err := s.finish(); err != nil {
		s.mu.Unlock()
		return Progress{}, err
	}
	s.lastActive = m.now()
	p := s.progress()
	s.mu.Unlock()

	if before == StateInProgress {
		m.emit(ctx, syncx.TypeSessionCompleted, id, map[string]any{"answered": p.Answered, "early": true})
	}
	return p, nil
}

// Results scores a completed session. The first call computes and caches the
// report; later calls return the same report. Results of sessions that were
// already evicted are served from the result store.
func (m *Manager) Results(ctx context.Context, id string) (*Result, error) {
	s, err := m.get(id)
	if errors.Is(err, ErrSessionNotFound) {
		res, gerr := m.results.Get(ctx, id)
		if errors.Is(gerr, ErrResultNotFound) {
			return nil, ErrSessionNotFound
		}
		return res, gerr
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	now := m.now()
	res, fresh, err := s.score(m.bank.Snapshot(), now)
	if err == nil {
		s.lastActive = now
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if fresh {
		if perr := m.results.Put(ctx, res); perr != nil {
			slog.Warn("failed to publish session result", "session_id", id, "error", perr)
		}
		m.emit(ctx, syncx.TypeSessionScored, id, map[string]any{"overall": res.Overall, "domains": len(res.Domains)})
	}
	return res, nil
}

// Progress reports where a session stands.
func (m *Manager) Progress(_ context.Context, id string) (Progress, error) {
	s, err := m.get(id)
	if err != nil {
		return Progress{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress(), nil
}

// Idle lists sessions whose last activity is older than ttl.
func (m *Manager) Idle(_ context.Context, ttl time.Duration) []string {
	cutoff := m.now().Add(-ttl)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastActive.Before(cutoff)
		s.mu.Unlock()
		if idle {
			out = append(out, id)
		}
	}
	return out
}

// Evict drops a session from memory. A scored result stays available
// through the result store.
func (m *Manager) Evict(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) emit(ctx context.Context, typ, id string, data any) {
	if m.events == nil {
		return
	}
	ev, err := syncx.NewEvent(typ, id, data)
	if err == nil {
		err = m.events.Append(ctx, ev)
	}
	if err != nil {
		slog.Warn("failed to append session event", "type", typ, "session_id", id, "error", err)
	}
}
