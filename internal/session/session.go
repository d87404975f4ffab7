package session

import (
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-psy/internal/adaptive"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
)

// Session is the mutable state of one respondent. The manager holds mu for
// the whole of every turn; the unexported methods below assume it is held.
type Session struct {
	mu sync.Mutex

	id     string
	target int
	state  State

	order     []bank.ItemID
	responses map[bank.ItemID]Response
	counts    map[string]int
	ability   map[string]float64
	scales    map[string]bank.Scale

	offered *bank.Item
	result  *Result

	createdAt  time.Time
	lastActive time.Time
}

func newSession(id string, target int, now time.Time) *Session {
	return &Session{
		id:         id,
		target:     target,
		state:      StateNotStarted,
		responses:  map[bank.ItemID]Response{},
		counts:     map[string]int{},
		ability:    map[string]float64{},
		scales:     map[string]bank.Scale{},
		createdAt:  now,
		lastActive: now,
	}
}

// view exposes the session to the selector without handing out the struct.
type view struct{ s *Session }

func (v view) Administered(id bank.ItemID) bool {
	_, ok := v.s.responses[id]
	return ok
}

func (v view) Count(domain string) int { return v.s.counts[domain] }

func (v view) Ability(domain string) (float64, bool) {
	a, ok := v.s.ability[domain]
	return a, ok
}

func (s *Session) next(snap *bank.Snapshot, policy adaptive.Policy) (bank.Item, error) {
	switch s.state {
	case StateNotStarted, StateInProgress:
	default:
		return bank.Item{}, &StateError{Op: "next item", State: s.state}
	}
	s.state = StateInProgress

	it, err := policy.Select(snap, view{s})
	if err != nil {
		s.offered = nil
		return bank.Item{}, err
	}
	s.offered = &it
	return it, nil
}

// submit validates everything before touching state so that a failed call
// leaves the session exactly as it was.
func (s *Session) submit(itemID bank.ItemID, raw int, eng *scoring.Engine, now time.Time) (Response, error) {
	if s.state != StateInProgress {
		return Response{}, &StateError{Op: "submit response", State: s.state}
	}
	if _, done := s.responses[itemID]; done {
		return Response{}, duplicate(itemID)
	}
	if s.offered == nil || s.offered.ID != itemID {
		var offered bank.ItemID
		if s.offered != nil {
			offered = s.offered.ID
		}
		return Response{}, outOfOrder(itemID, offered)
	}
	it := *s.offered
	norm, err := scoring.Normalize(it, raw)
	if err != nil {
		return Response{}, err
	}

	cur, ok := s.ability[it.Domain]
	if !ok {
		cur = it.Scale.Midpoint()
	}
	resp := Response{
		Seq:        len(s.order) + 1,
		ItemID:     it.ID,
		Domain:     it.Domain,
		Raw:        raw,
		Normalized: norm,
		AnsweredAt: now,
	}

	s.ability[it.Domain] = eng.UpdateAbility(cur, norm, it.Scale)
	s.scales[it.Domain] = it.Scale
	s.counts[it.Domain]++
	s.order = append(s.order, it.ID)
	s.responses[it.ID] = resp
	s.offered = nil
	if len(s.order) >= s.target {
		s.state = StateCompleted
	}
	return resp, nil
}

func (s *Session) finish() error {
	switch s.state {
	case StateInProgress:
		s.state = StateCompleted
		s.offered = nil
		return nil
	case StateCompleted, StateScored:
		return nil
	default:
		return &StateError{Op: "finish", State: s.state}
	}
}

// score computes the report once; later calls return the cached copy.
func (s *Session) score(snap *bank.Snapshot, now time.Time) (*Result, bool, error) {
	if len(s.order) == 0 {
		return nil, false, scoring.ErrEmptySession
	}
	switch s.state {
	case StateScored:
		return s.result, false, nil
	case StateCompleted:
	default:
		return nil, false, &StateError{Op: "results", State: s.state}
	}

	byDomain := map[string][]int{}
	log := make([]Response, 0, len(s.order))
	for _, id := range s.order {
		r := s.responses[id]
		byDomain[r.Domain] = append(byDomain[r.Domain], r.Normalized)
		log = append(log, r)
	}

	names := make([]string, 0, len(byDomain))
	for d := range byDomain {
		names = append(names, d)
	}
	sort.Strings(names)

	res := &Result{
		SessionID: s.id,
		Domains:   make(map[string]DomainResult, len(names)),
		Responses: log,
		ScoredAt:  now,
	}
	scores := make([]scoring.DomainScore, 0, len(names))
	for _, name := range names {
		d, ok := snap.Domain(name)
		if !ok {
			d = bank.DefaultDomain(name, s.scales[name])
		}
		ds, err := scoring.ScoreDomain(d, byDomain[name])
		if err != nil {
			return nil, false, err
		}
		scores = append(scores, ds)
		res.Domains[name] = DomainResult{
			Score:          ds.Score,
			Interpretation: ds.Interpretation,
			Responses:      len(byDomain[name]),
			Ability:        s.ability[name],
		}
	}
	overall, err := scoring.Overall(scores)
	if err != nil {
		return nil, false, err
	}
	res.Overall = overall

	s.result = res
	s.state = StateScored
	return res, true, nil
}

func (s *Session) progress() Progress {
	p := Progress{
		SessionID: s.id,
		State:     s.state,
		Answered:  len(s.order),
		Target:    s.target,
		Counts:    make(map[string]int, len(s.counts)),
		Ability:   make(map[string]float64, len(s.ability)),
	}
	if s.offered != nil {
		p.Offered = s.offered.ID
	}
	for k, v := range s.counts {
		p.Counts[k] = v
	}
	for k, v := range s.ability {
		p.Ability[k] = v
	}
	return p
}
