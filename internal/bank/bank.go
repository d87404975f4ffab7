package bank

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Store persists published items. Implementations: SQLStore, MongoStore.
type Store interface {
	LoadItems(ctx context.Context) ([]Item, error)
	PutItems(ctx context.Context, items []Item) error
}

// Bank is the append-only item catalog shared by every session. Readers take
// a Snapshot without locking; writers build a new snapshot and publish it
// atomically.
type Bank struct {
	mu      sync.Mutex // serializes writers
	cur     atomic.Pointer[Snapshot]
	domains map[string]Domain
	store   Store
}

type Option func(*Bank)

// WithStore persists every accepted batch before it becomes visible.
func WithStore(s Store) Option { return func(b *Bank) { b.store = s } }

// New creates an empty bank with the given domain configuration. Domains are
// validated here, once; they cannot change for the lifetime of the bank.
func New(domains []Domain, opts ...Option) (*Bank, error) {
	b := &Bank{domains: map[string]Domain{}}
	for _, d := range domains {
		if err := ValidateDomain(d); err != nil {
			return nil, err
		}
		if _, dup := b.domains[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate domain %q", ErrInvalidDomain, d.Name)
		}
		b.domains[d.Name] = d
	}
	for _, o := range opts {
		o(b)
	}
	b.cur.Store(newSnapshot(nil, b.domains, 0))
	return b, nil
}

// Snapshot returns the current consistent view of the bank.
func (b *Bank) Snapshot() *Snapshot { return b.cur.Load() }

// Add validates and appends items as one batch: either all become visible
// or none do.
func (b *Bank) Add(ctx context.Context, items ...Item) error {
	if len(items) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.cur.Load()
	if err := cur.check(items); err != nil {
		return err
	}
	if b.store != nil {
		if err := b.store.PutItems(ctx, items); err != nil {
			return fmt.Errorf("persist items: %w", err)
		}
	}
	next := make([]Item, 0, len(cur.items)+len(items))
	next = append(next, cur.items...)
	next = append(next, items...)
	b.cur.Store(newSnapshot(next, b.domains, cur.version+1))
	return nil
}

// Reload replaces the whole item set. It is the only way items leave the
// bank; it does not touch the store.
func (b *Bank) Reload(items []Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	empty := newSnapshot(nil, b.domains, 0)
	if err := empty.check(items); err != nil {
		return err
	}
	cur := b.cur.Load()
	b.cur.Store(newSnapshot(append([]Item(nil), items...), b.domains, cur.version+1))
	return nil
}

// LoadFrom fills the bank from its store.
func (b *Bank) LoadFrom(ctx context.Context) (int, error) {
	if b.store == nil {
		return 0, nil
	}
	items, err := b.store.LoadItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("load items: %w", err)
	}
	if err := b.Reload(items); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Snapshot is an immutable view of the bank at one version.
type Snapshot struct {
	version  uint64
	items    []Item
	byID     map[ItemID]int
	byDomain map[string][]int
	scales   map[string]Scale
	names    []string
	domains  map[string]Domain
}

func newSnapshot(items []Item, domains map[string]Domain, version uint64) *Snapshot {
	s := &Snapshot{
		version:  version,
		items:    items,
		byID:     make(map[ItemID]int, len(items)),
		byDomain: map[string][]int{},
		scales:   map[string]Scale{},
		domains:  domains,
	}
	for i, it := range items {
		s.byID[it.ID] = i
		if _, ok := s.byDomain[it.Domain]; !ok {
			s.names = append(s.names, it.Domain)
			s.scales[it.Domain] = it.Scale
		}
		s.byDomain[it.Domain] = append(s.byDomain[it.Domain], i)
	}
	sort.Strings(s.names)
	return s
}

// check validates a batch against this snapshot: well-formed items, unique
// ids, and one scale per domain.
func (s *Snapshot) check(items []Item) error {
	seen := map[ItemID]bool{}
	scales := map[string]Scale{}
	for _, it := range items {
		if err := ValidateItem(it); err != nil {
			return err
		}
		if _, ok := s.byID[it.ID]; ok || seen[it.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, it.ID)
		}
		seen[it.ID] = true

		want, ok := s.scales[it.Domain]
		if !ok {
			if d, configured := s.domains[it.Domain]; configured {
				want, ok = d.Scale, true
			} else {
				want, ok = scales[it.Domain]
			}
		}
		if ok && want != it.Scale {
			return malformed(it.ID, "scale", fmt.Sprintf("domain %q uses scale %s, got %s", it.Domain, want, it.Scale))
		}
		scales[it.Domain] = it.Scale
	}
	return nil
}

func (s *Snapshot) Version() uint64 { return s.version }
func (s *Snapshot) Len() int        { return len(s.items) }

// Item looks up an item by id.
func (s *Snapshot) Item(id ItemID) (Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// Items returns all items in insertion order.
func (s *Snapshot) Items() []Item {
	return append([]Item(nil), s.items...)
}

// DomainNames returns the domains that have at least one item, in lexical order.
func (s *Snapshot) DomainNames() []string {
	return append([]string(nil), s.names...)
}

// ItemsIn returns the items of one domain in insertion order.
func (s *Snapshot) ItemsIn(domain string) []Item {
	idx := s.byDomain[domain]
	out := make([]Item, len(idx))
	for i, j := range idx {
		out[i] = s.items[j]
	}
	return out
}

// Scale returns the scale shared by a domain's items.
func (s *Snapshot) Scale(domain string) (Scale, bool) {
	if sc, ok := s.scales[domain]; ok {
		return sc, true
	}
	d, ok := s.domains[domain]
	return d.Scale, ok
}

// Domain returns the configured scoring config, or the default bands for
// the domain's scale when none was configured.
func (s *Snapshot) Domain(name string) (Domain, bool) {
	if d, ok := s.domains[name]; ok {
		return d, true
	}
	sc, ok := s.scales[name]
	if !ok {
		return Domain{}, false
	}
	return DefaultDomain(name, sc), true
}

// Domains lists every configured or populated domain, in lexical order.
func (s *Snapshot) Domains() []Domain {
	names := append([]string(nil), s.names...)
	for n := range s.domains {
		if _, ok := s.scales[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	out := make([]Domain, 0, len(names))
	for _, n := range names {
		d, _ := s.Domain(n)
		out = append(out, d)
	}
	return out
}

// Stats reports the number of items per domain.
func (s *Snapshot) Stats() map[string]int {
	out := make(map[string]int, len(s.byDomain))
	for d, idx := range s.byDomain {
		out[d] = len(idx)
	}
	return out
}
