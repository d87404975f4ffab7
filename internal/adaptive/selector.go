package adaptive

import (
	"errors"
	"math"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

// ErrExhausted signals that no unadministered item remains. It is a normal
// terminal condition, not a failure.
var ErrExhausted = errors.New("item bank exhausted")

// State is the read-only view of a session that selection needs.
type State interface {
	Administered(id bank.ItemID) bool
	Count(domain string) int
	// Ability returns the running estimate, or false before the first
	// response in that domain.
	Ability(domain string) (float64, bool)
}

// Policy decides which item to deliver next.
type Policy interface {
	Select(snap *bank.Snapshot, st State) (bank.Item, error)
}

// Balanced spreads responses evenly across domains and, inside the chosen
// domain, matches item difficulty to the ability estimate.
//
// Ties between domains go to the lexically smallest name; ties between items
// go to the smallest id by ItemID.Less.
type Balanced struct{}

func NewBalanced() Balanced { return Balanced{} }

func (Balanced) Select(snap *bank.Snapshot, st State) (bank.Item, error) {
	domain, remaining := pickDomain(snap, st)
	if domain == "" {
		return bank.Item{}, ErrExhausted
	}

	target, ok := st.Ability(domain)
	if !ok {
		sc, _ := snap.Scale(domain)
		target = sc.Midpoint()
	}

	best := remaining[0]
	bestDist := math.Abs(best.Difficulty - target)
	for _, it := range remaining[1:] {
		d := math.Abs(it.Difficulty - target)
		if d < bestDist || (d == bestDist && it.ID.Less(best.ID)) {
			best, bestDist = it, d
		}
	}
	return best, nil
}

// pickDomain returns the least-answered domain that still has items, along
// with its unadministered items. DomainNames is already lexically sorted, so
// strict comparison keeps the first name on ties.
func pickDomain(snap *bank.Snapshot, st State) (string, []bank.Item) {
	var (
		chosen    string
		chosenCnt int
		items     []bank.Item
	)
	for _, name := range snap.DomainNames() {
		var remaining []bank.Item
		for _, it := range snap.ItemsIn(name) {
			if !st.Administered(it.ID) {
				remaining = append(remaining, it)
			}
		}
		if len(remaining) == 0 {
			continue
		}
		cnt := st.Count(name)
		if chosen == "" || cnt < chosenCnt {
			chosen, chosenCnt, items = name, cnt, remaining
		}
	}
	return chosen, items
}
