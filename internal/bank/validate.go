package bank

import (
	"fmt"
	"math"
	"strings"
)

// Item validates the record and converts it into a publishable Item.
// A missing valence defaults to normal; any other unknown value is rejected.
func (r Record) Item() (Item, error) {
	id := ItemID(strings.TrimSpace(string(r.ID)))
	if id == "" {
		return Item{}, malformed("", "id", "required")
	}
	if r.Difficulty == nil {
		return Item{}, malformed(id, "difficulty", "required")
	}
	if r.Scale == nil {
		return Item{}, malformed(id, "scale", "required")
	}
	v := Valence(strings.ToLower(strings.TrimSpace(r.Valence)))
	if v == "" {
		v = ValenceNormal
	}
	it := Item{
		ID:         id,
		Domain:     strings.TrimSpace(r.Domain),
		Text:       strings.TrimSpace(r.Text),
		Valence:    v,
		Difficulty: *r.Difficulty,
		Scale:      *r.Scale,
	}
	if err := ValidateItem(it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// ValidateItem checks the fields every published item must carry.
func ValidateItem(it Item) error {
	if it.ID == "" {
		return malformed(it.ID, "id", "required")
	}
	if it.Domain == "" {
		return malformed(it.ID, "domain", "required")
	}
	if it.Text == "" {
		return malformed(it.ID, "text", "required")
	}
	switch it.Valence {
	case ValenceNormal, ValenceReverse:
	default:
		return malformed(it.ID, "valence", fmt.Sprintf("must be %q or %q, got %q", ValenceNormal, ValenceReverse, it.Valence))
	}
	if math.IsNaN(it.Difficulty) || math.IsInf(it.Difficulty, 0) {
		return malformed(it.ID, "difficulty", "must be a finite number")
	}
	if !it.Scale.Valid() {
		return malformed(it.ID, "scale", fmt.Sprintf("min must be below max, got %s", it.Scale))
	}
	return nil
}

// ValidateDomain runs load-time consistency checks on a domain config:
// bands must be strictly ascending, labelled and lie inside the scale.
func ValidateDomain(d Domain) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDomain)
	}
	if !d.Scale.Valid() {
		return fmt.Errorf("%w: %s: scale min must be below max, got %s", ErrInvalidDomain, d.Name, d.Scale)
	}
	if strings.TrimSpace(d.TopLabel) == "" {
		return fmt.Errorf("%w: %s: top_label is required", ErrInvalidDomain, d.Name)
	}
	prev := math.Inf(-1)
	for i, b := range d.Bands {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%w: %s: threshold %d has no label", ErrInvalidDomain, d.Name, i)
		}
		if b.Below <= prev {
			return fmt.Errorf("%w: %s: thresholds must be strictly ascending", ErrInvalidDomain, d.Name)
		}
		if b.Below <= float64(d.Scale.Min) || b.Below > float64(d.Scale.Max) {
			return fmt.Errorf("%w: %s: threshold %v outside scale %s", ErrInvalidDomain, d.Name, b.Below, d.Scale)
		}
		prev = b.Below
	}
	return nil
}
