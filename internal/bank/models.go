package bank

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Valence string

const (
	ValenceNormal  Valence = "normal"  // higher raw answer = higher trait level
	ValenceReverse Valence = "reverse" // higher raw answer = lower trait level
)

// ItemID identifies an item within the bank.
type ItemID string

// Less orders ids numerically when both are integers, so banks with
// generated numeric ids sort 9 before 10. Anything else uses string order.
func (id ItemID) Less(other ItemID) bool {
	a, aerr := strconv.ParseInt(string(id), 10, 64)
	b, berr := strconv.ParseInt(string(other), 10, 64)
	if aerr == nil && berr == nil {
		return a < b
	}
	return id < other
}

// UnmarshalJSON accepts both strings and integers; older banks use numeric ids.
func (id *ItemID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ItemID(v)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("item id must be a string or integer, got %s", s)
	}
	*id = ItemID(strconv.FormatInt(n, 10))
	return nil
}

// Scale is the inclusive range of raw answers an item accepts (e.g. 1..5).
type Scale struct {
	Min int `json:"min" yaml:"min" toml:"min" bson:"min"`
	Max int `json:"max" yaml:"max" toml:"max" bson:"max"`
}

func (s Scale) Valid() bool          { return s.Min < s.Max }
func (s Scale) Contains(raw int) bool { return raw >= s.Min && raw <= s.Max }
func (s Scale) Midpoint() float64    { return float64(s.Min+s.Max) / 2 }
func (s Scale) String() string       { return fmt.Sprintf("%d..%d", s.Min, s.Max) }

// Clamp bounds v to [Min, Max].
func (s Scale) Clamp(v float64) float64 {
	if v < float64(s.Min) {
		return float64(s.Min)
	}
	if v > float64(s.Max) {
		return float64(s.Max)
	}
	return v
}

// Item is a single questionnaire statement. Items are immutable once they
// have been published to a Bank.
type Item struct {
	ID         ItemID  `json:"id" yaml:"id" toml:"id" bson:"_id"`
	Domain     string  `json:"domain" yaml:"domain" toml:"domain" bson:"domain"`
	Text       string  `json:"text" yaml:"text" toml:"text" bson:"text"`
	Valence    Valence `json:"valence" yaml:"valence" toml:"valence" bson:"valence"`
	Difficulty float64 `json:"difficulty" yaml:"difficulty" toml:"difficulty" bson:"difficulty"`
	Scale      Scale   `json:"scale" yaml:"scale" toml:"scale" bson:"scale"`
}

// Record is the exchange shape received from item generation and bank files.
// Pointer fields distinguish "absent" from a zero value.
type Record struct {
	ID         ItemID   `json:"id" yaml:"id" toml:"id"`
	Domain     string   `json:"domain" yaml:"domain" toml:"domain"`
	Text       string   `json:"text" yaml:"text" toml:"text"`
	Valence    string   `json:"valence,omitempty" yaml:"valence,omitempty" toml:"valence,omitempty"`
	Difficulty *float64 `json:"difficulty" yaml:"difficulty" toml:"difficulty"`
	Scale      *Scale   `json:"scale" yaml:"scale" toml:"scale"`
}

// RecordOf converts a published item back into its exchange shape.
func RecordOf(it Item) Record {
	d := it.Difficulty
	sc := it.Scale
	return Record{
		ID:         it.ID,
		Domain:     it.Domain,
		Text:       it.Text,
		Valence:    string(it.Valence),
		Difficulty: &d,
		Scale:      &sc,
	}
}

// Band maps scores strictly below Below to Label.
type Band struct {
	Below float64 `json:"below" yaml:"below" toml:"below"`
	Label string  `json:"label" yaml:"label" toml:"label"`
}

// Domain is the static scoring configuration of a construct.
type Domain struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Scale    Scale  `json:"scale" yaml:"scale" toml:"scale"`
	Bands    []Band `json:"thresholds" yaml:"thresholds" toml:"thresholds"`
	TopLabel string `json:"top_label" yaml:"top_label" toml:"top_label"`
}

const (
	LabelLow      = "low"
	LabelModerate = "moderate"
	LabelHigh     = "high"
)

// DefaultDomain builds low/moderate/high bands at 37.5% and 62.5% of the
// scale span (2.5 and 3.5 on a 1..5 scale).
func DefaultDomain(name string, sc Scale) Domain {
	span := float64(sc.Max - sc.Min)
	return Domain{
		Name:  name,
		Scale: sc,
		Bands: []Band{
			{Below: float64(sc.Min) + 0.375*span, Label: LabelLow},
			{Below: float64(sc.Min) + 0.625*span, Label: LabelModerate},
		},
		TopLabel: LabelHigh,
	}
}
