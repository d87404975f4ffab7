package scoring

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

// DefaultAlpha is the share of the gap between the current ability estimate
// and a new normalized answer that the estimate moves by.
const DefaultAlpha = 0.3

var (
	// ErrInvalidResponse is matched by every *InvalidResponseError.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrEmptySession indicates scores were requested with no responses.
	ErrEmptySession = errors.New("no responses to score")
)

// InvalidResponseError reports a raw answer outside the item's scale.
type InvalidResponseError struct {
	ItemID bank.ItemID
	Raw    int
	Scale  bank.Scale
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response %d for item %q: outside scale %s", e.Raw, e.ItemID, e.Scale)
}

func (e *InvalidResponseError) Is(target error) bool { return target == ErrInvalidResponse }

// Engine options

type Option func(*config)

type config struct {
	Alpha float64
}

func WithAlpha(a float64) Option { return func(c *config) { c.Alpha = a } }

// Engine turns raw answers into normalized values, keeps ability estimates
// moving, and aggregates domain and overall scores.
type Engine struct {
	alpha float64
}

func NewEngine(opts ...Option) (*Engine, error) {
	cfg := &config{Alpha: DefaultAlpha}
	for _, o := range opts {
		o(cfg)
	}
	if !(cfg.Alpha > 0 && cfg.Alpha <= 1) {
		return nil, fmt.Errorf("alpha must be in (0, 1], got %v", cfg.Alpha)
	}
	return &Engine{alpha: cfg.Alpha}, nil
}

func (e *Engine) Alpha() float64 { return e.alpha }

// Normalize maps a raw answer onto the trait direction. Reverse-worded items
// are mirrored around the scale centre: (max+min) - raw.
func Normalize(it bank.Item, raw int) (int, error) {
	if !it.Scale.Contains(raw) {
		return 0, &InvalidResponseError{ItemID: it.ID, Raw: raw, Scale: it.Scale}
	}
	if it.Valence == bank.ValenceReverse {
		return it.Scale.Max + it.Scale.Min - raw, nil
	}
	return raw, nil
}

// UpdateAbility moves current toward the normalized answer by alpha and
// clamps the result to the scale.
func (e *Engine) UpdateAbility(current float64, normalized int, sc bank.Scale) float64 {
	next := current + e.alpha*(float64(normalized)-current)
	return sc.Clamp(next)
}
