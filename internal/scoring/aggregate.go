package scoring

import (
	"fmt"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

// DomainScore is the mean normalized answer of a domain, on the items'
// original scale, with its qualitative label.
type DomainScore struct {
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
}

// ScoreDomain averages the normalized values of one domain.
func ScoreDomain(d bank.Domain, values []int) (DomainScore, error) {
	if len(values) == 0 {
		return DomainScore{}, fmt.Errorf("%w: domain %q", ErrEmptySession, d.Name)
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	mean := float64(sum) / float64(len(values))
	return DomainScore{Score: mean, Interpretation: Interpret(d, mean)}, nil
}

// Interpret returns the label of the first band whose bound lies above score,
// or the domain's top label.
func Interpret(d bank.Domain, score float64) string {
	for _, b := range d.Bands {
		if score < b.Below {
			return b.Label
		}
	}
	return d.TopLabel
}

// Overall is the unweighted mean of domain scores: every domain counts once
// regardless of how many items it contributed.
func Overall(scores []DomainScore) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptySession
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores)), nil
}
