package session

import (
	"time"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateScored     State = "scored"
)

// DefaultTarget is the number of items administered when the caller does
// not ask for a specific length.
const DefaultTarget = 10

type Response struct {
	Seq        int         `json:"seq"`
	ItemID     bank.ItemID `json:"item_id"`
	Domain     string      `json:"domain"`
	Raw        int         `json:"raw"`
	Normalized int         `json:"normalized"`
	AnsweredAt time.Time   `json:"answered_at"`
}

// Ack confirms a committed response.
type Ack struct {
	SessionID  string      `json:"session_id"`
	ItemID     bank.ItemID `json:"item_id"`
	Normalized int         `json:"normalized"`
	Answered   int         `json:"answered"`
	Target     int         `json:"target"`
	State      State       `json:"state"`
}

type Progress struct {
	SessionID string             `json:"session_id"`
	State     State              `json:"state"`
	Answered  int                `json:"answered"`
	Target    int                `json:"target"`
	Offered   bank.ItemID        `json:"offered,omitempty"`
	Counts    map[string]int     `json:"counts"`
	Ability   map[string]float64 `json:"ability"`
}

type DomainResult struct {
	Score          float64 `json:"score"`
	Interpretation string  `json:"interpretation"`
	Responses      int     `json:"responses"`
	Ability        float64 `json:"ability"`
}

// Result is the scored report of a session. It is computed once and then
// served unchanged.
type Result struct {
	SessionID string                  `json:"session_id"`
	Overall   float64                 `json:"overall_score"`
	Domains   map[string]DomainResult `json:"per_domain"`
	Responses []Response              `json:"responses"`
	ScoredAt  time.Time               `json:"scored_at"`
}
