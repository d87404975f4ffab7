package session

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-psy/internal/bank"
)

// Protocol errors: the caller used the turn API out of sequence. Session
// state is untouched whenever one is returned.
var (
	ErrDuplicateResponse  = errors.New("item already answered in this session")
	ErrOutOfOrderResponse = errors.New("response does not match the offered item")
	ErrInvalidState       = errors.New("operation not allowed in current session state")
	ErrSessionNotFound    = errors.New("session not found")
	ErrResultNotFound     = errors.New("result not found")
)

// StateError reports an operation attempted in the wrong lifecycle state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

func duplicate(id bank.ItemID) error {
	return fmt.Errorf("%w: %s", ErrDuplicateResponse, id)
}

func outOfOrder(got bank.ItemID, offered bank.ItemID) error {
	if offered == "" {
		return fmt.Errorf("%w: %s was never offered", ErrOutOfOrderResponse, got)
	}
	return fmt.Errorf("%w: got %s, offered %s", ErrOutOfOrderResponse, got, offered)
}
