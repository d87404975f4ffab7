package bank

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedItem is matched by every *MalformedItemError.
	ErrMalformedItem = errors.New("malformed item")

	// ErrDuplicateItem indicates an item id already exists in the bank.
	ErrDuplicateItem = errors.New("duplicate item id")

	// ErrInvalidDomain indicates a domain configuration failed validation.
	ErrInvalidDomain = errors.New("invalid domain config")
)

// MalformedItemError describes why an item was rejected at insertion time.
type MalformedItemError struct {
	ItemID ItemID
	Field  string
	Reason string
}

func (e *MalformedItemError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("malformed item: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed item %q: %s: %s", e.ItemID, e.Field, e.Reason)
}

func (e *MalformedItemError) Is(target error) bool { return target == ErrMalformedItem }

func malformed(id ItemID, field, reason string) error {
	return &MalformedItemError{ItemID: id, Field: field, Reason: reason}
}
