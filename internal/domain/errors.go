package domain

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// ErrAuthMissing means no user is signed in; fetches abort silently.
	ErrAuthMissing = errors.ConstError("no authenticated user")

	// ErrNoRestaurantAssociation means the user's profile is not linked to a restaurant.
	ErrNoRestaurantAssociation = errors.ConstError("profile has no restaurant association")

	ErrNotFound                = errors.ConstError("not found")
	ErrInvalidStatusTransition = errors.ConstError("invalid status transition")
	ErrCapabilityDisabled      = errors.ConstError("capability disabled for restaurant")
	ErrValidation              = errors.ConstError("validation failed")
	ErrSessionClosed           = errors.ConstError("session is closed")
)

// FetchError wraps any read failure of the snapshot fetcher.
type FetchError struct {
	Entity string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Entity, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MutationError wraps any write failure. Notification is the short text shown to the end user.
type MutationError struct {
	Op           string
	Entity       string
	Notification string
	Err          error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
