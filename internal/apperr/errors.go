// Package apperr defines the error taxonomy shared across the service.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup for a class, unit, topic, or content
	// handle that does not exist. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration marks a mutating ledger operation attempted
	// without an active operator identity. Never retried.
	ErrConfiguration = errors.New("operator identity not configured")

	// ErrInvalidIdentity marks a malformed asset identity string.
	ErrInvalidIdentity = errors.New("invalid asset identity")

	// ErrSubscription marks a topic subscription that exhausted its
	// retry budget without collecting anything.
	ErrSubscription = errors.New("topic subscription failed")
)

// Upstream wraps a generic ledger or content-store failure with the
// operation name and the id it targeted.
type Upstream struct {
	Op     string
	Target string
	Err    error
}

func (e *Upstream) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Upstream) Unwrap() error { return e.Err }

// Upstreamf wraps err as an Upstream failure, passing sentinel errors
// through untouched so errors.Is keeps working at the API boundary.
func Upstreamf(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvalidIdentity) || errors.Is(err, ErrSubscription) {
		return err
	}
	return &Upstream{Op: op, Target: target, Err: err}
}
