package services

import (
	"errors"
	"fmt"

	"github.com/canteenhq/canteen-api/models"
)

var (
	// ErrInvalidTransition marks any status change not in the legal edge set,
	// including a transition lost to a concurrent writer
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotPayable is returned when an unpaid order is pushed toward preparation
	ErrNotPayable = errors.New("order is not cleared for preparation until payment is confirmed")

	// ErrOtpMismatch is returned when the supplied pickup code does not match
	ErrOtpMismatch = errors.New("pickup code does not match")

	// ErrOrderNotFound is returned when the order id resolves to nothing
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmptyLap is returned when a lap is declared with no unbatched orders
	ErrEmptyLap = errors.New("no unbatched orders to declare a lap for")
)

// TransitionError carries the rejected edge. It matches ErrInvalidTransition
// under errors.Is so callers can branch without inspecting the detail.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
