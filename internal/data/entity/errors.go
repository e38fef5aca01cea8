package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by the booking core. Handlers map these to HTTP
// status codes; services wrap them with context via fmt.Errorf("...: %w").
var (
	ErrShowingNotFound  = errors.New("showing not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrHoldNotFound     = errors.New("hold not found")
	ErrInvalidSeat      = errors.New("invalid seat")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrHoldExpired      = errors.New("hold expired")
	ErrHoldsDisabled    = errors.New("seat holds disabled")
)

// UnavailableSeatsError reports a reservation conflict. It carries exactly
// the requested seats that were already held or booked so the client can
// adjust the selection instead of resubmitting blindly. Contention is an
// expected outcome, not a failure of the system.
type UnavailableSeatsError struct {
	Seats []SeatID
}

func (e *UnavailableSeatsError) Error() string {
	labels := make([]string, len(e.Seats))
	for i, s := range e.Seats {
		labels[i] = string(s)
	}
	return fmt.Sprintf("seats unavailable: %s", strings.Join(labels, ", "))
}
