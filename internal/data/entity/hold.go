package entity

import (
	"time"

	"github.com/google/uuid"
)

// SeatHold is a provisional, time-limited reservation placed while the user
// completes payment. Expired holds are swept back to available by a
// background loop; a confirmed hold becomes a Booking.
type SeatHold struct {
	BaseSimple
	Token     string    `db:"token"`
	UserID    uuid.UUID `db:"user_id"`
	ShowingID uuid.UUID `db:"showing_id"`
	Seats     []SeatID  `db:"seats"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the hold has passed its expiry at the given time.
func (h *SeatHold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
