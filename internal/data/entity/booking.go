package entity

import (
	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the durable record of a confirmed reservation. Seats and
// TotalPrice are frozen at creation; the only mutation the lifecycle allows
// is confirmed -> cancelled.
type Booking struct {
	BaseNoDelete
	ConfirmationCode string        `db:"confirmation_code"`
	UserID           uuid.UUID     `db:"user_id"`
	ShowingID        uuid.UUID     `db:"showing_id"`
	Seats            []SeatID      `db:"seats"`
	TotalPrice       float64       `db:"total_price"`
	Status           BookingStatus `db:"status"`
}
