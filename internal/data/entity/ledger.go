package entity

import "github.com/google/uuid"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusHeld      SeatStatus = "held"
	SeatStatusBooked    SeatStatus = "booked"
)

// SeatState is one ledger row: the authoritative status of one seat for one
// showing. The ledger is mutated only through reserve/release; no other
// component may write seat state.
type SeatState struct {
	ShowingID uuid.UUID    `db:"showing_id"`
	SeatID    SeatID       `db:"seat_id"`
	Category  SeatCategory `db:"category"`
	Status    SeatStatus   `db:"status"`
}
