package repository

import (
	"ticket-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Showing ShowingRepository
	Ledger  LedgerRepository
	Booking BookingRepository
	Hold    HoldRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Showing: NewShowingRepository(db, log),
		Ledger:  NewLedgerRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Hold:    NewHoldRepository(db, log),
	}
}
