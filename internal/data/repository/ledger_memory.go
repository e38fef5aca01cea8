package repository

import (
	"context"
	"fmt"
	"sync"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
)

// memoryLedgerRepository keeps seat state in process memory with one mutex
// per showing, so reservations against different showings never contend.
// It honors the same all-or-nothing contract as the Postgres ledger and
// backs tests and local development.
type memoryLedgerRepository struct {
	mu       sync.RWMutex
	showings map[uuid.UUID]*showingLedger
}

type showingLedger struct {
	mu    sync.Mutex
	seats map[entity.SeatID]entity.SeatStatus
}

func NewMemoryLedgerRepository() LedgerRepository {
	return &memoryLedgerRepository{
		showings: make(map[uuid.UUID]*showingLedger),
	}
}

func (r *memoryLedgerRepository) ledger(showingID uuid.UUID) (*showingLedger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.showings[showingID]
	return l, ok
}

func (r *memoryLedgerRepository) Init(_ context.Context, showingID uuid.UUID, seats []entity.SeatState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.showings[showingID]; ok {
		return fmt.Errorf("ledger for showing %s already initialized", showingID.String())
	}

	l := &showingLedger{seats: make(map[entity.SeatID]entity.SeatStatus, len(seats))}
	for _, s := range seats {
		l.seats[s.SeatID] = s.Status
	}
	r.showings[showingID] = l

	return nil
}

func (r *memoryLedgerRepository) GetStates(_ context.Context, showingID uuid.UUID) (map[entity.SeatID]entity.SeatStatus, error) {
	l, ok := r.ledger(showingID)
	if !ok {
		return nil, entity.ErrShowingNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	states := make(map[entity.SeatID]entity.SeatStatus, len(l.seats))
	for id, status := range l.seats {
		states[id] = status
	}
	return states, nil
}

func (r *memoryLedgerRepository) Reserve(_ context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, target entity.SeatStatus) error {
	return r.transition(showingID, seatIDs, entity.SeatStatusAvailable, target)
}

func (r *memoryLedgerRepository) ConfirmHeld(_ context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	return r.transition(showingID, seatIDs, entity.SeatStatusHeld, entity.SeatStatusBooked)
}

func (r *memoryLedgerRepository) transition(showingID uuid.UUID, seatIDs []entity.SeatID, from, to entity.SeatStatus) error {
	if len(seatIDs) == 0 {
		return entity.ErrInvalidSeat
	}

	l, ok := r.ledger(showingID)
	if !ok {
		return entity.ErrShowingNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var conflicts []entity.SeatID
	for _, id := range seatIDs {
		status, ok := l.seats[id]
		if !ok {
			return fmt.Errorf("seat %s in showing %s: %w", id, showingID.String(), entity.ErrInvalidSeat)
		}
		if status != from {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return &entity.UnavailableSeatsError{Seats: conflicts}
	}

	for _, id := range seatIDs {
		l.seats[id] = to
	}
	return nil
}

func (r *memoryLedgerRepository) ReleaseHeld(_ context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	l, ok := r.ledger(showingID)
	if !ok {
		return entity.ErrShowingNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range seatIDs {
		if l.seats[id] == entity.SeatStatusHeld {
			l.seats[id] = entity.SeatStatusAvailable
		}
	}
	return nil
}

func (r *memoryLedgerRepository) Release(_ context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	l, ok := r.ledger(showingID)
	if !ok {
		return entity.ErrShowingNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range seatIDs {
		if _, ok := l.seats[id]; !ok {
			return fmt.Errorf("seat %s in showing %s: %w", id, showingID.String(), entity.ErrInvalidSeat)
		}
	}
	for _, id := range seatIDs {
		l.seats[id] = entity.SeatStatusAvailable
	}
	return nil
}
