package repository

import (
	"context"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerRepository is the single writer of seat state. Reserve and Release
// are atomic over the requested seat set: either every seat transitions or
// none does. Operations on different showings never serialize against each
// other.
type LedgerRepository interface {
	// Init seeds one ledger row per seat for a freshly created showing.
	Init(ctx context.Context, showingID uuid.UUID, seats []entity.SeatState) error

	// GetStates returns the current status of every seat of the showing.
	GetStates(ctx context.Context, showingID uuid.UUID) (map[entity.SeatID]entity.SeatStatus, error)

	// Reserve transitions all requested seats from available to target
	// (held or booked) in one indivisible step. On conflict it returns
	// *entity.UnavailableSeatsError carrying exactly the seats that were
	// not available; no seat state changes. Unknown seats return
	// entity.ErrInvalidSeat.
	Reserve(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, target entity.SeatStatus) error

	// ConfirmHeld transitions the given seats from held to booked. Seats
	// not currently held return *entity.UnavailableSeatsError.
	ConfirmHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error

	// Release transitions the given seats back to available. Seats already
	// available are left untouched; releasing them is not an error.
	Release(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error

	// ReleaseHeld transitions only seats currently held back to available.
	// Seats in any other state are skipped, so an expired-hold sweep can
	// never free a seat that was booked in the meantime.
	ReleaseHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error
}

type ledgerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLedgerRepository(db database.PgxIface, log *zap.Logger) LedgerRepository {
	return &ledgerRepository{
		db:  db,
		log: log.With(zap.String("repository", "ledger")),
	}
}

func (r *ledgerRepository) Init(ctx context.Context, showingID uuid.UUID, seats []entity.SeatState) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO showing_seats (showing_id, seat_id, category, status) VALUES `
	args := []interface{}{}
	for i, s := range seats {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, showingID, string(s.SeatID), s.Category, s.Status)
	}

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to init ledger",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.Int("seats", len(seats)),
		)
		return fmt.Errorf("init ledger for showing %s: %w", showingID.String(), err)
	}

	return nil
}

func (r *ledgerRepository) GetStates(ctx context.Context, showingID uuid.UUID) (map[entity.SeatID]entity.SeatStatus, error) {
	query := `
		SELECT seat_id, status
		FROM showing_seats
		WHERE showing_id = $1
	`

	rows, err := r.db.Query(ctx, query, showingID)
	if err != nil {
		r.log.Error("Failed to get seat states",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
		return nil, fmt.Errorf("get seat states for showing %s: %w", showingID.String(), err)
	}
	defer rows.Close()

	states := make(map[entity.SeatID]entity.SeatStatus)
	for rows.Next() {
		var seatID string
		var status entity.SeatStatus
		if err := rows.Scan(&seatID, &status); err != nil {
			r.log.Error("Failed to scan seat state row", zap.Error(err))
			return nil, fmt.Errorf("scan seat state row: %w", err)
		}
		states[entity.SeatID(seatID)] = status
	}

	if len(states) == 0 {
		return nil, entity.ErrShowingNotFound
	}

	return states, nil
}

func (r *ledgerRepository) Reserve(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, target entity.SeatStatus) error {
	return r.transition(ctx, showingID, seatIDs, entity.SeatStatusAvailable, target)
}

func (r *ledgerRepository) ConfirmHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	return r.transition(ctx, showingID, seatIDs, entity.SeatStatusHeld, entity.SeatStatusBooked)
}

// transition performs the atomic check-and-set over exactly the requested
// seats. Row locks from SELECT ... FOR UPDATE serialize racing requests that
// touch overlapping seats of the same showing; disjoint seat sets and other
// showings proceed in parallel.
func (r *ledgerRepository) transition(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, from, to entity.SeatStatus) error {
	if len(seatIDs) == 0 {
		return entity.ErrInvalidSeat
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT seat_id, status
		FROM showing_seats
		WHERE showing_id = $1 AND seat_id = ANY($2)
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, showingID, seatIDStrings(seatIDs))
	if err != nil {
		r.log.Error("Failed to lock seat rows",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
		return fmt.Errorf("lock seat rows for showing %s: %w", showingID.String(), err)
	}

	found := make(map[entity.SeatID]entity.SeatStatus, len(seatIDs))
	for rows.Next() {
		var seatID string
		var status entity.SeatStatus
		if err := rows.Scan(&seatID, &status); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked seat row: %w", err)
		}
		found[entity.SeatID(seatID)] = status
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked seat rows: %w", err)
	}

	var conflicts []entity.SeatID
	for _, id := range seatIDs {
		status, ok := found[id]
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

	update := `
		UPDATE showing_seats
		SET status = $3, updated_at = NOW()
		WHERE showing_id = $1 AND seat_id = ANY($2)
	`

	tag, err := tx.Exec(ctx, update, showingID, seatIDStrings(seatIDs), to)
	if err != nil {
		r.log.Error("Failed to update seat states",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.String("target", string(to)),
		)
		return fmt.Errorf("update seat states for showing %s: %w", showingID.String(), err)
	}
	if tag.RowsAffected() != int64(len(seatIDs)) {
		return fmt.Errorf("update seat states for showing %s: expected %d rows, got %d",
			showingID.String(), len(seatIDs), tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	return nil
}

func (r *ledgerRepository) Release(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT COUNT(*)
		FROM showing_seats
		WHERE showing_id = $1 AND seat_id = ANY($2)
	`

	var count int64
	if err := tx.QueryRow(ctx, query, showingID, seatIDStrings(seatIDs)).Scan(&count); err != nil {
		return fmt.Errorf("count seats for showing %s: %w", showingID.String(), err)
	}
	if count != int64(len(seatIDs)) {
		return fmt.Errorf("release seats for showing %s: %w", showingID.String(), entity.ErrInvalidSeat)
	}

	// Seats already available match no row, which keeps release idempotent
	// for cancellation retries.
	update := `
		UPDATE showing_seats
		SET status = $3, updated_at = NOW()
		WHERE showing_id = $1 AND seat_id = ANY($2) AND status <> $3
	`

	_, err = tx.Exec(ctx, update, showingID, seatIDStrings(seatIDs), entity.SeatStatusAvailable)
	if err != nil {
		r.log.Error("Failed to release seats",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
		return fmt.Errorf("release seats for showing %s: %w", showingID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	return nil
}

func (r *ledgerRepository) ReleaseHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query := `
		UPDATE showing_seats
		SET status = $3, updated_at = NOW()
		WHERE showing_id = $1 AND seat_id = ANY($2) AND status = $4
	`

	_, err := r.db.Exec(ctx, query, showingID, seatIDStrings(seatIDs),
		entity.SeatStatusAvailable, entity.SeatStatusHeld)
	if err != nil {
		r.log.Error("Failed to release held seats",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
		return fmt.Errorf("release held seats for showing %s: %w", showingID.String(), err)
	}

	return nil
}

func seatIDStrings(seatIDs []entity.SeatID) []string {
	out := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		out[i] = string(id)
	}
	return out
}
