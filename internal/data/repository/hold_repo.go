package repository

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HoldRepository interface {
	Create(ctx context.Context, hold *entity.SeatHold) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatHold, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindExpired returns holds whose expiry has passed, oldest first, for
	// the background sweep.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*entity.SeatHold, error)
}

type holdRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHoldRepository(db database.PgxIface, log *zap.Logger) HoldRepository {
	return &holdRepository{
		db:  db,
		log: log.With(zap.String("repository", "hold")),
	}
}

func (r *holdRepository) Create(ctx context.Context, hold *entity.SeatHold) error {
	query := `
		INSERT INTO seat_holds (id, token, user_id, showing_id, seats, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		hold.ID,
		hold.Token,
		hold.UserID,
		hold.ShowingID,
		seatIDStrings(hold.Seats),
		hold.ExpiresAt,
		hold.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create seat hold",
			zap.Error(err),
			zap.String("user_id", hold.UserID.String()),
			zap.String("showing_id", hold.ShowingID.String()),
		)
		return fmt.Errorf("create seat hold for showing %s: %w", hold.ShowingID.String(), err)
	}

	return nil
}

func (r *holdRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SeatHold, error) {
	query := `
		SELECT id, token, user_id, showing_id, seats, expires_at, created_at
		FROM seat_holds
		WHERE id = $1
	`

	hold, err := r.scanHold(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat hold by ID",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return nil, fmt.Errorf("find seat hold by ID %s: %w", id.String(), err)
	}

	return hold, nil
}

func (r *holdRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM seat_holds WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete seat hold",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return fmt.Errorf("delete seat hold %s: %w", id.String(), err)
	}

	return nil
}

func (r *holdRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*entity.SeatHold, error) {
	query := `
		SELECT id, token, user_id, showing_id, seats, expires_at, created_at
		FROM seat_holds
		WHERE expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to find expired seat holds", zap.Error(err))
		return nil, fmt.Errorf("find expired seat holds: %w", err)
	}
	defer rows.Close()

	var holds []*entity.SeatHold
	for rows.Next() {
		hold, err := r.scanHold(rows)
		if err != nil {
			r.log.Error("Failed to scan seat hold row", zap.Error(err))
			return nil, fmt.Errorf("scan seat hold row: %w", err)
		}
		holds = append(holds, hold)
	}

	return holds, nil
}

func (r *holdRepository) scanHold(row pgx.Row) (*entity.SeatHold, error) {
	var hold entity.SeatHold
	var seats []string

	err := row.Scan(
		&hold.ID,
		&hold.Token,
		&hold.UserID,
		&hold.ShowingID,
		&seats,
		&hold.ExpiresAt,
		&hold.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	hold.Seats = make([]entity.SeatID, len(seats))
	for i, s := range seats {
		hold.Seats[i] = entity.SeatID(s)
	}

	return &hold, nil
}
