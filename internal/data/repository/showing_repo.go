package repository

import (
	"context"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowingRepository interface {
	Create(ctx context.Context, showing *entity.Showing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showing, error)
	FindUpcoming(ctx context.Context, limit, offset int) ([]*entity.Showing, error)
}

type showingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowingRepository(db database.PgxIface, log *zap.Logger) ShowingRepository {
	return &showingRepository{
		db:  db,
		log: log.With(zap.String("repository", "showing")),
	}
}

func (r *showingRepository) Create(ctx context.Context, showing *entity.Showing) error {
	query := `
		INSERT INTO showings (id, title, venue_name, starts_at, rows, seats_per_row, vip_rows, accessible_rows,
			regular_price, vip_price, accessible_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(ctx, query,
		showing.ID,
		showing.Title,
		showing.VenueName,
		showing.StartsAt,
		showing.SeatMap.Rows,
		showing.SeatMap.SeatsPerRow,
		showing.SeatMap.VIPRows,
		showing.SeatMap.AccessibleRows,
		showing.SeatMap.Prices[entity.SeatCategoryRegular],
		showing.SeatMap.Prices[entity.SeatCategoryVIP],
		showing.SeatMap.Prices[entity.SeatCategoryAccessible],
		showing.CreatedAt,
		showing.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create showing",
			zap.Error(err),
			zap.String("title", showing.Title),
			zap.String("venue", showing.VenueName),
		)
		return fmt.Errorf("create showing %s: %w", showing.Title, err)
	}

	return nil
}

func (r *showingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showing, error) {
	query := `
		SELECT id, title, venue_name, starts_at, rows, seats_per_row, vip_rows, accessible_rows,
			regular_price, vip_price, accessible_price, created_at, updated_at
		FROM showings
		WHERE id = $1
	`

	showing, err := r.scanShowing(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showing by ID",
			zap.Error(err),
			zap.String("showing_id", id.String()),
		)
		return nil, fmt.Errorf("find showing by ID %s: %w", id.String(), err)
	}

	return showing, nil
}

func (r *showingRepository) FindUpcoming(ctx context.Context, limit, offset int) ([]*entity.Showing, error) {
	query := `
		SELECT id, title, venue_name, starts_at, rows, seats_per_row, vip_rows, accessible_rows,
			regular_price, vip_price, accessible_price, created_at, updated_at
		FROM showings
		WHERE starts_at > NOW()
		ORDER BY starts_at
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to find upcoming showings", zap.Error(err))
		return nil, fmt.Errorf("find upcoming showings: %w", err)
	}
	defer rows.Close()

	var showings []*entity.Showing
	for rows.Next() {
		showing, err := r.scanShowing(rows)
		if err != nil {
			r.log.Error("Failed to scan showing row", zap.Error(err))
			return nil, fmt.Errorf("scan showing row: %w", err)
		}
		showings = append(showings, showing)
	}

	return showings, nil
}

func (r *showingRepository) scanShowing(row pgx.Row) (*entity.Showing, error) {
	var showing entity.Showing
	var regular, vip, accessible float64

	err := row.Scan(
		&showing.ID,
		&showing.Title,
		&showing.VenueName,
		&showing.StartsAt,
		&showing.SeatMap.Rows,
		&showing.SeatMap.SeatsPerRow,
		&showing.SeatMap.VIPRows,
		&showing.SeatMap.AccessibleRows,
		&regular,
		&vip,
		&accessible,
		&showing.CreatedAt,
		&showing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	showing.SeatMap.Prices = map[entity.SeatCategory]float64{
		entity.SeatCategoryRegular:    regular,
		entity.SeatCategoryVIP:        vip,
		entity.SeatCategoryAccessible: accessible,
	}

	return &showing, nil
}
