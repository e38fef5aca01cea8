package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	// Read path used by the booking flow.
	GetShowing(ctx context.Context, showingID string) (*entity.Showing, error)
	GetSeatMap(ctx context.Context, showingID string) (*entity.SeatMap, error)
	ListUpcoming(ctx context.Context, req *request.PaginatedRequest) ([]*response.ShowingResponse, error)

	// Admin create. Low-frequency, non-concurrent; seeds the ledger.
	CreateShowing(ctx context.Context, req *request.CreateShowingRequest) (*response.ShowingResponse, error)
}

type catalogService struct {
	showings repository.ShowingRepository
	ledger   repository.LedgerRepository
	log      *zap.Logger
}

func NewCatalogService(showings repository.ShowingRepository, ledger repository.LedgerRepository, log *zap.Logger) CatalogService {
	return &catalogService{
		showings: showings,
		ledger:   ledger,
		log:      log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) GetShowing(ctx context.Context, showingID string) (*entity.Showing, error) {
	id, err := uuid.Parse(showingID)
	if err != nil {
		return nil, fmt.Errorf("invalid showing ID format %s: %w", showingID, err)
	}

	showing, err := s.showings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get showing: %w", err)
	}
	if showing == nil {
		return nil, fmt.Errorf("showing %s: %w", showingID, entity.ErrShowingNotFound)
	}

	return showing, nil
}

func (s *catalogService) GetSeatMap(ctx context.Context, showingID string) (*entity.SeatMap, error) {
	showing, err := s.GetShowing(ctx, showingID)
	if err != nil {
		return nil, err
	}
	return &showing.SeatMap, nil
}

func (s *catalogService) ListUpcoming(ctx context.Context, req *request.PaginatedRequest) ([]*response.ShowingResponse, error) {
	showings, err := s.showings.FindUpcoming(ctx, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list upcoming showings", zap.Error(err))
		return nil, fmt.Errorf("list upcoming showings: %w", err)
	}

	out := make([]*response.ShowingResponse, len(showings))
	for i, showing := range showings {
		resp := response.ShowingToResponse(showing)
		out[i] = &resp
	}
	return out, nil
}

func (s *catalogService) CreateShowing(ctx context.Context, req *request.CreateShowingRequest) (*response.ShowingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create showing validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at %s: %w", req.StartsAt, err)
	}

	now := time.Now()
	showing := &entity.Showing{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:     req.Title,
		VenueName: req.VenueName,
		StartsAt:  startsAt,
		SeatMap: entity.SeatMap{
			Rows:           req.Rows,
			SeatsPerRow:    req.SeatsPerRow,
			VIPRows:        req.VIPRows,
			AccessibleRows: req.AccessibleRows,
			Prices: map[entity.SeatCategory]float64{
				entity.SeatCategoryRegular:    req.RegularPrice,
				entity.SeatCategoryVIP:        req.VIPPrice,
				entity.SeatCategoryAccessible: req.AccessiblePrice,
			},
		},
	}

	if err := s.showings.Create(ctx, showing); err != nil {
		s.log.Error("Failed to create showing",
			zap.Error(err),
			zap.String("title", req.Title),
		)
		return nil, fmt.Errorf("create showing: %w", err)
	}

	// Seed one ledger row per seat, all available. This is the only ledger
	// write outside reserve/release.
	seats := make([]entity.SeatState, 0, showing.SeatMap.Rows*showing.SeatMap.SeatsPerRow)
	for _, seatID := range showing.SeatMap.AllSeats() {
		category, _ := showing.SeatMap.CategoryOf(seatID)
		seats = append(seats, entity.SeatState{
			ShowingID: showing.ID,
			SeatID:    seatID,
			Category:  category,
			Status:    entity.SeatStatusAvailable,
		})
	}

	if err := s.ledger.Init(ctx, showing.ID, seats); err != nil {
		s.log.Error("Failed to seed ledger for showing",
			zap.Error(err),
			zap.String("showing_id", showing.ID.String()),
		)
		return nil, fmt.Errorf("seed ledger: %w", err)
	}

	s.log.Info("Showing created",
		zap.String("showing_id", showing.ID.String()),
		zap.String("title", showing.Title),
		zap.String("venue", showing.VenueName),
		zap.Int("seats", len(seats)),
	)

	resp := response.ShowingToResponse(showing)
	return &resp, nil
}
