package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InventoryService fronts the seat inventory ledger. Reserve and Release go
// straight to the ledger store; only GetAvailability may be served from the
// read cache, and a stale read there is harmless because Reserve re-checks
// under its own serialization point.
type InventoryService interface {
	GetAvailability(ctx context.Context, showingID uuid.UUID) (map[entity.SeatID]entity.SeatStatus, error)
	Reserve(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, target entity.SeatStatus) error
	ConfirmHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error
	Release(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error
	ReleaseHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error
}

type inventoryService struct {
	ledger   repository.LedgerRepository
	redis    *redis.Client
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewInventoryService(ledger repository.LedgerRepository, redisClient *redis.Client, cacheTTL time.Duration, log *zap.Logger) InventoryService {
	return &inventoryService{
		ledger:   ledger,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		log:      log.With(zap.String("service", "inventory")),
	}
}

func availabilityCacheKey(showingID uuid.UUID) string {
	return "availability:" + showingID.String()
}

func (s *inventoryService) GetAvailability(ctx context.Context, showingID uuid.UUID) (map[entity.SeatID]entity.SeatStatus, error) {
	if cached := s.cachedAvailability(ctx, showingID); cached != nil {
		return cached, nil
	}

	states, err := s.ledger.GetStates(ctx, showingID)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}

	s.cacheAvailability(ctx, showingID, states)
	return states, nil
}

func (s *inventoryService) Reserve(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID, target entity.SeatStatus) error {
	if err := s.ledger.Reserve(ctx, showingID, seatIDs, target); err != nil {
		return err
	}
	s.invalidateAvailability(ctx, showingID)
	return nil
}

func (s *inventoryService) ConfirmHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if err := s.ledger.ConfirmHeld(ctx, showingID, seatIDs); err != nil {
		return err
	}
	s.invalidateAvailability(ctx, showingID)
	return nil
}

func (s *inventoryService) Release(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if err := s.ledger.Release(ctx, showingID, seatIDs); err != nil {
		return err
	}
	s.invalidateAvailability(ctx, showingID)
	return nil
}

func (s *inventoryService) ReleaseHeld(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	if err := s.ledger.ReleaseHeld(ctx, showingID, seatIDs); err != nil {
		return err
	}
	s.invalidateAvailability(ctx, showingID)
	return nil
}

// Cache helpers degrade silently: a cache failure must never surface in the
// booking flow.

func (s *inventoryService) cachedAvailability(ctx context.Context, showingID uuid.UUID) map[entity.SeatID]entity.SeatStatus {
	if s.redis == nil || s.cacheTTL <= 0 {
		return nil
	}

	raw, err := s.redis.Get(ctx, availabilityCacheKey(showingID)).Bytes()
	if err != nil {
		return nil
	}

	var states map[entity.SeatID]entity.SeatStatus
	if err := json.Unmarshal(raw, &states); err != nil {
		return nil
	}
	return states
}

func (s *inventoryService) cacheAvailability(ctx context.Context, showingID uuid.UUID, states map[entity.SeatID]entity.SeatStatus) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(states)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, availabilityCacheKey(showingID), raw, s.cacheTTL).Err(); err != nil {
		s.log.Debug("Failed to cache availability",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
	}
}

func (s *inventoryService) invalidateAvailability(ctx context.Context, showingID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, availabilityCacheKey(showingID)).Err(); err != nil {
		s.log.Debug("Failed to invalidate availability cache",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
		)
	}
}
