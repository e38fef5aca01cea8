package usecase

import (
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/event"
	"ticket-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Service struct {
	Catalog   CatalogService
	Inventory InventoryService
	Booking   BookingService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	publisher event.Publisher,
	redisClient *redis.Client,
	log *zap.Logger,
) *Service {
	catalog := NewCatalogService(repo.Showing, repo.Ledger, log)
	inventory := NewInventoryService(repo.Ledger, redisClient, config.Redis.AvailabilityTTL, log)
	booking := NewBookingService(catalog, inventory, repo.Booking, repo.Hold, publisher, config.Booking, log)

	return &Service{
		Catalog:   catalog,
		Inventory: inventory,
		Booking:   booking,
	}
}
