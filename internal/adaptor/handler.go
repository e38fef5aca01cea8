package adaptor

import (
	"ticket-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Catalog *CatalogHandler
	Booking *BookingHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Catalog: NewCatalogHandler(service.Catalog, service.Inventory, log),
		Booking: NewBookingHandler(service.Booking, log),
	}
}
