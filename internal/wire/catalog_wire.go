package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCatalog(
	r chi.Router,
	catalogHandler *adaptor.CatalogHandler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/showings - List upcoming showings (public)
	r.Get("/api/showings", catalogHandler.ListShowings)

	// GET /api/showings/{id} - Showing details with seat map (public)
	r.Get("/api/showings/{id}", catalogHandler.GetShowing)

	// GET /api/showings/{id}/seats - Current seat availability (public)
	r.Get("/api/showings/{id}/seats", catalogHandler.GetAvailability)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/showings", func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/admin/showings - Create showing and seed its seat ledger
		r.Post("/", catalogHandler.CreateShowing)
	})
}
