package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require identity) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/booking - Reserve seats and create a booking
		r.Post("/api/booking", bookingHandler.CreateBooking)

		// PUT /api/booking/{id}/cancel - Cancel own booking and release its seats
		r.Put("/api/booking/{id}/cancel", bookingHandler.CancelBooking)

		// GET /api/user/bookings - View booking history (user's own bookings)
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)

		// POST /api/booking/hold - Place a timed hold on seats
		r.Post("/api/booking/hold", bookingHandler.CreateHold)

		// POST /api/booking/hold/{id}/confirm - Convert a hold into a booking
		r.Post("/api/booking/hold/{id}/confirm", bookingHandler.ConfirmHold)

		// DELETE /api/booking/hold/{id} - Release a hold early
		r.Delete("/api/booking/hold/{id}", bookingHandler.ReleaseHold)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// GET /api/admin/bookings/{id} - View any booking details
		r.Get("/{id}", bookingHandler.GetBookingByID)
	})
}
