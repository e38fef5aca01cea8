package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/internal/event"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const expiredHoldSweepBatch = 100

type BookingService interface {
	// Booking flow
	CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, userID string, bookingID string) error
	GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Timed holds (enabled when Booking.HoldTTL > 0)
	CreateHold(ctx context.Context, userID string, req *request.CreateHoldRequest) (*response.HoldResponse, error)
	ConfirmHold(ctx context.Context, userID string, holdID string) (*response.BookingResponse, error)
	ReleaseHold(ctx context.Context, userID string, holdID string) error
	ReleaseExpiredHolds(ctx context.Context) (int, error)

	// Admin
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
}

type bookingService struct {
	catalog   CatalogService
	inventory InventoryService
	bookings  repository.BookingRepository
	holds     repository.HoldRepository
	publisher event.Publisher
	cfg       utils.BookingConfig
	log       *zap.Logger
}

func NewBookingService(
	catalog CatalogService,
	inventory InventoryService,
	bookings repository.BookingRepository,
	holds repository.HoldRepository,
	publisher event.Publisher,
	cfg utils.BookingConfig,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		catalog:   catalog,
		inventory: inventory,
		bookings:  bookings,
		holds:     holds,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	showing, err := s.catalog.GetShowing(ctx, req.ShowingID)
	if err != nil {
		return nil, err
	}

	seatIDs, totalPrice, err := s.priceSeats(showing, req.Seats)
	if err != nil {
		return nil, err
	}

	// Atomic all-or-nothing reservation. On contention the error carries
	// exactly the conflicting seats and nothing has changed.
	if err := s.inventory.Reserve(ctx, showing.ID, seatIDs, entity.SeatStatusBooked); err != nil {
		return nil, err
	}

	booking := newBooking(userUUID, showing.ID, seatIDs, totalPrice)

	if err := s.bookings.Create(ctx, booking); err != nil {
		// Reservation and booking-record creation must appear atomic to
		// the caller: undo the reserve before surfacing the error.
		s.compensateRelease(ctx, showing.ID, seatIDs)
		s.log.Error("Failed to persist booking after reserve",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("showing_id", req.ShowingID),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("confirmation_code", booking.ConfirmationCode),
		zap.String("user_id", userID),
		zap.String("showing_id", req.ShowingID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_price", totalPrice),
	)

	s.publishConfirmed(booking, showing)

	resp := response.BookingToResponse(booking, showing)
	return &resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, userID string, bookingID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return fmt.Errorf("booking %s: %w", bookingID, entity.ErrBookingNotFound)
	}

	if booking.UserID != userUUID {
		return fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotAuthorized)
	}

	// Mark cancelled before releasing seats so a crashed or retried cancel
	// converges: a second call finds the booking already cancelled, skips
	// the status write and re-runs the idempotent release.
	if booking.Status != entity.BookingStatusCancelled {
		if err := s.bookings.UpdateStatus(ctx, booking.ID, entity.BookingStatusCancelled); err != nil {
			return fmt.Errorf("cancel booking %s: %w", bookingID, err)
		}
	}

	// A cancelled booking whose seats stay booked is a permanent inventory
	// leak, so the release is retried rather than surfaced on first failure.
	if err := s.releaseWithRetry(ctx, booking.ShowingID, booking.Seats); err != nil {
		s.log.Error("Failed to release seats for cancelled booking",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return fmt.Errorf("release seats for booking %s: %w", bookingID, err)
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", bookingID),
		zap.String("confirmation_code", booking.ConfirmationCode),
	)

	s.publishCancelled(booking)

	return nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	bookings, err := s.bookings.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.bookings.CountByUserID(ctx, userUUID)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		showing, _ := s.catalog.GetShowing(ctx, booking.ShowingID.String())
		bookingResponses[i] = response.BookingToResponse(booking, showing)
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}

// ==================== TIMED HOLDS ====================

func (s *bookingService) CreateHold(ctx context.Context, userID string, req *request.CreateHoldRequest) (*response.HoldResponse, error) {
	if s.cfg.HoldTTL <= 0 {
		return nil, entity.ErrHoldsDisabled
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create hold validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	showing, err := s.catalog.GetShowing(ctx, req.ShowingID)
	if err != nil {
		return nil, err
	}

	seatIDs, _, err := s.priceSeats(showing, req.Seats)
	if err != nil {
		return nil, err
	}

	if err := s.inventory.Reserve(ctx, showing.ID, seatIDs, entity.SeatStatusHeld); err != nil {
		return nil, err
	}

	now := time.Now()
	hold := &entity.SeatHold{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		Token:     utils.GenerateHoldToken(),
		UserID:    userUUID,
		ShowingID: showing.ID,
		Seats:     seatIDs,
		ExpiresAt: now.Add(s.cfg.HoldTTL),
	}

	if err := s.holds.Create(ctx, hold); err != nil {
		s.compensateRelease(ctx, showing.ID, seatIDs)
		s.log.Error("Failed to persist hold after reserve",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("showing_id", req.ShowingID),
		)
		return nil, fmt.Errorf("create hold: %w", err)
	}

	s.log.Info("Seats held",
		zap.String("hold_id", hold.ID.String()),
		zap.String("user_id", userID),
		zap.String("showing_id", req.ShowingID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Time("expires_at", hold.ExpiresAt),
	)

	resp := response.HoldToResponse(hold)
	return &resp, nil
}

func (s *bookingService) ConfirmHold(ctx context.Context, userID string, holdID string) (*response.BookingResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	hold, err := s.findOwnedHold(ctx, userUUID, holdID)
	if err != nil {
		return nil, err
	}

	if hold.Expired(time.Now()) {
		// The sweeper may not have run yet; an expired hold is no longer
		// confirmable regardless.
		return nil, fmt.Errorf("hold %s: %w", holdID, entity.ErrHoldExpired)
	}

	showing, err := s.catalog.GetShowing(ctx, hold.ShowingID.String())
	if err != nil {
		return nil, err
	}

	seatIDs, totalPrice, err := s.priceSeats(showing, seatLabels(hold.Seats))
	if err != nil {
		return nil, err
	}

	if err := s.inventory.ConfirmHeld(ctx, showing.ID, seatIDs); err != nil {
		return nil, err
	}

	booking := newBooking(userUUID, showing.ID, seatIDs, totalPrice)

	if err := s.bookings.Create(ctx, booking); err != nil {
		s.compensateRelease(ctx, showing.ID, seatIDs)
		if derr := s.holds.Delete(ctx, hold.ID); derr != nil {
			s.log.Error("Failed to delete hold after compensation", zap.Error(derr),
				zap.String("hold_id", holdID))
		}
		s.log.Error("Failed to persist booking after hold confirm",
			zap.Error(err),
			zap.String("hold_id", holdID),
		)
		return nil, fmt.Errorf("confirm hold: %w", err)
	}

	if err := s.holds.Delete(ctx, hold.ID); err != nil {
		// The hold points at seats that are now booked; the sweeper skips
		// seats no longer held, so this leaves no leak.
		s.log.Warn("Failed to delete confirmed hold",
			zap.Error(err),
			zap.String("hold_id", holdID),
		)
	}

	s.log.Info("Hold confirmed",
		zap.String("hold_id", holdID),
		zap.String("booking_id", booking.ID.String()),
		zap.String("confirmation_code", booking.ConfirmationCode),
	)

	s.publishConfirmed(booking, showing)

	resp := response.BookingToResponse(booking, showing)
	return &resp, nil
}

func (s *bookingService) ReleaseHold(ctx context.Context, userID string, holdID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	hold, err := s.findOwnedHold(ctx, userUUID, holdID)
	if err != nil {
		return err
	}

	if err := s.inventory.ReleaseHeld(ctx, hold.ShowingID, hold.Seats); err != nil {
		return fmt.Errorf("release hold %s: %w", holdID, err)
	}

	if err := s.holds.Delete(ctx, hold.ID); err != nil {
		return fmt.Errorf("delete hold %s: %w", holdID, err)
	}

	s.log.Info("Hold released",
		zap.String("hold_id", holdID),
		zap.String("user_id", userID),
	)

	return nil
}

// ReleaseExpiredHolds is called by the background sweeper. Seats of expired
// holds go back to available; holds whose seats were meanwhile booked via
// ConfirmHold have already left the table.
func (s *bookingService) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	expired, err := s.holds.FindExpired(ctx, time.Now(), expiredHoldSweepBatch)
	if err != nil {
		return 0, fmt.Errorf("find expired holds: %w", err)
	}

	released := 0
	for _, hold := range expired {
		if err := s.inventory.ReleaseHeld(ctx, hold.ShowingID, hold.Seats); err != nil {
			s.log.Error("Failed to release expired hold",
				zap.Error(err),
				zap.String("hold_id", hold.ID.String()),
			)
			continue
		}
		if err := s.holds.Delete(ctx, hold.ID); err != nil {
			s.log.Error("Failed to delete expired hold",
				zap.Error(err),
				zap.String("hold_id", hold.ID.String()),
			)
			continue
		}
		released++
	}

	return released, nil
}

// ==================== ADMIN METHODS ====================

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, entity.ErrBookingNotFound)
	}

	showing, _ := s.catalog.GetShowing(ctx, booking.ShowingID.String())

	resp := response.BookingToResponse(booking, showing)
	return &resp, nil
}

// ==================== HELPER METHODS ====================

// priceSeats validates the requested seats against the showing's seat map
// and computes the total from the per-category price table. The price is
// computed here, never trusted from client input.
func (s *bookingService) priceSeats(showing *entity.Showing, seats []string) ([]entity.SeatID, float64, error) {
	seen := make(map[entity.SeatID]bool, len(seats))
	seatIDs := make([]entity.SeatID, 0, len(seats))
	total := 0.0

	for _, label := range seats {
		seatID := entity.SeatID(label)
		if seen[seatID] {
			continue
		}
		seen[seatID] = true

		price, ok := showing.SeatMap.PriceOf(seatID)
		if !ok {
			return nil, 0, fmt.Errorf("seat %s in showing %s: %w", label, showing.ID.String(), entity.ErrInvalidSeat)
		}

		seatIDs = append(seatIDs, seatID)
		total += price
	}

	if len(seatIDs) == 0 {
		return nil, 0, fmt.Errorf("empty seat selection: %w", entity.ErrInvalidSeat)
	}

	return seatIDs, total, nil
}

// newBooking builds a complete, immutable booking value. All fields are
// populated at creation; the record is never patched afterwards.
func newBooking(userID, showingID uuid.UUID, seats []entity.SeatID, totalPrice float64) *entity.Booking {
	now := time.Now()
	return &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ConfirmationCode: utils.GenerateConfirmationCode(),
		UserID:           userID,
		ShowingID:        showingID,
		Seats:            seats,
		TotalPrice:       totalPrice,
		Status:           entity.BookingStatusConfirmed,
	}
}

func (s *bookingService) findOwnedHold(ctx context.Context, userID uuid.UUID, holdID string) (*entity.SeatHold, error) {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return nil, fmt.Errorf("invalid hold ID format %s: %w", holdID, err)
	}

	hold, err := s.holds.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find hold %s: %w", holdID, err)
	}
	if hold == nil {
		return nil, fmt.Errorf("hold %s: %w", holdID, entity.ErrHoldNotFound)
	}
	if hold.UserID != userID {
		return nil, fmt.Errorf("hold %s: %w", holdID, entity.ErrNotAuthorized)
	}

	return hold, nil
}

// compensateRelease undoes a reserve whose follow-up persistence failed.
// Blocking here is acceptable: leaving seats booked without a record would
// strand inventory.
func (s *bookingService) compensateRelease(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) {
	if err := s.releaseWithRetry(ctx, showingID, seatIDs); err != nil {
		s.log.Error("Compensating release failed, seats stranded",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
	}
}

// releaseWithRetry retries transient release failures with doubling backoff.
// Release is idempotent, so re-running a partially applied attempt is safe.
func (s *bookingService) releaseWithRetry(ctx context.Context, showingID uuid.UUID, seatIDs []entity.SeatID) error {
	backoff := s.cfg.ReleaseRetryBase
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	attempts := s.cfg.ReleaseRetryMax
	if attempts <= 0 {
		attempts = 5
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = s.inventory.Release(ctx, showingID, seatIDs)
		if err == nil {
			return nil
		}

		s.log.Warn("Release failed, retrying",
			zap.Error(err),
			zap.String("showing_id", showingID.String()),
			zap.Int("attempt", i+1),
			zap.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return err
}

// Event publication happens after the transactional core commits and runs
// detached from the request: a slow or failing broker never blocks a booking.

func (s *bookingService) publishConfirmed(booking *entity.Booking, showing *entity.Showing) {
	evt := event.BookingConfirmedEvent{
		BookingID:        booking.ID.String(),
		ConfirmationCode: booking.ConfirmationCode,
		UserID:           booking.UserID.String(),
		ShowingID:        booking.ShowingID.String(),
		Title:            showing.Title,
		VenueName:        showing.VenueName,
		StartsAt:         showing.StartsAt,
		Seats:            seatLabels(booking.Seats),
		TotalPrice:       booking.TotalPrice,
		ConfirmedAt:      booking.CreatedAt,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishBookingConfirmed(ctx, evt); err != nil {
			s.log.Warn("Failed to publish booking confirmed event",
				zap.Error(err),
				zap.String("booking_id", evt.BookingID),
			)
		}
	}()
}

func (s *bookingService) publishCancelled(booking *entity.Booking) {
	evt := event.BookingCancelledEvent{
		BookingID:   booking.ID.String(),
		UserID:      booking.UserID.String(),
		ShowingID:   booking.ShowingID.String(),
		Seats:       seatLabels(booking.Seats),
		CancelledAt: time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishBookingCancelled(ctx, evt); err != nil {
			s.log.Warn("Failed to publish booking cancelled event",
				zap.Error(err),
				zap.String("booking_id", evt.BookingID),
			)
		}
	}()
}

func seatLabels(seats []entity.SeatID) []string {
	labels := make([]string, len(seats))
	for i, seat := range seats {
		labels[i] = string(seat)
	}
	return labels
}
