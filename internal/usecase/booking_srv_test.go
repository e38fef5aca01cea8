package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/event"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== TEST DOUBLES ====================

type mockShowingRepo struct {
	mock.Mock
}

func (m *mockShowingRepo) Create(ctx context.Context, showing *entity.Showing) error {
	args := m.Called(ctx, showing)
	return args.Error(0)
}

func (m *mockShowingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Showing), args.Error(1)
}

func (m *mockShowingRepo) FindUpcoming(ctx context.Context, limit, offset int) ([]*entity.Showing, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Showing), args.Error(1)
}

// fakeBookingRepo is a stateful in-memory store so cancel and history flows
// can read back what the service wrote. createErr simulates a persistence
// failure on the next Create.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*entity.Booking
	createErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			copied := *booking
			out = append(out, &copied)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[bookingID]
	if !ok {
		return entity.ErrBookingNotFound
	}
	booking.Status = status
	return nil
}

type fakeHoldRepo struct {
	mu    sync.Mutex
	holds map[uuid.UUID]*entity.SeatHold
}

func newFakeHoldRepo() *fakeHoldRepo {
	return &fakeHoldRepo{holds: make(map[uuid.UUID]*entity.SeatHold)}
}

func (r *fakeHoldRepo) Create(_ context.Context, hold *entity.SeatHold) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *hold
	r.holds[hold.ID] = &copied
	return nil
}

func (r *fakeHoldRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.SeatHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hold, ok := r.holds[id]
	if !ok {
		return nil, nil
	}
	copied := *hold
	return &copied, nil
}

func (r *fakeHoldRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.holds, id)
	return nil
}

func (r *fakeHoldRepo) FindExpired(_ context.Context, now time.Time, limit int) ([]*entity.SeatHold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SeatHold
	for _, hold := range r.holds {
		if hold.Expired(now) {
			copied := *hold
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []event.BookingConfirmedEvent
	cancelled []event.BookingCancelledEvent
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, evt event.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, evt)
	return nil
}

func (p *recordingPublisher) PublishBookingCancelled(_ context.Context, evt event.BookingCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, evt)
	return nil
}

func (p *recordingPublisher) confirmedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.confirmed)
}

func (p *recordingPublisher) cancelledCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancelled)
}

// ==================== FIXTURE ====================

type bookingFixture struct {
	service   BookingService
	inventory InventoryService
	ledger    repository.LedgerRepository
	showings  *mockShowingRepo
	bookings  *fakeBookingRepo
	holds     *fakeHoldRepo
	publisher *recordingPublisher
	showing   *entity.Showing
	userID    string
}

func newBookingFixture(t *testing.T, cfg utils.BookingConfig) *bookingFixture {
	t.Helper()

	showing := &entity.Showing{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Title:     "Interstellar",
		VenueName: "Main Hall",
		StartsAt:  time.Now().Add(24 * time.Hour),
		SeatMap: entity.SeatMap{
			Rows:           3,
			SeatsPerRow:    4,
			VIPRows:        []string{"C"},
			AccessibleRows: []string{"A"},
			Prices: map[entity.SeatCategory]float64{
				entity.SeatCategoryRegular:    50000,
				entity.SeatCategoryVIP:        100000,
				entity.SeatCategoryAccessible: 40000,
			},
		},
	}

	showings := new(mockShowingRepo)
	showings.On("FindByID", mock.Anything, showing.ID).Return(showing, nil)

	ledger := repository.NewMemoryLedgerRepository()
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
	require.NoError(t, ledger.Init(context.Background(), showing.ID, seats))

	log := zap.NewNop()
	catalog := NewCatalogService(showings, ledger, log)
	inventory := NewInventoryService(ledger, nil, 0, log)
	bookings := newFakeBookingRepo()
	holds := newFakeHoldRepo()
	publisher := &recordingPublisher{}

	service := NewBookingService(catalog, inventory, bookings, holds, publisher, cfg, log)

	return &bookingFixture{
		service:   service,
		inventory: inventory,
		ledger:    ledger,
		showings:  showings,
		bookings:  bookings,
		holds:     holds,
		publisher: publisher,
		showing:   showing,
		userID:    uuid.NewString(),
	}
}

func defaultBookingConfig() utils.BookingConfig {
	return utils.BookingConfig{
		ReleaseRetryBase: time.Millisecond,
		ReleaseRetryMax:  3,
	}
}

func holdsEnabledConfig(ttl time.Duration) utils.BookingConfig {
	cfg := defaultBookingConfig()
	cfg.HoldTTL = ttl
	cfg.SweepInterval = time.Second
	return cfg
}

func (f *bookingFixture) seatStatus(t *testing.T, id entity.SeatID) entity.SeatStatus {
	t.Helper()
	states, err := f.ledger.GetStates(context.Background(), f.showing.ID)
	require.NoError(t, err)
	return states[id]
}

// ==================== BOOKING FLOW ====================

func TestCreateBooking_Success(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "C1"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// B is regular, C is VIP; the total comes from the price table, never
	// from the request.
	assert.Equal(t, 150000.0, resp.TotalPrice)
	assert.Equal(t, entity.BookingStatusConfirmed, resp.Status)
	assert.NotEmpty(t, resp.ConfirmationCode)
	assert.ElementsMatch(t, []string{"B1", "C1"}, resp.Seats)
	assert.Equal(t, "Interstellar", resp.Title)

	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(t, "B1"))
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(t, "C1"))

	assert.Eventually(t, func() bool { return f.publisher.confirmedCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestCreateBooking_DuplicateSeatsCollapse(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"B1"}, resp.Seats)
	assert.Equal(t, 50000.0, resp.TotalPrice)
}

func TestCreateBooking_ConflictReturnsExactSeats(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	_, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B2"},
	})
	require.NoError(t, err)

	_, err = f.service.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B2"},
	})
	require.Error(t, err)

	var unavailable *entity.UnavailableSeatsError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []entity.SeatID{"B2"}, unavailable.Seats)

	// The free seat of the failed request is untouched.
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
}

func TestCreateBooking_InvalidSeatRejected(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	_, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"Z9"},
	})
	assert.ErrorIs(t, err, entity.ErrInvalidSeat)
}

func TestCreateBooking_UnknownShowing(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	missing := uuid.New()
	f.showings.On("FindByID", mock.Anything, missing).Return(nil, nil)

	_, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: missing.String(),
		Seats:     []string{"B1"},
	})
	assert.ErrorIs(t, err, entity.ErrShowingNotFound)
}

func TestCreateBooking_CompensatesWhenPersistFails(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())
	f.bookings.createErr = errors.New("connection reset")

	_, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B2"},
	})
	require.Error(t, err)

	// Reserved seats went back to available, so a retry succeeds.
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B2"))

	_, err = f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B2"},
	})
	assert.NoError(t, err)
}

func TestCreateBooking_TotalFrozenAgainstPriceChange(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	created, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "C1"},
	})
	require.NoError(t, err)
	require.Equal(t, 150000.0, created.TotalPrice)

	// An administrative price change after the fact must not touch the
	// stored total; it applies to future bookings only.
	f.showing.SeatMap.Prices[entity.SeatCategoryRegular] = 75000
	f.showing.SeatMap.Prices[entity.SeatCategoryVIP] = 200000

	found, err := f.service.GetBookingByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, found.TotalPrice)

	// New bookings see the new table.
	fresh, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 75000.0, fresh.TotalPrice)
}

// ==================== CANCELLATION ====================

func TestCancelBooking_ReleasesSeats(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B2"},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelBooking(context.Background(), f.userID, resp.ID))

	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B2"))

	stored, err := f.bookings.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, stored.Status)

	assert.Eventually(t, func() bool { return f.publisher.cancelledCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestCancelBooking_SecondCancelSucceeds(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelBooking(context.Background(), f.userID, resp.ID))
	require.NoError(t, f.service.CancelBooking(context.Background(), f.userID, resp.ID))

	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
}

func TestCancelBooking_SeatRebookableByOther(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)
	require.NoError(t, f.service.CancelBooking(context.Background(), f.userID, resp.ID))

	otherUser := uuid.NewString()
	rebooked, err := f.service.CreateBooking(context.Background(), otherUser, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)
	assert.Equal(t, otherUser, rebooked.UserID)
}

func TestCancelBooking_NotOwner(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	resp, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	err = f.service.CancelBooking(context.Background(), uuid.NewString(), resp.ID)
	assert.ErrorIs(t, err, entity.ErrNotAuthorized)

	// Nothing changed.
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(t, "B1"))
}

func TestCancelBooking_NotFound(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	err := f.service.CancelBooking(context.Background(), f.userID, uuid.NewString())
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}

// ==================== HISTORY ====================

func TestGetUserBookings_ReturnsOwnOnly(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	_, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	_, err = f.service.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B2"},
	})
	require.NoError(t, err)

	page, err := f.service.GetUserBookings(context.Background(), f.userID, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, f.userID, page.Data[0].UserID)
	assert.Equal(t, int64(1), page.Pagination.Total)
}

// ==================== TIMED HOLDS ====================

func TestCreateHold_DisabledByDefault(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	_, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	assert.ErrorIs(t, err, entity.ErrHoldsDisabled)
}

func TestHoldLifecycle_ConfirmProducesBooking(t *testing.T) {
	f := newBookingFixture(t, holdsEnabledConfig(5*time.Minute))

	hold, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"C1", "C2"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SeatStatusHeld, f.seatStatus(t, "C1"))

	// A held seat blocks other bookings.
	_, err = f.service.CreateBooking(context.Background(), uuid.NewString(), &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"C1"},
	})
	var unavailable *entity.UnavailableSeatsError
	require.True(t, errors.As(err, &unavailable))

	booking, err := f.service.ConfirmHold(context.Background(), f.userID, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, 200000.0, booking.TotalPrice)
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(t, "C1"))
	assert.Equal(t, entity.SeatStatusBooked, f.seatStatus(t, "C2"))

	// The hold is gone once confirmed.
	_, err = f.service.ConfirmHold(context.Background(), f.userID, hold.ID)
	assert.ErrorIs(t, err, entity.ErrHoldNotFound)
}

func TestReleaseHold_FreesSeats(t *testing.T) {
	f := newBookingFixture(t, holdsEnabledConfig(5*time.Minute))

	hold, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.ReleaseHold(context.Background(), f.userID, hold.ID))
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
}

func TestConfirmHold_Expired(t *testing.T) {
	f := newBookingFixture(t, holdsEnabledConfig(time.Nanosecond))

	hold, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = f.service.ConfirmHold(context.Background(), f.userID, hold.ID)
	assert.ErrorIs(t, err, entity.ErrHoldExpired)
}

func TestConfirmHold_NotOwner(t *testing.T) {
	f := newBookingFixture(t, holdsEnabledConfig(5*time.Minute))

	hold, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	_, err = f.service.ConfirmHold(context.Background(), uuid.NewString(), hold.ID)
	assert.ErrorIs(t, err, entity.ErrNotAuthorized)
}

func TestReleaseExpiredHolds_SweepsOnlyExpired(t *testing.T) {
	f := newBookingFixture(t, holdsEnabledConfig(time.Nanosecond))

	_, err := f.service.CreateHold(context.Background(), f.userID, &request.CreateHoldRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1", "B2"},
	})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	released, err := f.service.ReleaseExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B1"))
	assert.Equal(t, entity.SeatStatusAvailable, f.seatStatus(t, "B2"))

	// Nothing left to sweep.
	released, err = f.service.ReleaseExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

// ==================== ADMIN ====================

func TestGetBookingByID(t *testing.T) {
	f := newBookingFixture(t, defaultBookingConfig())

	created, err := f.service.CreateBooking(context.Background(), f.userID, &request.CreateBookingRequest{
		ShowingID: f.showing.ID.String(),
		Seats:     []string{"B1"},
	})
	require.NoError(t, err)

	found, err := f.service.GetBookingByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ConfirmationCode, found.ConfirmationCode)

	_, err = f.service.GetBookingByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, entity.ErrBookingNotFound)
}
