package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *mockBookingService) CancelBooking(ctx context.Context, userID string, bookingID string) error {
	args := m.Called(ctx, userID, bookingID)
	return args.Error(0)
}

func (m *mockBookingService) GetUserBookings(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.PaginatedResponse[response.BookingResponse]), args.Error(1)
}

func (m *mockBookingService) CreateHold(ctx context.Context, userID string, req *request.CreateHoldRequest) (*response.HoldResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.HoldResponse), args.Error(1)
}

func (m *mockBookingService) ConfirmHold(ctx context.Context, userID string, holdID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, userID, holdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func (m *mockBookingService) ReleaseHold(ctx context.Context, userID string, holdID string) error {
	args := m.Called(ctx, userID, holdID)
	return args.Error(0)
}

func (m *mockBookingService) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.BookingResponse), args.Error(1)
}

func bookingTestRouter(service *mockBookingService) *chi.Mux {
	handler := NewBookingHandler(service, zap.NewNop())
	r := chi.NewRouter()
	r.Post("/api/booking", handler.CreateBooking)
	r.Put("/api/booking/{id}/cancel", handler.CancelBooking)
	r.Get("/api/user/bookings", handler.GetUserBookings)
	r.Post("/api/booking/hold", handler.CreateHold)
	r.Get("/api/admin/bookings/{id}", handler.GetBookingByID)
	return r
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(utils.SetUserContext(req.Context(), userID))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateBookingHandler_Created(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()

	booking := &response.BookingResponse{
		ID:               uuid.NewString(),
		ConfirmationCode: "ABC12345",
		UserID:           userID.String(),
		Seats:            []string{"A1", "A2"},
		TotalPrice:       100000,
		Status:           entity.BookingStatusConfirmed,
	}
	service.On("CreateBooking", mock.Anything, userID.String(), mock.Anything).Return(booking, nil)

	body, _ := json.Marshal(map[string]any{
		"showing_id": uuid.NewString(),
		"seats":      []string{"A1", "A2"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/booking", body, userID))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Status)
	service.AssertExpectations(t)
}

func TestCreateBookingHandler_SeatConflict(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()

	conflict := &entity.UnavailableSeatsError{Seats: []entity.SeatID{"A2"}}
	service.On("CreateBooking", mock.Anything, userID.String(), mock.Anything).Return(nil, conflict)

	body, _ := json.Marshal(map[string]any{
		"showing_id": uuid.NewString(),
		"seats":      []string{"A1", "A2"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/booking", body, userID))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Status bool `json:"status"`
		Errors struct {
			ConflictingSeats []string `json:"conflicting_seats"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Status)
	assert.Equal(t, []string{"A2"}, resp.Errors.ConflictingSeats)
}

func TestCreateBookingHandler_NoIdentity(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)

	body, _ := json.Marshal(map[string]any{
		"showing_id": uuid.NewString(),
		"seats":      []string{"A1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/booking", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "CreateBooking")
}

func TestCreateBookingHandler_InvalidBody(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/booking", []byte("{not json"), uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "CreateBooking")
}

func TestCreateBookingHandler_EmptySeatsFailsValidation(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)

	body, _ := json.Marshal(map[string]any{
		"showing_id": uuid.NewString(),
		"seats":      []string{},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/booking", body, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "CreateBooking")
}

func TestCancelBookingHandler(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()
	bookingID := uuid.NewString()

	service.On("CancelBooking", mock.Anything, userID.String(), bookingID).Return(nil)

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/api/booking/%s/cancel", bookingID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestCancelBookingHandler_NotOwner(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()
	bookingID := uuid.NewString()

	service.On("CancelBooking", mock.Anything, userID.String(), bookingID).
		Return(fmt.Errorf("booking %s: %w", bookingID, entity.ErrNotAuthorized))

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/api/booking/%s/cancel", bookingID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, userID))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelBookingHandler_NotFound(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()
	bookingID := uuid.NewString()

	service.On("CancelBooking", mock.Anything, userID.String(), bookingID).
		Return(fmt.Errorf("booking %s: %w", bookingID, entity.ErrBookingNotFound))

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/api/booking/%s/cancel", bookingID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, userID))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBookingHandler_MalformedIDIsBadRequest(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()

	service.On("CancelBooking", mock.Anything, userID.String(), "not-a-uuid").
		Return(fmt.Errorf("invalid booking ID format %s: %w", "not-a-uuid", errors.New("invalid UUID length")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/api/booking/not-a-uuid/cancel", nil, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingHandler_StoreErrorIsInternal(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()
	bookingID := uuid.NewString()

	// A driver error whose text happens to contain "invalid" is still a
	// server fault, not bad input.
	service.On("CancelBooking", mock.Anything, userID.String(), bookingID).
		Return(fmt.Errorf("cancel booking %s: %w", bookingID,
			errors.New(`ERROR: invalid byte sequence for encoding "UTF8"`)))

	rec := httptest.NewRecorder()
	target := fmt.Sprintf("/api/booking/%s/cancel", bookingID)
	router.ServeHTTP(rec, authedRequest(http.MethodPut, target, nil, userID))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetUserBookingsHandler(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()

	page := response.NewPaginatedResponse([]response.BookingResponse{
		{ID: uuid.NewString(), UserID: userID.String(), Status: entity.BookingStatusConfirmed},
	}, 2, 5, 11)
	service.On("GetUserBookings", mock.Anything, userID.String(),
		&request.PaginatedRequest{Page: 2, PerPage: 5}).Return(page, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/user/bookings?page=2&per_page=5", nil, userID))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestCreateHoldHandler_Disabled(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	userID := uuid.New()

	service.On("CreateHold", mock.Anything, userID.String(), mock.Anything).
		Return(nil, entity.ErrHoldsDisabled)

	body, _ := json.Marshal(map[string]any{
		"showing_id": uuid.NewString(),
		"seats":      []string{"A1"},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/booking/hold", body, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingByIDHandler(t *testing.T) {
	service := new(mockBookingService)
	router := bookingTestRouter(service)
	bookingID := uuid.NewString()

	booking := &response.BookingResponse{ID: bookingID, Status: entity.BookingStatusConfirmed}
	service.On("GetBookingByID", mock.Anything, bookingID).Return(booking, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/admin/bookings/"+bookingID, nil, uuid.New()))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}
