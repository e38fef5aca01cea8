package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	ConfirmationCode string               `json:"confirmation_code"`
	UserID           string               `json:"user_id"`
	ShowingID        string               `json:"showing_id"`
	Title            string               `json:"title,omitempty"`
	VenueName        string               `json:"venue_name,omitempty"`
	StartsAt         *time.Time           `json:"starts_at,omitempty"`
	Seats            []string             `json:"seats"`
	TotalPrice       float64              `json:"total_price"`
	Status           entity.BookingStatus `json:"status"`
	CreatedAt        time.Time            `json:"created_at"`
}

type HoldResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	ShowingID string    `json:"showing_id"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Helper converters

func BookingToResponse(booking *entity.Booking, showing *entity.Showing) BookingResponse {
	resp := BookingResponse{
		ID:               booking.ID.String(),
		ConfirmationCode: booking.ConfirmationCode,
		UserID:           booking.UserID.String(),
		ShowingID:        booking.ShowingID.String(),
		Seats:            seatLabels(booking.Seats),
		TotalPrice:       booking.TotalPrice,
		Status:           booking.Status,
		CreatedAt:        booking.CreatedAt,
	}

	if showing != nil {
		resp.Title = showing.Title
		resp.VenueName = showing.VenueName
		startsAt := showing.StartsAt
		resp.StartsAt = &startsAt
	}

	return resp
}

func HoldToResponse(hold *entity.SeatHold) HoldResponse {
	return HoldResponse{
		ID:        hold.ID.String(),
		Token:     hold.Token,
		ShowingID: hold.ShowingID.String(),
		Seats:     seatLabels(hold.Seats),
		ExpiresAt: hold.ExpiresAt,
		CreatedAt: hold.CreatedAt,
	}
}

func seatLabels(seats []entity.SeatID) []string {
	labels := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = string(s)
	}
	return labels
}
