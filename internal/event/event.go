// Package event defines the domain events emitted after the transactional
// booking core commits, and their delivery to the message broker. Consumers
// (email, SMS, analytics) are external and at-least-once; a slow or failing
// subscriber can never block or fail a reservation.
package event

import "time"

type BookingConfirmedEvent struct {
	BookingID        string    `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	UserID           string    `json:"user_id"`
	ShowingID        string    `json:"showing_id"`
	Title            string    `json:"title"`
	VenueName        string    `json:"venue_name"`
	StartsAt         time.Time `json:"starts_at"`
	Seats            []string  `json:"seats"`
	TotalPrice       float64   `json:"total_price"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

type BookingCancelledEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	ShowingID   string    `json:"showing_id"`
	Seats       []string  `json:"seats"`
	CancelledAt time.Time `json:"cancelled_at"`
}
