package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type ShowingResponse struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	VenueName      string             `json:"venue_name"`
	StartsAt       time.Time          `json:"starts_at"`
	Rows           int                `json:"rows"`
	SeatsPerRow    int                `json:"seats_per_row"`
	VIPRows        []string           `json:"vip_rows,omitempty"`
	AccessibleRows []string           `json:"accessible_rows,omitempty"`
	Prices         map[string]float64 `json:"prices"`
	CreatedAt      time.Time          `json:"created_at"`
}

type AvailabilityResponse struct {
	ShowingID string             `json:"showing_id"`
	Seats     []SeatAvailability `json:"seats"`
	Prices    map[string]float64 `json:"prices"`
}

type SeatAvailability struct {
	SeatID   string `json:"seat_id"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

func ShowingToResponse(showing *entity.Showing) ShowingResponse {
	prices := make(map[string]float64, len(showing.SeatMap.Prices))
	for category, price := range showing.SeatMap.Prices {
		prices[string(category)] = price
	}

	return ShowingResponse{
		ID:             showing.ID.String(),
		Title:          showing.Title,
		VenueName:      showing.VenueName,
		StartsAt:       showing.StartsAt,
		Rows:           showing.SeatMap.Rows,
		SeatsPerRow:    showing.SeatMap.SeatsPerRow,
		VIPRows:        showing.SeatMap.VIPRows,
		AccessibleRows: showing.SeatMap.AccessibleRows,
		Prices:         prices,
		CreatedAt:      showing.CreatedAt,
	}
}

// AvailabilityToResponse merges the seat map with live ledger state, in
// row order so clients can render the grid directly.
func AvailabilityToResponse(showing *entity.Showing, states map[entity.SeatID]entity.SeatStatus) AvailabilityResponse {
	prices := make(map[string]float64, len(showing.SeatMap.Prices))
	for category, price := range showing.SeatMap.Prices {
		prices[string(category)] = price
	}

	seats := make([]SeatAvailability, 0, len(states))
	for _, seatID := range showing.SeatMap.AllSeats() {
		status, ok := states[seatID]
		if !ok {
			continue
		}
		category, _ := showing.SeatMap.CategoryOf(seatID)
		seats = append(seats, SeatAvailability{
			SeatID:   string(seatID),
			Category: string(category),
			Status:   string(status),
		})
	}

	return AvailabilityResponse{
		ShowingID: showing.ID.String(),
		Seats:     seats,
		Prices:    prices,
	}
}
