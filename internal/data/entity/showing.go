package entity

import (
	"fmt"
	"time"
)

type SeatCategory string

const (
	SeatCategoryRegular    SeatCategory = "regular"
	SeatCategoryVIP        SeatCategory = "vip"
	SeatCategoryAccessible SeatCategory = "accessible"
)

// SeatID identifies a seat within a showing, e.g. "A1", "C12".
type SeatID string

// Showing is a single bookable instance: a title at a venue at a time,
// with a fixed seat map and per-category prices. Immutable once created
// except by administrative edit; never mutated by the booking flow.
type Showing struct {
	Base
	Title     string    `db:"title"`
	VenueName string    `db:"venue_name"`
	StartsAt  time.Time `db:"starts_at"`
	SeatMap   SeatMap
}

// SeatMap is the fixed seat grid of a showing. Row labels run A, B, C, ...
// top to bottom; seat numbers run 1..SeatsPerRow. VIPRows and AccessibleRows
// assign categories at showing-creation time; everything else is regular.
type SeatMap struct {
	Rows           int                      `db:"rows"`
	SeatsPerRow    int                      `db:"seats_per_row"`
	VIPRows        []string                 `db:"vip_rows"`
	AccessibleRows []string                 `db:"accessible_rows"`
	Prices         map[SeatCategory]float64 `db:"prices"`
}

// RowLabel returns the label of the i-th row (0-based): 0 -> "A".
func RowLabel(i int) string {
	return string(rune('A' + i))
}

// SeatIDFor builds the canonical seat identifier for a row label and number.
func SeatIDFor(row string, number int) SeatID {
	return SeatID(fmt.Sprintf("%s%d", row, number))
}

// Contains reports whether the given seat identifier exists in the map.
func (m *SeatMap) Contains(id SeatID) bool {
	_, ok := m.categoryOf(id)
	return ok
}

// CategoryOf returns the category of a seat, or false when the seat
// identifier is not part of the map.
func (m *SeatMap) CategoryOf(id SeatID) (SeatCategory, bool) {
	return m.categoryOf(id)
}

func (m *SeatMap) categoryOf(id SeatID) (SeatCategory, bool) {
	s := string(id)
	if len(s) < 2 {
		return "", false
	}
	row := s[:1]
	num := 0
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return "", false
		}
		num = num*10 + int(c-'0')
	}
	rowIdx := int(row[0] - 'A')
	if rowIdx < 0 || rowIdx >= m.Rows || num < 1 || num > m.SeatsPerRow {
		return "", false
	}
	for _, r := range m.VIPRows {
		if r == row {
			return SeatCategoryVIP, true
		}
	}
	for _, r := range m.AccessibleRows {
		if r == row {
			return SeatCategoryAccessible, true
		}
	}
	return SeatCategoryRegular, true
}

// PriceOf returns the price of a seat from the showing's price table.
// Unknown seats return false.
func (m *SeatMap) PriceOf(id SeatID) (float64, bool) {
	cat, ok := m.categoryOf(id)
	if !ok {
		return 0, false
	}
	return m.Prices[cat], true
}

// AllSeats enumerates every seat identifier in the map in row order.
func (m *SeatMap) AllSeats() []SeatID {
	seats := make([]SeatID, 0, m.Rows*m.SeatsPerRow)
	for r := 0; r < m.Rows; r++ {
		row := RowLabel(r)
		for n := 1; n <= m.SeatsPerRow; n++ {
			seats = append(seats, SeatIDFor(row, n))
		}
	}
	return seats
}
