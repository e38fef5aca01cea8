package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

// writeServiceError maps domain errors to HTTP responses. SeatsUnavailable
// is an expected outcome of contention: it answers 409 with the conflicting
// seats so the client can re-select.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var unavailable *entity.UnavailableSeatsError

	switch {
	case errors.As(err, &unavailable):
		log.Info(operation+" lost seat race",
			zap.Strings("conflicting_seats", seatStrings(unavailable.Seats)))
		utils.ResponseConflict(w, err.Error(), map[string]any{
			"conflicting_seats": seatStrings(unavailable.Seats),
		})

	case errors.Is(err, entity.ErrShowingNotFound),
		errors.Is(err, entity.ErrBookingNotFound),
		errors.Is(err, entity.ErrHoldNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, entity.ErrNotAuthorized):
		log.Warn(operation+" failed - not authorized", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, entity.ErrInvalidSeat),
		errors.Is(err, entity.ErrHoldExpired),
		errors.Is(err, entity.ErrHoldsDisabled):
		log.Warn(operation+" failed - invalid input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case isMalformedInput(err):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// inputErrorPrefixes are the messages the services wrap around malformed
// client input (bad UUIDs, bad timestamps, failed struct validation). Only
// these map to 400; any other error text, even one containing "invalid"
// (e.g. a driver's encoding error), stays a 500.
var inputErrorPrefixes = []string{
	"validation failed",
	"invalid user ID format",
	"invalid booking ID format",
	"invalid hold ID format",
	"invalid showing ID format",
	"invalid starts_at",
}

func isMalformedInput(err error) bool {
	msg := err.Error()
	for _, prefix := range inputErrorPrefixes {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}

func seatStrings(seats []entity.SeatID) []string {
	out := make([]string, len(seats))
	for i, s := range seats {
		out[i] = string(s)
	}
	return out
}
