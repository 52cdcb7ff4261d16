package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"dronedispatch/internal/fleet"
)

// respondError translates fleet sentinel errors to HTTP status codes.
// Conflicts of every flavor (wrong state, no battery, out of range, no
// capacity, lost race) map to 409 so callers can treat them uniformly as
// "not now, not this drone".
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, fleet.ErrInvalidState),
		errors.Is(err, fleet.ErrInsufficientBattery),
		errors.Is(err, fleet.ErrOutOfRange),
		errors.Is(err, fleet.ErrNoCapacity),
		errors.Is(err, fleet.ErrNoSuitableDrone),
		errors.Is(err, fleet.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}
