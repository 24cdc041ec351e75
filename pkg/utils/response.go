package utils

import (
	"errors"
	"net/http"

	"trip-planner/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithError writes a JSON error body with the given status.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// RespondWithJSON writes a successful JSON response.
func RespondWithJSON(c echo.Context, status int, payload any) error {
	return c.JSON(status, payload)
}

// ServiceErrorStatus maps a service error to an HTTP status and message.
func ServiceErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, models.ErrUnknownField):
		return http.StatusBadRequest, "Unknown form field"
	case errors.Is(err, models.ErrNoResult):
		return http.StatusConflict, "Plan a trip first"
	case errors.Is(err, models.ErrFeatureDisabled):
		return http.StatusServiceUnavailable, "This feature is not enabled"
	case errors.Is(err, models.ErrRequestFailed):
		return http.StatusBadGateway, models.DisplayMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// HandleServiceError logs unexpected errors and responds with the mapped status.
func HandleServiceError(c echo.Context, err error) error {
	status, msg := ServiceErrorStatus(err)
	if status >= http.StatusInternalServerError {
		Logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
	}
	return RespondWithError(c, status, msg)
}
