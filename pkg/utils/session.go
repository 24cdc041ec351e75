package utils

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// SessionContextKey is where the session middleware stores the session id.
const SessionContextKey = "sessionID"

var errNoSession = errors.New("no session bound to request")

// GetSessionIDFromContext returns the session id set by the session middleware.
func GetSessionIDFromContext(c echo.Context) (string, error) {
	id, ok := c.Get(SessionContextKey).(string)
	if !ok || id == "" {
		return "", errNoSession
	}
	return id, nil
}
