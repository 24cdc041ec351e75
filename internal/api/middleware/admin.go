package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

// AdminBasicAuth guards admin routes with HTTP basic auth against a bcrypt
// password hash. An empty hash rejects everyone.
func AdminBasicAuth(username, passwordHash string) echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: "trip-planner admin",
		Validator: func(user, password string, c echo.Context) (bool, error) {
			if passwordHash == "" {
				return false, nil
			}
			if subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 {
				return false, nil
			}
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil, nil
		},
	})
}
