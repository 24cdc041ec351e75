package middleware

import (
	"net/http"
	"time"

	"trip-planner/internal/models"
	"trip-planner/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "trip_session"

// SessionConfig configures the session middleware.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	SecureCookie bool
	Now          func() time.Time // defaults to time.Now
}

// NewSessionToken signs a session token for sessionID.
func NewSessionToken(secret, sessionID string, ttl time.Duration, now time.Time) (string, error) {
	claims := &models.SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Session binds every request to a session id. A valid cookie is honoured;
// a missing, expired or tampered one gets a fresh session instead of an error.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	issue := func(c echo.Context) error {
		sid := uuid.NewString()
		token, err := NewSessionToken(cfg.Secret, sid, cfg.TTL, now())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Could not start a session").SetInternal(err)
		}
		c.SetCookie(&http.Cookie{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(cfg.TTL.Seconds()),
			HttpOnly: true,
			Secure:   cfg.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(utils.SessionContextKey, sid)
		return nil
	}

	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.SessionClaims)
		},
		SigningKey:  []byte(cfg.Secret),
		TokenLookup: "cookie:" + SessionCookieName,
		ContextKey:  "sessionToken",

		SuccessHandler: func(c echo.Context) {
			token := c.Get("sessionToken").(*jwt.Token)
			claims := token.Claims.(*models.SessionClaims)
			if claims.SessionID == "" {
				if err := issue(c); err != nil {
					utils.Logger.WithError(err).Error("Failed to replace session token without an id")
				}
				return
			}
			c.Set(utils.SessionContextKey, claims.SessionID)
		},

		// Any token problem just starts a new session.
		ErrorHandler: func(c echo.Context, err error) error {
			utils.Logger.WithError(err).Debug("Issuing new session")
			if err := issue(c); err != nil {
				utils.Logger.WithError(err).Error("Failed to sign session token")
				return err
			}
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}
