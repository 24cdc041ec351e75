package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trip-planner/internal/api/middleware"
	"trip-planner/internal/models"
	"trip-planner/internal/modules/planner"
	"trip-planner/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{}

func (stubClient) PlanTrip(context.Context, models.TripRequest) (*models.TripResult, error) {
	return &models.TripResult{Compliance: "Compliant"}, nil
}

func (stubClient) ResolveAsset(ref string) string { return ref }

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	r, err := web.NewRenderer()
	require.NoError(t, err)
	e.Renderer = r

	svc := planner.NewService(stubClient{}, nil, nil, nil)
	SetupRoutes(e, planner.NewHandler(svc), nil, RouteConfig{
		Session: middleware.SessionConfig{Secret: "secret", TTL: time.Hour},
	})
	return e
}

func TestRoutesServePages(t *testing.T) {
	e := newTestServer(t)

	for _, path := range []string{"/", "/form", "/health", "/api/form"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestFormSubmitRoundTripsThroughSessionCookie(t *testing.T) {
	e := newTestServer(t)

	body := "current_location=Chicago%2C+IL&pickup_location=Milwaukee%2C+WI&dropoff_location=Minneapolis%2C+MN&cycle_used=12.5"
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var session *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName {
			session = ck
		}
	}
	require.NotNil(t, session)

	assert.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/form", nil)
		req.AddCookie(session)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return strings.Contains(rec.Body.String(), `"phase":"success"`)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAdminRoutesAbsentWithoutHistory(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/trips", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
