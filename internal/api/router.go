package api

import (
	"trip-planner/internal/api/middleware"
	"trip-planner/internal/modules/history"
	"trip-planner/internal/modules/planner"

	"github.com/labstack/echo/v4"
)

// RouteConfig carries the settings the routes and their middleware need.
type RouteConfig struct {
	Session           middleware.SessionConfig
	AdminUsername     string
	AdminPasswordHash string
}

// SetupRoutes sets up all the endpoints for the application. historyHandler
// may be nil, in which case the admin routes are not registered.
func SetupRoutes(
	e *echo.Echo,
	plannerHandler *planner.Handler,
	historyHandler *history.Handler,
	cfg RouteConfig,
) {
	sessionRequired := middleware.Session(cfg.Session)

	// --- Public Routes ---
	e.GET("/health", plannerHandler.Health)
	e.GET("/", plannerHandler.Landing)

	// --- Trip form pages ---
	formGroup := e.Group("/form", sessionRequired)
	{
		formGroup.GET("", plannerHandler.ShowForm)
		formGroup.POST("", plannerHandler.SubmitForm)
		formGroup.POST("/email", plannerHandler.EmailSummary)
	}

	// --- JSON API ---
	apiGroup := e.Group("/api", sessionRequired)
	{
		apiGroup.GET("/form", plannerHandler.GetFormState)
		apiGroup.PUT("/form/fields", plannerHandler.UpdateField)
		apiGroup.POST("/trip", plannerHandler.PlanTrip)
	}

	// --- Admin Routes ---
	if historyHandler != nil {
		adminGroup := e.Group("/admin", middleware.AdminBasicAuth(cfg.AdminUsername, cfg.AdminPasswordHash))
		adminGroup.GET("/trips", historyHandler.ListTrips)
	}
}
