package history

import (
	"net/http"
	"strconv"

	"trip-planner/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler serves the admin view of the trip history.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// ListTrips handles GET /admin/trips?limit=N.
func (h *Handler) ListTrips(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	records, err := h.svc.ListRecent(c.Request().Context(), limit)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list trip history")
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve trip history")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]any{"trips": records, "count": len(records)})
}
