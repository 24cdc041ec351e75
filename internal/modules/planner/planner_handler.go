package planner

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"trip-planner/internal/models"
	"trip-planner/internal/web"
	"trip-planner/pkg/utils"

	"github.com/labstack/echo/v4"
)

const emailSentNotice = "Trip summary sent."

// Handler serves the pages and the JSON API of the trip workflow.
type Handler struct {
	svc ServiceInterface
	now func() time.Time
}

// NewHandler creates a new planner handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Landing(c echo.Context) error {
	return c.Render(http.StatusOK, web.PageLanding, web.NewLandingPage(h.now().Year()))
}

func (h *Handler) ShowForm(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	page := h.formPage(h.svc.State(sid))
	if c.QueryParam("email") == "sent" {
		page.EmailNotice = emailSentNotice
	}
	return c.Render(http.StatusOK, web.PageForm, page)
}

// SubmitForm handles the HTML form post. The request runs in the background
// and the browser is sent back to the form, which shows the loading state.
func (h *Handler) SubmitForm(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var form models.TripForm
	if err := c.Bind(&form); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	fields := fieldsFromForm(form)

	if err := utils.GetValidator().Validate(form); err != nil {
		page := h.formPage(h.svc.State(sid))
		page.Fields = fields
		page.Validation = utils.ValidationMessage(err)
		return c.Render(http.StatusBadRequest, web.PageForm, page)
	}

	h.svc.Submit(sid, fields)
	return c.Redirect(http.StatusSeeOther, "/form")
}

func (h *Handler) EmailSummary(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.EmailSummaryRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}

	status, notice := 0, ""
	if err := utils.GetValidator().Validate(req); err != nil {
		status, notice = http.StatusBadRequest, utils.ValidationMessage(err)
	} else if err := h.svc.EmailSummary(c.Request().Context(), sid, strings.TrimSpace(req.Email)); err != nil {
		status, notice = utils.ServiceErrorStatus(err)
		if status >= http.StatusInternalServerError {
			utils.Logger.WithError(err).Warn("Trip summary email not sent")
		}
		if status == http.StatusInternalServerError {
			status, notice = http.StatusBadGateway, "Could not send the email, please try again later"
		}
	}

	if status != 0 {
		page := h.formPage(h.svc.State(sid))
		page.EmailNotice = notice
		return c.Render(status, web.PageForm, page)
	}
	return c.Redirect(http.StatusSeeOther, "/form?email=sent")
}

func (h *Handler) GetFormState(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, h.stateResponse(h.svc.State(sid)))
}

func (h *Handler) UpdateField(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var req models.FormFieldUpdate
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}

	st, err := h.svc.UpdateField(sid, req.Name, req.Value)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, h.stateResponse(st))
}

// PlanTrip submits a JSON trip form and waits for it to resolve. A failed
// trip request is still a 200: the error is part of the returned state.
func (h *Handler) PlanTrip(c echo.Context) error {
	sid, err := utils.GetSessionIDFromContext(c)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	var form models.TripForm
	if err := c.Bind(&form); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(form); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, utils.ValidationMessage(err))
	}

	started := h.svc.Submit(sid, fieldsFromForm(form))
	st, err := h.svc.Await(c.Request().Context(), sid, started.Generation)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.RespondWithError(c, http.StatusGone, "Session expired")
		}
		return utils.RespondWithError(c, http.StatusGatewayTimeout, "Trip request still in progress")
	}
	return utils.RespondWithJSON(c, http.StatusOK, h.stateResponse(st))
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// StateResponse is the JSON view of a session's workflow.
type StateResponse struct {
	Phase   Phase              `json:"phase"`
	Fields  FormFields         `json:"fields"`
	Loading bool               `json:"loading"`
	Error   string             `json:"error,omitempty"`
	Result  *models.TripResult `json:"result,omitempty"`
}

func (h *Handler) stateResponse(st State) StateResponse {
	resp := StateResponse{Phase: st.Phase(), Fields: st.Fields, Loading: st.Loading}
	if !st.Loading {
		resp.Error = st.Error
		resp.Result = st.Result
	}
	return resp
}

func (h *Handler) formPage(st State) FormPage {
	page := BuildFormPage(st, h.svc.ResolveAsset)
	page.EmailEnabled = h.svc.EmailEnabled()
	return page
}

func fieldsFromForm(f models.TripForm) FormFields {
	return FormFields{
		CurrentLocation: f.CurrentLocation,
		PickupLocation:  f.PickupLocation,
		DropoffLocation: f.DropoffLocation,
		CycleUsed:       strings.TrimSpace(f.CycleUsed),
	}
}
