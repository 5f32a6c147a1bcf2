package visit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicware/clinic-api/internal/platform/apperr"
	"github.com/clinicware/clinic-api/internal/platform/auth"
	"github.com/clinicware/clinic-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	frontDesk := api.Group("", auth.RequireRole("registrar"))
	frontDesk.POST("/visits", h.CreateWalkIn)
	frontDesk.POST("/appointments/:id/check-in", h.CheckInAppointment)

	triage := api.Group("", auth.RequireRole("registrar", "nurse"))
	triage.POST("/visits/:id/cancel", h.Cancel)
	triage.POST("/visits/:id/no-show", h.MarkNoShow)
	triage.PUT("/visits/:id/triage", h.UpdateTriage)

	doctors := api.Group("", auth.RequireRole("physician"))
	doctors.POST("/visits/:id/claim", h.Claim)
	doctors.POST("/visits/:id/complete", h.Complete)

	readers := api.Group("", auth.RequireRole("registrar", "physician", "nurse"))
	readers.GET("/visits/queue", h.TodayQueue)
	readers.GET("/visits/:id", h.Get)
	readers.GET("/patients/:id/visits", h.ListByPatient)
}

func (h *Handler) CreateWalkIn(c echo.Context) error {
	var in CreateWalkInInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	v, err := h.svc.CreateWalkIn(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":      true,
		"queue_number": v.QueueNumber,
		"visit":        v,
	})
}

func (h *Handler) CheckInAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	v, err := h.svc.CheckInAppointment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success":      true,
		"queue_number": v.QueueNumber,
		"visit":        v,
	})
}

type claimRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) Claim(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	var req claimRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	v, err := h.svc.Claim(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "visit": v})
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	v, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "visit": v})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	v, err := h.svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "visit": v})
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	v, err := h.svc.MarkNoShow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "visit": v})
}

type triageRequest struct {
	Priority Priority `json:"priority"`
}

func (h *Handler) UpdateTriage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	var req triageRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	v, err := h.svc.UpdateTriage(c.Request().Context(), id, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "visit": v})
}

func (h *Handler) TodayQueue(c echo.Context) error {
	scope := QueueScope(c.QueryParam("scope"))
	entries, err := h.svc.TodayQueue(c.Request().Context(), scope)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": len(entries),
	})
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	pg := pagination.FromContext(c)
	visits, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}
