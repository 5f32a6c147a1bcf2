package appointment

import (
	"net/http"
	"time"

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
	registrars := api.Group("", auth.RequireRole("registrar"))
	registrars.POST("/appointments", h.Book)
	registrars.PUT("/appointments/:id/confirm", h.Confirm)
	registrars.PUT("/appointments/:id/cancel", h.Cancel)
	registrars.PUT("/appointments/:id/reschedule", h.Reschedule)
	registrars.PUT("/appointments/:id/no-show", h.MarkNoShow)

	readers := api.Group("", auth.RequireRole("registrar", "physician", "nurse"))
	readers.GET("/appointments", h.List)
	readers.GET("/appointments/:id", h.Get)
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	if err := h.svc.Book(c.Request().Context(), &a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	a, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	a, err := h.svc.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, req.ScheduledAt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	a, err := h.svc.MarkNoShow(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f ListFilter
	if day := c.QueryParam("date"); day != "" {
		d, err := time.Parse("2006-01-02", day)
		if err != nil {
			return apperr.Validation("invalid_date", "date must be YYYY-MM-DD")
		}
		f.Day = &d
	}
	if doctorID := c.QueryParam("doctor_id"); doctorID != "" {
		id, err := uuid.Parse(doctorID)
		if err != nil {
			return apperr.Validation("invalid_doctor_id", "invalid doctor_id")
		}
		f.DoctorID = &id
	}
	if patientID := c.QueryParam("patient_id"); patientID != "" {
		id, err := uuid.Parse(patientID)
		if err != nil {
			return apperr.Validation("invalid_patient_id", "invalid patient_id")
		}
		f.PatientID = &id
	}
	f.Status = Status(c.QueryParam("status"))

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
