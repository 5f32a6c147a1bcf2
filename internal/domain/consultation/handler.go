package consultation

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
	doctors := api.Group("", auth.RequireRole("physician"))
	doctors.GET("/consultations/:id", h.Get)
	doctors.PUT("/consultations/:id", h.Update)
	doctors.POST("/consultations/:id/complete", h.Complete)
	doctors.GET("/visits/:id/consultation", h.GetByVisit)

	clinical := api.Group("", auth.RequireRole("physician", "nurse"))
	clinical.POST("/visits/:id/vitals", h.RecordVitals)
	clinical.GET("/visits/:id/vitals", h.VitalsByVisit)
	clinical.POST("/patients/:id/allergies", h.AddAllergy)
	clinical.GET("/patients/:id/allergies", h.ListAllergies)
	clinical.POST("/patients/:id/history", h.AddHistory)
	clinical.GET("/patients/:id/history", h.ListHistory)
	clinical.GET("/patients/:id/consultations", h.ListByPatient)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid consultation id")
	}
	cons, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) GetByVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	cons, err := h.svc.GetByVisit(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid consultation id")
	}
	var upd ClinicalUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	cons, err := h.svc.Update(c.Request().Context(), id, upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid consultation id")
	}
	cons, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "consultation": cons})
}

func (h *Handler) RecordVitals(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	var v Vitals
	if err := c.Bind(&v); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	v.VisitID = id
	v.RecordedBy = auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RecordVitals(c.Request().Context(), &v); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) VitalsByVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid visit id")
	}
	vitals, err := h.svc.VitalsByVisit(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vitals)
}

func (h *Handler) AddAllergy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	var a Allergy
	if err := c.Bind(&a); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	a.PatientID = id
	a.NotedBy = auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.AddAllergy(c.Request().Context(), &a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAllergies(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	allergies, err := h.svc.ListAllergies(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, allergies)
}

func (h *Handler) AddHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	var entry HistoryEntry
	if err := c.Bind(&entry); err != nil {
		return apperr.Validation("invalid_body", "invalid request body")
	}
	entry.PatientID = id
	entry.NotedBy = auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.AddHistory(c.Request().Context(), &entry); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) ListHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	history, err := h.svc.ListHistory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid_id", "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
