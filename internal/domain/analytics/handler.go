package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicware/clinic-api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "registrar", "physician"))
	g.GET("/analytics/dashboard", h.Dashboard)
}

func (h *Handler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.TodayDashboard(c.Request().Context()))
}
