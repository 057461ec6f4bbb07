package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ReportHandler lets users report other users to the moderators
type ReportHandler struct {
	admin *services.AdminService
}

func NewReportHandler(admin *services.AdminService) *ReportHandler {
	return &ReportHandler{admin: admin}
}

func (h *ReportHandler) RegisterReportRoutes(g *echo.Group) {
	g.POST("/reports", h.CreateReport)
}

func (h *ReportHandler) CreateReport(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req models.CreateReportRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := h.admin.CreateReport(c.Request().Context(), p, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, report)
}
