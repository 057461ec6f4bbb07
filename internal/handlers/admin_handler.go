package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AdminHandler exposes moderation endpoints. The group is expected to run RequireAdmin;
// the service checks the role again.
type AdminHandler struct {
	admin *services.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// RegisterAdminRoutes registers moderation routes on an admin-only group
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.POST("/users/:id/ban", h.BanUser)
	g.POST("/users/:id/unban", h.UnbanUser)
	g.DELETE("/users/:id", h.DeleteUser)
	g.GET("/posts", h.ListPosts)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/reports", h.ListReports)
	g.DELETE("/reports/:id", h.DeleteReport)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	users, err := h.admin.ListUsers(c.Request().Context(), p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"users": users},
		"meta":    pageMeta(pg, page, len(users)),
	})
}

func (h *AdminHandler) BanUser(c echo.Context) error {
	return h.setBanned(c, true)
}

func (h *AdminHandler) UnbanUser(c echo.Context) error {
	return h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c echo.Context, banned bool) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if banned {
		err = h.admin.BanUser(ctx, p, userID)
	} else {
		err = h.admin.UnbanUser(ctx, p, userID)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"banned": banned}})
}

// DeleteUser removes the account and everything it owns
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.admin.DeleteUser(c.Request().Context(), p, userID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListPosts(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	posts, err := h.admin.ListPosts(c.Request().Context(), p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta":    pageMeta(pg, page, len(posts)),
	})
}

func (h *AdminHandler) DeletePost(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.admin.DeletePost(c.Request().Context(), p, postID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListReports(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	reports, err := h.admin.ListReports(c.Request().Context(), p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"reports": reports},
		"meta":    pageMeta(pg, page, len(reports)),
	})
}

func (h *AdminHandler) DeleteReport(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	reportID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.admin.DeleteReport(c.Request().Context(), p, reportID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
