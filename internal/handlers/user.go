package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)       // own profile
	g.GET("/users/search", h.SearchUsers) // ?q=
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/:id", h.UpdateProfile)
}

// GetUser returns another user's profile with counters and subscription state
func (h *UserHandler) GetUser(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.users.GetProfile(c.Request().Context(), p, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	profile, err := h.users.GetProfile(c.Request().Context(), p, p.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile updates display name and bio; users may only edit themselves
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.users.UpdateProfile(c.Request().Context(), p, id, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// SearchUsers matches usernames and display names
func (h *UserHandler) SearchUsers(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	users, err := h.users.Search(c.Request().Context(), p, c.QueryParam("q"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, users)
}
