package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SubscriptionHandler handles subscribe/unsubscribe HTTP requests
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// RegisterSubscriptionRoutes registers subscription-related routes
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/subscriptions/:userId", h.Subscribe)
	g.DELETE("/subscriptions/:userId", h.Unsubscribe)
	g.GET("/subscriptions/:userId/status", h.Status)
	g.GET("/users/:id/subscribers", h.Subscribers)
	g.GET("/users/:id/subscriptions", h.Subscriptions)
}

// Subscribe subscribes the caller to a user
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "userId")
	if err != nil {
		return err
	}

	if err := h.subscriptions.Subscribe(c.Request().Context(), p, targetID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": true}})
}

// Unsubscribe removes the caller's subscription to a user
func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "userId")
	if err != nil {
		return err
	}

	if err := h.subscriptions.Unsubscribe(c.Request().Context(), p, targetID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": false}})
}

// Status reports whether the caller subscribes to a user
func (h *SubscriptionHandler) Status(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "userId")
	if err != nil {
		return err
	}

	ok, err := h.subscriptions.IsSubscribed(c.Request().Context(), p, targetID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscribed": ok}})
}

func (h *SubscriptionHandler) Subscribers(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.subscriptions.Subscribers(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

func (h *SubscriptionHandler) Subscriptions(c echo.Context) error {
	userID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	users, err := h.subscriptions.Subscriptions(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}
