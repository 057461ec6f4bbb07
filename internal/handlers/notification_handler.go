package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
	now           func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, now: time.Now}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread", h.GetUnread)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	notifications, err := h.notifications.List(c.Request().Context(), p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": notifications},
		"meta":    pageMeta(pg, page, len(notifications)),
	})
}

// GetUnread returns all unread notifications
func (h *NotificationHandler) GetUnread(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	notifications, err := h.notifications.ListUnread(c.Request().Context(), p)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"notifications": notifications}})
}

// GetGroupedNotifications returns the first page of notifications grouped by age
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pg, _ := pageQuery(c)

	notifications, err := h.notifications.List(ctx, p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	unreadCount, err := h.notifications.UnreadCount(ctx, p)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": groupByAge(notifications, h.now()),
			"unreadCount":   unreadCount,
		},
	})
}

// notificationGroups buckets notifications relative to the local calendar day
type notificationGroups struct {
	Today     []services.NotificationView `json:"today"`
	Yesterday []services.NotificationView `json:"yesterday"`
	ThisWeek  []services.NotificationView `json:"thisWeek"`
	Older     []services.NotificationView `json:"older"`
}

func groupByAge(views []services.NotificationView, now time.Time) notificationGroups {
	g := notificationGroups{
		Today:     []services.NotificationView{},
		Yesterday: []services.NotificationView{},
		ThisWeek:  []services.NotificationView{},
		Older:     []services.NotificationView{},
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfYesterday := startOfToday.AddDate(0, 0, -1)
	startOfWeek := startOfToday.AddDate(0, 0, -7)

	for _, v := range views {
		switch t := v.CreatedAt.In(now.Location()); {
		case !t.Before(startOfToday):
			g.Today = append(g.Today, v)
		case !t.Before(startOfYesterday):
			g.Yesterday = append(g.Yesterday, v)
		case !t.Before(startOfWeek):
			g.ThisWeek = append(g.ThisWeek, v)
		default:
			g.Older = append(g.Older, v)
		}
	}
	return g
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnreadCount(c.Request().Context(), p)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	notifID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkAsRead(c.Request().Context(), p, notifID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request().Context(), p)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": updated}})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	notifID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(c.Request().Context(), p, notifID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
