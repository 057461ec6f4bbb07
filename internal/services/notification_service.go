package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// NotificationService is the recipient's inbox. Rows are only created by the fan-out engine.
type NotificationService struct {
	base
}

func NewNotificationService(repos Repositories, logger *slog.Logger) *NotificationService {
	return &NotificationService{base: newBase(repos, logger)}
}

func (s *NotificationService) List(ctx context.Context, p models.Principal, page Page) ([]NotificationView, error) {
	rows, err := s.repos.Notifications.GetNotificationsByUserID(ctx, p.ID, page)
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return s.views(ctx, rows)
}

func (s *NotificationService) ListUnread(ctx context.Context, p models.Principal) ([]NotificationView, error) {
	rows, err := s.repos.Notifications.GetUnreadNotifications(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load unread notifications: %w", err)
	}
	return s.views(ctx, rows)
}

func (s *NotificationService) UnreadCount(ctx context.Context, p models.Principal) (int64, error) {
	n, err := s.repos.Notifications.CountUnread(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, p models.Principal, id uint) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.repos.Notifications.MarkNotificationRead(ctx, id); err != nil {
		return lookupErr(err, "notification", id)
	}
	return nil
}

// MarkAllAsRead returns how many notifications changed state
func (s *NotificationService) MarkAllAsRead(ctx context.Context, p models.Principal) (int64, error) {
	n, err := s.repos.Notifications.MarkAllNotificationsRead(ctx, p.ID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, p models.Principal, id uint) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.repos.Notifications.DeleteNotification(ctx, id); err != nil {
		return lookupErr(err, "notification", id)
	}
	return nil
}

func (s *NotificationService) owned(ctx context.Context, p models.Principal, id uint) (*models.Notification, error) {
	n, err := s.repos.Notifications.GetNotificationByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "notification", id)
	}
	if err := authz.RequireOwner(p.ID, n.UserID, "notifications"); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) views(ctx context.Context, rows []models.Notification) ([]NotificationView, error) {
	var userIDs []uint
	previews := make(map[uint]string)
	for _, n := range rows {
		if n.RelatedUserID != nil {
			userIDs = append(userIDs, *n.RelatedUserID)
		}
		if n.RelatedPostID != nil {
			previews[*n.RelatedPostID] = ""
		}
	}

	users, err := s.loadUsers(ctx, uniq(userIDs))
	if err != nil {
		return nil, err
	}
	for id := range previews {
		post, err := s.repos.Posts.GetPostByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load post %d: %w", id, err)
		}
		previews[id] = preview(post.Content)
	}

	views := make([]NotificationView, len(rows))
	for i, n := range rows {
		v := NotificationView{
			ID:            n.ID,
			Message:       n.Message,
			Type:          n.Type,
			Read:          n.Read,
			CreatedAt:     n.CreatedAt,
			RelatedPostID: n.RelatedPostID,
		}
		if n.RelatedPostID != nil {
			v.RelatedPostPreview = previews[*n.RelatedPostID]
		}
		if n.RelatedUserID != nil {
			if u, ok := users[*n.RelatedUserID]; ok {
				c := u.ToCompact()
				v.RelatedUser = &c
			}
		}
		views[i] = v
	}
	return views, nil
}
