package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// SubscriptionService maintains the directed subscriber -> subscribed_to graph
type SubscriptionService struct {
	base
	events EventPublisher
}

func NewSubscriptionService(repos Repositories, events EventPublisher, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{base: newBase(repos, logger), events: events}
}

// Subscribe adds the edge principal -> target and notifies the target
func (s *SubscriptionService) Subscribe(ctx context.Context, p models.Principal, targetID uint) error {
	if p.ID == targetID {
		return errs.Forbidden("you cannot subscribe to yourself")
	}
	if err := authz.RequireNotBanned(p); err != nil {
		return err
	}
	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Banned {
		return errs.Banned("cannot subscribe to a banned user")
	}

	exists, err := s.repos.Subscriptions.IsSubscribed(ctx, p.ID, targetID)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if exists {
		return errs.Conflict(errs.AlreadySubscribed)
	}

	err = s.repos.Subscriptions.CreateSubscription(ctx, &models.Subscription{SubscriberID: p.ID, SubscribedToID: targetID})
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		return errs.Conflict(errs.AlreadySubscribed)
	case err != nil:
		return fmt.Errorf("create subscription: %w", err)
	}

	s.events.Publish(ctx, fanout.NewSubscriberEvent(actorOf(p), targetID))
	return nil
}

// Unsubscribe removes the edge. It emits no event.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, p models.Principal, targetID uint) error {
	deleted, err := s.repos.Subscriptions.DeleteSubscription(ctx, p.ID, targetID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if !deleted {
		return errs.Conflict(errs.NotSubscribed)
	}
	return nil
}

func (s *SubscriptionService) IsSubscribed(ctx context.Context, p models.Principal, targetID uint) (bool, error) {
	ok, err := s.repos.Subscriptions.IsSubscribed(ctx, p.ID, targetID)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return ok, nil
}

// Subscribers lists the users subscribed to userID
func (s *SubscriptionService) Subscribers(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.repos.Subscriptions.GetSubscriberIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	return s.compactUsers(ctx, ids)
}

// Subscriptions lists the users userID subscribes to
func (s *SubscriptionService) Subscriptions(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := s.repos.Subscriptions.GetSubscriptionIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return s.compactUsers(ctx, ids)
}

func (s *SubscriptionService) compactUsers(ctx context.Context, ids []uint) ([]models.UserCompact, error) {
	users, err := s.loadUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			out = append(out, u.ToCompact())
		}
	}
	return out, nil
}
