// Package services implements the engagement and notification core.
// Every operation takes the calling principal explicitly; none reads identity from ambient state.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/dataloader"
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/validators"
)

// Page bounds list operations. A zero Limit means no bound.
type Page = repositories.Page

// EventPublisher accepts domain events for asynchronous fan-out
type EventPublisher interface {
	Publish(ctx context.Context, evt fanout.Event)
}

// Repositories groups the persistence collaborators shared by all services
type Repositories struct {
	Users         repositories.UserRepository
	Posts         repositories.PostRepository
	Comments      repositories.CommentRepository
	Likes         repositories.LikeRepository
	Subscriptions repositories.SubscriptionRepository
	Notifications repositories.NotificationRepository
	Reports       repositories.ReportRepository
}

// base carries what every service needs
type base struct {
	repos    Repositories
	validate *validators.Validator
	logger   *slog.Logger
}

func newBase(repos Repositories, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{repos: repos, validate: validators.NewValidator(), logger: logger}
}

func actorOf(p models.Principal) fanout.Actor {
	return fanout.Actor{ID: p.ID, Username: p.Username}
}

// lookupErr turns a repository miss into NotFound and wraps anything else
func lookupErr(err error, entity string, id any) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return errs.NotFound(entity, id)
	}
	return fmt.Errorf("load %s %v: %w", entity, id, err)
}

func (b base) getUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := b.repos.Users.GetUserByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return u, nil
}

func (b base) getPost(ctx context.Context, id uint) (*models.Post, error) {
	p, err := b.repos.Posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "post", id)
	}
	return p, nil
}

// loadUsers goes through the request loader when one is attached
func (b base) loadUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	if len(ids) == 0 {
		return map[uint]models.User{}, nil
	}
	if l := dataloader.For(ctx); l != nil {
		return l.LoadUsers(ctx, ids)
	}
	list, err := b.repos.Users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make(map[uint]models.User, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

func compact(users map[uint]models.User, id uint) models.UserCompact {
	if u, ok := users[id]; ok {
		return u.ToCompact()
	}
	return models.UserCompact{ID: id}
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
