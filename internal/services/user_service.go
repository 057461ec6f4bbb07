package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
)

const searchLimit = 20

// UserService serves public profiles
type UserService struct {
	base
}

func NewUserService(repos Repositories, logger *slog.Logger) *UserService {
	return &UserService{base: newBase(repos, logger)}
}

// GetProfile returns a profile with counts computed by aggregate queries
func (s *UserService) GetProfile(ctx context.Context, viewer models.Principal, userID uint) (*ProfileView, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, viewer, u)
}

func (s *UserService) profile(ctx context.Context, viewer models.Principal, u *models.User) (*ProfileView, error) {
	v := &ProfileView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		IsSelf:      viewer.ID == u.ID,
	}

	var err error
	if v.PostsCount, err = s.repos.Posts.CountPostsByUserID(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if v.SubscribersCount, err = s.repos.Subscriptions.CountSubscribers(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	if v.SubscriptionsCount, err = s.repos.Subscriptions.CountSubscriptions(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	if viewer.ID != 0 && !v.IsSelf {
		if v.IsSubscribed, err = s.repos.Subscriptions.IsSubscribed(ctx, viewer.ID, u.ID); err != nil {
			return nil, fmt.Errorf("check subscription: %w", err)
		}
	}
	return v, nil
}

// UpdateProfile edits the principal's own display name and bio
func (s *UserService) UpdateProfile(ctx context.Context, p models.Principal, userID uint, in models.UpdateProfileRequest) (*ProfileView, error) {
	if !authz.CanModify(p.ID, userID) {
		return nil, errs.Forbidden("you can only update your own profile")
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		u.DisplayName = *in.DisplayName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if err := s.repos.Users.UpdateProfile(ctx, u.ID, u.DisplayName, u.Bio); err != nil {
		return nil, lookupErr(err, "user", userID)
	}
	return s.profile(ctx, p, u)
}

// Search matches usernames and display names, excluding banned accounts
func (s *UserService) Search(ctx context.Context, viewer models.Principal, query string) ([]models.UserCompact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.InvalidInput("q", "is required")
	}
	users, err := s.repos.Users.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, nil
}
