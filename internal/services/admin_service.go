package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
)

// AdminService is the moderation surface. Every method except CreateReport requires the admin role.
type AdminService struct {
	base
	posts *PostService
}

func NewAdminService(repos Repositories, posts *PostService, logger *slog.Logger) *AdminService {
	return &AdminService{base: newBase(repos, logger), posts: posts}
}

func (s *AdminService) ListUsers(ctx context.Context, p models.Principal, page Page) ([]AdminUserView, error) {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return nil, err
	}
	users, err := s.repos.Users.ListUsers(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	views := make([]AdminUserView, 0, len(users))
	for _, u := range users {
		posts, err := s.repos.Posts.CountPostsByUserID(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count posts: %w", err)
		}
		subs, err := s.repos.Subscriptions.CountSubscribers(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count subscribers: %w", err)
		}
		views = append(views, AdminUserView{
			ID:          u.ID,
			Username:    u.Username,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Role:        u.Role,
			Banned:      u.Banned,
			CreatedAt:   u.CreatedAt,
			PostsCount:  posts,
			Subscribers: subs,
		})
	}
	return views, nil
}

func (s *AdminService) BanUser(ctx context.Context, p models.Principal, userID uint) error {
	return s.setBanned(ctx, p, userID, true)
}

func (s *AdminService) UnbanUser(ctx context.Context, p models.Principal, userID uint) error {
	return s.setBanned(ctx, p, userID, false)
}

func (s *AdminService) setBanned(ctx context.Context, p models.Principal, userID uint, banned bool) error {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return err
	}
	if err := s.repos.Users.SetBanned(ctx, userID, banned); err != nil {
		return lookupErr(err, "user", userID)
	}
	s.logger.Info("user ban state changed",
		slog.Uint64("user_id", uint64(userID)),
		slog.Bool("banned", banned),
		slog.Uint64("admin_id", uint64(p.ID)))
	return nil
}

// DeleteUser removes the account and everything it owns
func (s *AdminService) DeleteUser(ctx context.Context, p models.Principal, userID uint) error {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return err
	}
	if err := s.repos.Users.DeleteUserCascade(ctx, userID); err != nil {
		return lookupErr(err, "user", userID)
	}
	s.logger.Info("user deleted", slog.Uint64("user_id", uint64(userID)), slog.Uint64("admin_id", uint64(p.ID)))
	return nil
}

func (s *AdminService) ListPosts(ctx context.Context, p models.Principal, page Page) ([]PostView, error) {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return nil, err
	}
	posts, err := s.repos.Posts.ListAllPosts(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.posts.postViews(ctx, 0, posts)
}

// DeletePost removes any post through the same cascade as an owner delete
func (s *AdminService) DeletePost(ctx context.Context, p models.Principal, postID uint) error {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return err
	}
	if err := s.repos.Posts.DeletePostCascade(ctx, postID); err != nil {
		return lookupErr(err, "post", postID)
	}
	return nil
}

func (s *AdminService) ListReports(ctx context.Context, p models.Principal, page Page) ([]ReportView, error) {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return nil, err
	}
	reports, err := s.repos.Reports.ListReports(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	var ids []uint
	for _, r := range reports {
		ids = append(ids, r.ReporterID, r.ReportedUserID)
	}
	users, err := s.loadUsers(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	views := make([]ReportView, len(reports))
	for i, r := range reports {
		views[i] = reportView(r, users)
	}
	return views, nil
}

func (s *AdminService) DeleteReport(ctx context.Context, p models.Principal, reportID uint) error {
	if err := authz.RequireAdmin(p.Role); err != nil {
		return err
	}
	if err := s.repos.Reports.DeleteReport(ctx, reportID); err != nil {
		return lookupErr(err, "report", reportID)
	}
	return nil
}

// CreateReport files a complaint against another user. Any authenticated user may call it.
func (s *AdminService) CreateReport(ctx context.Context, p models.Principal, in models.CreateReportRequest) (*ReportView, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if in.ReportedUserID == p.ID {
		return nil, errs.Forbidden("you cannot report yourself")
	}
	reporter, err := s.getUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	reported, err := s.getUser(ctx, in.ReportedUserID)
	if err != nil {
		return nil, err
	}

	report := &models.Report{Reason: in.Reason, ReporterID: reporter.ID, ReportedUserID: reported.ID}
	if err := s.repos.Reports.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	v := reportView(*report, map[uint]models.User{reporter.ID: *reporter, reported.ID: *reported})
	return &v, nil
}

func reportView(r models.Report, users map[uint]models.User) ReportView {
	return ReportView{
		ID:           r.ID,
		Reason:       r.Reason,
		Reporter:     compact(users, r.ReporterID),
		ReportedUser: compact(users, r.ReportedUserID),
		CreatedAt:    r.CreatedAt,
	}
}
