package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.user(t, "u")

	_, err := env.admin.ListUsers(ctx, u, Page{})
	requireKind(t, err, errs.KindForbidden)
	requireKind(t, env.admin.BanUser(ctx, u, u.ID), errs.KindForbidden)
	requireKind(t, env.admin.DeleteUser(ctx, u, u.ID), errs.KindForbidden)
	requireKind(t, env.admin.DeletePost(ctx, u, 1), errs.KindForbidden)
	_, err = env.admin.ListReports(ctx, u, Page{})
	requireKind(t, err, errs.KindForbidden)
}

func TestAdmin_BanAndModerate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminUser(t, "root")
	author := env.user(t, "author")
	post, err := env.posts.CreatePost(ctx, author, models.PostRequest{Content: "p"})
	require.NoError(t, err)

	require.NoError(t, env.admin.BanUser(ctx, admin, author.ID))
	stored, _ := env.store.GetUserByID(ctx, author.ID)
	assert.True(t, stored.Banned)
	requireKind(t, env.admin.BanUser(ctx, admin, 999), errs.KindNotFound)

	users, err := env.admin.ListUsers(ctx, admin, Page{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[1].PostsCount)

	posts, err := env.admin.ListPosts(ctx, admin, Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, env.admin.DeletePost(ctx, admin, post.ID))
	requireKind(t, env.admin.DeletePost(ctx, admin, post.ID), errs.KindNotFound)

	require.NoError(t, env.admin.UnbanUser(ctx, admin, author.ID))
	stored, _ = env.store.GetUserByID(ctx, author.ID)
	assert.False(t, stored.Banned)
}

func TestAdmin_Reports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminUser(t, "root")
	a := env.user(t, "a")
	b := env.user(t, "b")

	_, err := env.admin.CreateReport(ctx, a, models.CreateReportRequest{ReportedUserID: a.ID, Reason: "me"})
	requireKind(t, err, errs.KindForbidden)
	_, err = env.admin.CreateReport(ctx, a, models.CreateReportRequest{ReportedUserID: 999, Reason: "ghost"})
	requireKind(t, err, errs.KindNotFound)
	_, err = env.admin.CreateReport(ctx, a, models.CreateReportRequest{ReportedUserID: b.ID, Reason: " "})
	requireKind(t, err, errs.KindInvalidInput)

	r, err := env.admin.CreateReport(ctx, a, models.CreateReportRequest{ReportedUserID: b.ID, Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, "b", r.ReportedUser.Username)

	reports, err := env.admin.ListReports(ctx, admin, Page{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "a", reports[0].Reporter.Username)

	require.NoError(t, env.admin.DeleteReport(ctx, admin, r.ID))
	requireKind(t, env.admin.DeleteReport(ctx, admin, r.ID), errs.KindNotFound)
}

func TestAdmin_DeleteUserCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.adminUser(t, "root")
	a := env.user(t, "a")
	b := env.user(t, "b")
	require.NoError(t, env.subs.Subscribe(ctx, a, b.ID))
	_, err := env.posts.CreatePost(ctx, b, models.PostRequest{Content: "p"})
	require.NoError(t, err)

	require.NoError(t, env.admin.DeleteUser(ctx, admin, b.ID))
	requireKind(t, env.admin.DeleteUser(ctx, admin, b.ID), errs.KindNotFound)

	feed, err := env.posts.GetFeed(ctx, a, Page{})
	require.NoError(t, err)
	assert.Empty(t, feed)
	n, _ := env.store.CountSubscriptions(ctx, a.ID)
	assert.Zero(t, n)
}
