package services

import (
	"context"
	"strings"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFanoutEnv(t *testing.T) *testEnv {
	t.Helper()
	store := inmemory.New()
	engine := fanout.NewEngine(store, fanout.WithLogger(quietLogger()))
	return newTestEnvWith(store, storeRepos(store), engine)
}

func TestNotificationInbox(t *testing.T) {
	env := newFanoutEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	liker := env.user(t, "liker")
	long := strings.Repeat("é", 150)
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: long})
	require.NoError(t, err)

	_, err = env.posts.ToggleLike(ctx, liker, post.ID)
	require.NoError(t, err)
	require.NoError(t, env.subs.Subscribe(ctx, liker, owner.ID))

	count, err := env.notes.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := env.notes.List(ctx, owner, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	var like NotificationView
	for _, v := range list {
		if v.Type == models.NotificationNewLike {
			like = v
		}
	}
	assert.Equal(t, "liker liked your post", like.Message)
	assert.Equal(t, strings.Repeat("é", 100)+"...", like.RelatedPostPreview)
	require.NotNil(t, like.RelatedUser)
	assert.Equal(t, "liker", like.RelatedUser.Username)

	requireKind(t, env.notes.MarkAsRead(ctx, liker, like.ID), errs.KindForbidden)
	requireKind(t, env.notes.MarkAsRead(ctx, owner, 9999), errs.KindNotFound)
	require.NoError(t, env.notes.MarkAsRead(ctx, owner, like.ID))

	unread, err := env.notes.ListUnread(ctx, owner)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, models.NotificationNewSubscriber, unread[0].Type)

	n, err := env.notes.MarkAllAsRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	requireKind(t, env.notes.Delete(ctx, liker, like.ID), errs.KindForbidden)
	require.NoError(t, env.notes.Delete(ctx, owner, like.ID))
	requireKind(t, env.notes.Delete(ctx, owner, like.ID), errs.KindNotFound)
}

func TestNotificationsRemovedWithPost(t *testing.T) {
	env := newFanoutEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	commenter := env.user(t, "commenter")
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "p"})
	require.NoError(t, err)
	_, err = env.posts.AddComment(ctx, commenter, post.ID, models.CommentRequest{Content: "c"})
	require.NoError(t, err)

	count, _ := env.notes.UnreadCount(ctx, owner)
	require.Equal(t, int64(1), count)

	require.NoError(t, env.posts.DeletePost(ctx, owner, post.ID))
	count, _ = env.notes.UnreadCount(ctx, owner)
	assert.Zero(t, count)
}
