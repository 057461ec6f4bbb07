package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/repositories/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_PublishesToSubscribers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	fan := env.user(t, "fan")
	require.NoError(t, env.subs.Subscribe(ctx, fan, author.ID))

	view, err := env.posts.CreatePost(ctx, author, models.PostRequest{Content: "hello", MediaURL: "/files/a.png", MediaType: models.MediaTypeImage})
	require.NoError(t, err)
	assert.Equal(t, "author", view.Author.Username)
	assert.Equal(t, models.MediaTypeImage, view.MediaType)

	evts := env.events.ofType(models.NotificationNewPost)
	require.Len(t, evts, 1)
	assert.Equal(t, []uint{fan.ID}, evts[0].Recipients)
	require.NotNil(t, evts[0].PostID)
	assert.Equal(t, view.ID, *evts[0].PostID)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")

	_, err := env.posts.CreatePost(context.Background(), author, models.PostRequest{Content: strings.Repeat("x", 5001)})
	requireKind(t, err, errs.KindInvalidInput)

	posts, _ := env.store.ListAllPosts(context.Background(), repositories.Page{})
	assert.Empty(t, posts)
}

func TestBanEnforcement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	bad := banned(env.user(t, "bad"))
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "post"})
	require.NoError(t, err)

	for _, in := range []models.PostRequest{{Content: "fine"}, {Content: ""}, {Content: strings.Repeat("x", 6000)}} {
		_, err := env.posts.CreatePost(ctx, bad, in)
		requireKind(t, err, errs.KindBanned)
	}
	for _, in := range []models.CommentRequest{{Content: "fine"}, {Content: "  "}} {
		_, err := env.posts.AddComment(ctx, bad, post.ID, in)
		requireKind(t, err, errs.KindBanned)
	}
	_, err = env.posts.AddComment(ctx, bad, 9999, models.CommentRequest{Content: "x"})
	requireKind(t, err, errs.KindBanned)

	_, err = env.posts.ToggleLike(ctx, bad, post.ID)
	requireKind(t, err, errs.KindBanned)
}

func TestToggleLike_PairIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	liker := env.user(t, "liker")
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "post"})
	require.NoError(t, err)

	state, err := env.posts.ToggleLike(ctx, liker, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeState{Liked: true, LikesCount: 1}, state)

	likes := env.events.ofType(models.NotificationNewLike)
	require.Len(t, likes, 1)
	assert.Equal(t, []uint{owner.ID}, likes[0].Recipients)
	assert.Equal(t, liker.ID, likes[0].Actor.ID)

	state, err = env.posts.ToggleLike(ctx, liker, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeState{Liked: false, LikesCount: 0}, state)
	assert.Len(t, env.events.ofType(models.NotificationNewLike), 1)
}

func TestToggleLike_SelfLikeEmitsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "post"})
	require.NoError(t, err)

	state, err := env.posts.ToggleLike(ctx, owner, post.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Empty(t, env.events.ofType(models.NotificationNewLike))
}

func TestToggleLike_MissingPost(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.posts.ToggleLike(context.Background(), env.user(t, "u"), 42)
	requireKind(t, err, errs.KindNotFound)
}

// staleLikes always reports "not liked", simulating a concurrent toggle that won the insert
type staleLikes struct {
	*inmemory.Store
}

func (staleLikes) HasUserLikedPost(ctx context.Context, userID, postID uint) (bool, error) {
	return false, nil
}

func TestToggleLike_LostRaceIsSilentNoop(t *testing.T) {
	store := inmemory.New()
	repos := storeRepos(store)
	repos.Likes = staleLikes{store}
	env := newTestEnvWith(store, repos, &recordingPublisher{})
	ctx := context.Background()

	owner := env.user(t, "owner")
	liker := env.user(t, "liker")
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "post"})
	require.NoError(t, err)
	require.NoError(t, store.CreateLike(ctx, &models.Like{UserID: liker.ID, PostID: post.ID}))

	state, err := env.posts.ToggleLike(ctx, liker, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeState{Liked: true, LikesCount: 1}, state)
	assert.Empty(t, env.events.ofType(models.NotificationNewLike))
}

// vanishingPosts deletes a post right after it is loaded, as if its owner removed it mid-request
type vanishingPosts struct {
	*inmemory.Store
}

func (v vanishingPosts) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	post, err := v.Store.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return post, v.Store.DeletePostCascade(ctx, id)
}

func TestEngagementOnPostDeletedMidRequest(t *testing.T) {
	store := inmemory.New()
	repos := storeRepos(store)
	repos.Posts = vanishingPosts{store}
	env := newTestEnvWith(store, repos, &recordingPublisher{})
	ctx := context.Background()
	owner := env.user(t, "owner")
	fan := env.user(t, "fan")

	like := &models.Post{UserID: owner.ID, Content: "liked"}
	require.NoError(t, store.CreatePost(ctx, like))
	_, err := env.posts.ToggleLike(ctx, fan, like.ID)
	requireKind(t, err, errs.KindNotFound)

	comment := &models.Post{UserID: owner.ID, Content: "commented"}
	require.NoError(t, store.CreatePost(ctx, comment))
	_, err = env.posts.AddComment(ctx, fan, comment.ID, models.CommentRequest{Content: "late"})
	requireKind(t, err, errs.KindNotFound)

	liked, err := store.HasUserLikedPost(ctx, fan.ID, like.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	left, err := store.GetCommentsByPostID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Empty(t, env.events.ofType(models.NotificationNewLike))
	assert.Empty(t, env.events.ofType(models.NotificationNewComment))
}

func TestAddComment_NotifiesOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner")
	other := env.user(t, "other")
	post, err := env.posts.CreatePost(ctx, owner, models.PostRequest{Content: "post"})
	require.NoError(t, err)

	_, err = env.posts.AddComment(ctx, owner, post.ID, models.CommentRequest{Content: "mine"})
	require.NoError(t, err)
	assert.Empty(t, env.events.ofType(models.NotificationNewComment))

	view, err := env.posts.AddComment(ctx, other, post.ID, models.CommentRequest{Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "other", view.Author.Username)
	evts := env.events.ofType(models.NotificationNewComment)
	require.Len(t, evts, 1)
	assert.Equal(t, []uint{owner.ID}, evts[0].Recipients)

	_, err = env.posts.AddComment(ctx, other, post.ID, models.CommentRequest{Content: strings.Repeat("c", 1001)})
	requireKind(t, err, errs.KindInvalidInput)

	comments, err := env.posts.GetComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "mine", comments[0].Content)
}

func TestDeletePost_OwnershipAndCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	post, err := env.posts.CreatePost(ctx, b, models.PostRequest{Content: "b's post"})
	require.NoError(t, err)
	_, err = env.posts.AddComment(ctx, a, post.ID, models.CommentRequest{Content: "hi"})
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, a, post.ID)
	require.NoError(t, err)

	err = env.posts.DeletePost(ctx, a, post.ID)
	requireKind(t, err, errs.KindForbidden)
	_, err = env.posts.GetPost(ctx, a, post.ID)
	require.NoError(t, err)

	require.NoError(t, env.posts.DeletePost(ctx, b, post.ID))
	_, err = env.posts.GetPost(ctx, b, post.ID)
	requireKind(t, err, errs.KindNotFound)
	comments, _ := env.store.GetCommentsByPostID(ctx, post.ID)
	assert.Empty(t, comments)
	liked, _ := env.store.HasUserLikedPost(ctx, a.ID, post.ID)
	assert.False(t, liked)

	requireKind(t, env.posts.DeletePost(ctx, b, post.ID), errs.KindNotFound)
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	post, err := env.posts.CreatePost(ctx, a, models.PostRequest{Content: "v1"})
	require.NoError(t, err)

	_, err = env.posts.UpdatePost(ctx, b, post.ID, models.PostRequest{Content: "hijack"})
	requireKind(t, err, errs.KindForbidden)
	_, err = env.posts.UpdatePost(ctx, a, 999, models.PostRequest{Content: "x"})
	requireKind(t, err, errs.KindNotFound)

	updated, err := env.posts.UpdatePost(ctx, a, post.ID, models.PostRequest{Content: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)
}

func TestDeleteComment_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	post, err := env.posts.CreatePost(ctx, a, models.PostRequest{Content: "p"})
	require.NoError(t, err)
	c, err := env.posts.AddComment(ctx, b, post.ID, models.CommentRequest{Content: "c"})
	require.NoError(t, err)

	requireKind(t, env.posts.DeleteComment(ctx, a, c.ID), errs.KindForbidden)
	require.NoError(t, env.posts.DeleteComment(ctx, b, c.ID))
	requireKind(t, env.posts.DeleteComment(ctx, b, c.ID), errs.KindNotFound)
}

func TestGetFeed_Ordering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.user(t, "me")
	a1 := env.user(t, "a1")
	a2 := env.user(t, "a2")
	stranger := env.user(t, "stranger")
	require.NoError(t, env.subs.Subscribe(ctx, me, a1.ID))
	require.NoError(t, env.subs.Subscribe(ctx, me, a2.ID))

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p1 := &models.Post{UserID: a1.ID, Content: "P1", CreatedAt: day.Add(10 * time.Hour)}
	p2 := &models.Post{UserID: a2.ID, Content: "P2", CreatedAt: day.Add(10*time.Hour + 5*time.Minute)}
	own := &models.Post{UserID: me.ID, Content: "own", CreatedAt: day.Add(9 * time.Hour)}
	hidden := &models.Post{UserID: stranger.ID, Content: "hidden", CreatedAt: day.Add(11 * time.Hour)}
	for _, p := range []*models.Post{p1, p2, own, hidden} {
		require.NoError(t, env.store.CreatePost(ctx, p))
	}

	feed, err := env.posts.GetFeed(ctx, me, Page{})
	require.NoError(t, err)
	var contents []string
	for _, v := range feed {
		contents = append(contents, v.Content)
	}
	assert.Equal(t, []string{"P2", "P1", "own"}, contents)

	page, err := env.posts.GetFeed(ctx, me, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "P1", page[0].Content)
}

func TestGetUserPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	viewer := env.user(t, "viewer")
	post, err := env.posts.CreatePost(ctx, a, models.PostRequest{Content: "p"})
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, viewer, post.ID)
	require.NoError(t, err)
	_, err = env.posts.AddComment(ctx, viewer, post.ID, models.CommentRequest{Content: "c"})
	require.NoError(t, err)

	views, err := env.posts.GetUserPosts(ctx, viewer, a.ID, Page{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), views[0].LikesCount)
	assert.Equal(t, int64(1), views[0].CommentsCount)
	assert.True(t, views[0].IsLiked)

	_, err = env.posts.GetUserPosts(ctx, viewer, 999, Page{})
	requireKind(t, err, errs.KindNotFound)
}

func TestSubscriberSetSnapshot(t *testing.T) {
	store := inmemory.New()
	engine := fanout.NewEngine(store, fanout.WithLogger(quietLogger()))
	env := newTestEnvWith(store, storeRepos(store), engine)
	ctx := context.Background()

	y := env.user(t, "y")
	early := env.user(t, "early")
	x := env.user(t, "x")
	require.NoError(t, env.subs.Subscribe(ctx, early, y.ID))

	_, err := env.posts.CreatePost(ctx, y, models.PostRequest{Content: "P"})
	require.NoError(t, err)
	require.NoError(t, env.subs.Subscribe(ctx, x, y.ID))

	countPostNotes := func(uid uint) int {
		notes, err := store.GetNotificationsByUserID(ctx, uid, repositories.Page{})
		require.NoError(t, err)
		n := 0
		for _, note := range notes {
			if note.Type == models.NotificationNewPost {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, countPostNotes(early.ID))
	assert.Equal(t, 0, countPostNotes(x.ID))
	assert.Equal(t, 0, countPostNotes(y.ID))
}
