package services

import (
	"context"
	"strings"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile_Counts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	require.NoError(t, env.subs.Subscribe(ctx, b, a.ID))
	_, err := env.posts.CreatePost(ctx, a, models.PostRequest{Content: "p"})
	require.NoError(t, err)

	v, err := env.users.GetProfile(ctx, b, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.PostsCount)
	assert.Equal(t, int64(1), v.SubscribersCount)
	assert.Zero(t, v.SubscriptionsCount)
	assert.True(t, v.IsSubscribed)
	assert.False(t, v.IsSelf)

	self, err := env.users.GetProfile(ctx, a, a.ID)
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	assert.False(t, self.IsSubscribed)

	_, err = env.users.GetProfile(ctx, a, 999)
	requireKind(t, err, errs.KindNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "a")
	b := env.user(t, "b")
	bio := "hello there"

	_, err := env.users.UpdateProfile(ctx, b, a.ID, models.UpdateProfileRequest{Bio: &bio})
	requireKind(t, err, errs.KindForbidden)

	tooLong := strings.Repeat("b", 501)
	_, err = env.users.UpdateProfile(ctx, a, a.ID, models.UpdateProfileRequest{Bio: &tooLong})
	requireKind(t, err, errs.KindInvalidInput)
	stored, _ := env.store.GetUserByID(ctx, a.ID)
	assert.Empty(t, stored.Bio)

	v, err := env.users.UpdateProfile(ctx, a, a.ID, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, v.Bio)
	assert.Equal(t, "a", v.DisplayName)
}

// banOnRead bans the user right after loading it, as an admin acting mid-request would
type banOnRead struct {
	*inmemory.Store
}

func (b banOnRead) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	u, err := b.Store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u, b.Store.SetBanned(ctx, id, true)
}

func TestUpdateProfile_KeepsConcurrentBan(t *testing.T) {
	store := inmemory.New()
	repos := storeRepos(store)
	repos.Users = banOnRead{store}
	env := newTestEnvWith(store, repos, &recordingPublisher{})
	ctx := context.Background()
	a := env.user(t, "a")
	bio := "hi"

	_, err := env.users.UpdateProfile(ctx, a, a.ID, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)

	stored, err := store.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.Banned)
	assert.Equal(t, "hi", stored.Bio)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.user(t, "viewer")
	env.user(t, "Gopher")
	hidden := env.user(t, "gopherina")
	require.NoError(t, env.store.SetBanned(ctx, hidden.ID, true))

	found, err := env.users.Search(ctx, viewer, "goph")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Gopher", found[0].Username)

	_, err = env.users.Search(ctx, viewer, "  ")
	requireKind(t, err, errs.KindInvalidInput)
}
