package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories/inmemory"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published events instead of fanning them out
type recordingPublisher struct {
	mu     sync.Mutex
	events []fanout.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, evt fanout.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) ofType(t models.NotificationType) []fanout.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fanout.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store  *inmemory.Store
	repos  Repositories
	events *recordingPublisher
	posts  *PostService
	subs   *SubscriptionService
	notes  *NotificationService
	users  *UserService
	admin  *AdminService
	auth   *AuthService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storeRepos(store *inmemory.Store) Repositories {
	return Repositories{
		Users:         store,
		Posts:         store,
		Comments:      store,
		Likes:         store,
		Subscriptions: store,
		Notifications: store,
		Reports:       store,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := inmemory.New()
	return newTestEnvWith(store, storeRepos(store), &recordingPublisher{})
}

func newTestEnvWith(store *inmemory.Store, repos Repositories, events EventPublisher) *testEnv {
	log := quietLogger()
	posts := NewPostService(repos, events, log)
	rec, _ := events.(*recordingPublisher)
	return &testEnv{
		store:  store,
		repos:  repos,
		events: rec,
		posts:  posts,
		subs:   NewSubscriptionService(repos, events, log),
		notes:  NewNotificationService(repos, log),
		users:  NewUserService(repos, log),
		admin:  NewAdminService(repos, posts, log),
		auth:   NewAuthService(repos, log),
	}
}

// user creates an account directly in the store and returns its principal
func (e *testEnv) user(t *testing.T, name string) models.Principal {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", DisplayName: name, Role: models.RoleUser}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u.Principal()
}

func (e *testEnv) adminUser(t *testing.T, name string) models.Principal {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Role: models.RoleAdmin}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u.Principal()
}

func banned(p models.Principal) models.Principal {
	p.Banned = true
	return p
}

func requireKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, errs.KindOf(err), "unexpected error: %v", err)
}
