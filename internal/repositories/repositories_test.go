package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{},
		&models.Subscription{}, &models.Notification{}, &models.Report{},
	))
	return db
}

func seedUsers(t *testing.T, repo UserRepository, names ...string) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, len(names))
	for _, n := range names {
		u := &models.User{Username: n, Email: n + "@example.com", Role: models.RoleUser}
		require.NoError(t, repo.CreateUser(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func TestUserRepository_DuplicateAndLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()
	users := seedUsers(t, repo, "alice")

	err := repo.CreateUser(ctx, &models.User{Username: "alice", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, byEmail.ID)

	_, err = repo.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SetBanned(ctx, 999, true), ErrNotFound)
}

func TestUserRepository_SearchSkipsBanned(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()
	users := seedUsers(t, repo, "Carol", "caroline", "dave")
	require.NoError(t, repo.SetBanned(ctx, users[1].ID, true))

	found, err := repo.SearchUsers(ctx, "CAR", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Carol", found[0].Username)
}

func TestLikeRepository_UniquePair(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice", "bob")
	posts := NewPostgresPostRepository(db)
	likes := NewPostgresLikeRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: users[0].ID, Content: "hi"}
	require.NoError(t, posts.CreatePost(ctx, post))

	require.NoError(t, likes.CreateLike(ctx, &models.Like{UserID: users[1].ID, PostID: post.ID}))
	err := likes.CreateLike(ctx, &models.Like{UserID: users[1].ID, PostID: post.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	counts, err := likes.CountLikesByPostIDs(ctx, []uint{post.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[post.ID])

	liked, err := likes.GetLikedPostIDs(ctx, users[1].ID, []uint{post.ID})
	require.NoError(t, err)
	assert.True(t, liked[post.ID])
}

func TestPostRepository_FeedOrdering(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice", "bob", "carol")
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	p1 := &models.Post{UserID: users[0].ID, Content: "p1", CreatedAt: base}
	p2 := &models.Post{UserID: users[1].ID, Content: "p2", CreatedAt: base.Add(5 * time.Minute)}
	tie := &models.Post{UserID: users[0].ID, Content: "tie", CreatedAt: base}
	other := &models.Post{UserID: users[2].ID, Content: "not in feed", CreatedAt: base.Add(time.Hour)}
	for _, p := range []*models.Post{p1, p2, tie, other} {
		require.NoError(t, posts.CreatePost(ctx, p))
	}

	feed, err := posts.GetPostsByUserIDs(ctx, []uint{users[0].ID, users[1].ID}, Page{})
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, []uint{p2.ID, tie.ID, p1.ID}, []uint{feed[0].ID, feed[1].ID, feed[2].ID})

	empty, err := posts.GetPostsByUserIDs(ctx, nil, Page{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_DeletePostCascade(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice", "bob")
	posts := NewPostgresPostRepository(db)
	comments := NewPostgresCommentRepository(db)
	likes := NewPostgresLikeRepository(db)
	notifications := NewPostgresNotificationRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: users[0].ID, Content: "doomed"}
	keep := &models.Post{UserID: users[0].ID, Content: "kept"}
	require.NoError(t, posts.CreatePost(ctx, post))
	require.NoError(t, posts.CreatePost(ctx, keep))
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: users[1].ID, Content: "c"}))
	require.NoError(t, comments.CreateComment(ctx, &models.Comment{PostID: keep.ID, UserID: users[1].ID, Content: "c"}))
	require.NoError(t, likes.CreateLike(ctx, &models.Like{UserID: users[1].ID, PostID: post.ID}))
	require.NoError(t, notifications.CreateNotifications(ctx, []models.Notification{
		{UserID: users[0].ID, Type: models.NotificationNewLike, RelatedPostID: &post.ID},
		{UserID: users[0].ID, Type: models.NotificationNewComment, RelatedPostID: &keep.ID},
	}, 1))

	require.NoError(t, posts.DeletePostCascade(ctx, post.ID))

	_, err := posts.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	left, err := comments.CountCommentsByPostIDs(ctx, []uint{post.ID, keep.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{keep.ID: 1}, left)
	liked, err := likes.HasUserLikedPost(ctx, users[1].ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	unread, err := notifications.CountUnread(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	assert.ErrorIs(t, posts.DeletePostCascade(ctx, post.ID), ErrNotFound)
}

func TestSubscriptionRepository(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice", "bob")
	subs := NewPostgresSubscriptionRepository(db)
	ctx := context.Background()

	require.NoError(t, subs.CreateSubscription(ctx, &models.Subscription{SubscriberID: users[1].ID, SubscribedToID: users[0].ID}))
	err := subs.CreateSubscription(ctx, &models.Subscription{SubscriberID: users[1].ID, SubscribedToID: users[0].ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	ids, err := subs.GetSubscriberIDs(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{users[1].ID}, ids)

	n, err := subs.CountSubscriptions(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := subs.DeleteSubscription(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = subs.DeleteSubscription(ctx, users[1].ID, users[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNotificationRepository_ReadState(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice")
	repo := NewPostgresNotificationRepository(db)
	ctx := context.Background()

	batch := make([]models.Notification, 5)
	for i := range batch {
		batch[i] = models.Notification{UserID: users[0].ID, Type: models.NotificationNewPost, Message: "m"}
	}
	require.NoError(t, repo.CreateNotifications(ctx, batch, 2))

	count, err := repo.CountUnread(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	require.NoError(t, repo.MarkNotificationRead(ctx, batch[0].ID))
	unread, err := repo.GetUnreadNotifications(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Len(t, unread, 4)

	flipped, err := repo.MarkAllNotificationsRead(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), flipped)

	require.NoError(t, repo.DeleteNotification(ctx, batch[1].ID))
	assert.ErrorIs(t, repo.DeleteNotification(ctx, batch[1].ID), ErrNotFound)

	page, err := repo.GetNotificationsByUserID(ctx, users[0].ID, Page{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestUserRepository_DeleteUserCascade(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewPostgresUserRepository(db)
	users := seedUsers(t, userRepo, "alice", "bob")
	alice, bob := users[0], users[1]
	posts := NewPostgresPostRepository(db)
	subs := NewPostgresSubscriptionRepository(db)
	notifications := NewPostgresNotificationRepository(db)
	reports := NewPostgresReportRepository(db)
	ctx := context.Background()

	bobPost := &models.Post{UserID: bob.ID, Content: "bob's"}
	require.NoError(t, posts.CreatePost(ctx, bobPost))
	require.NoError(t, subs.CreateSubscription(ctx, &models.Subscription{SubscriberID: bob.ID, SubscribedToID: alice.ID}))
	require.NoError(t, reports.CreateReport(ctx, &models.Report{ReporterID: alice.ID, ReportedUserID: bob.ID, Reason: "spam"}))
	require.NoError(t, notifications.CreateNotifications(ctx, []models.Notification{
		{UserID: alice.ID, Type: models.NotificationNewSubscriber, RelatedUserID: &bob.ID},
		{UserID: alice.ID, Type: models.NotificationNewPost, RelatedUserID: &bob.ID, RelatedPostID: &bobPost.ID},
	}, 0))

	require.NoError(t, userRepo.DeleteUserCascade(ctx, bob.ID))

	_, err := userRepo.GetUserByID(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := posts.CountPostsByUserID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = subs.CountSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	rs, err := reports.ListReports(ctx, Page{})
	require.NoError(t, err)
	assert.Empty(t, rs)

	left, err := notifications.GetNotificationsByUserID(ctx, alice.ID, Page{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, models.NotificationNewSubscriber, left[0].Type)
	assert.Nil(t, left[0].RelatedUserID)
}

func TestForeignKeys_RejectRowsForDeletedPost(t *testing.T) {
	db := newTestDB(t)
	users := seedUsers(t, NewPostgresUserRepository(db), "alice", "bob")
	alice, bob := users[0], users[1]
	posts := NewPostgresPostRepository(db)
	comments := NewPostgresCommentRepository(db)
	likes := NewPostgresLikeRepository(db)
	notifications := NewPostgresNotificationRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: alice.ID, Content: "gone soon"}
	require.NoError(t, posts.CreatePost(ctx, post))
	require.NoError(t, posts.DeletePostCascade(ctx, post.ID))

	err := likes.CreateLike(ctx, &models.Like{UserID: bob.ID, PostID: post.ID})
	assert.ErrorIs(t, err, ErrMissingReference)
	err = comments.CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: bob.ID, Content: "late"})
	assert.ErrorIs(t, err, ErrMissingReference)
	err = notifications.CreateNotifications(ctx, []models.Notification{
		{UserID: alice.ID, Type: models.NotificationNewLike, RelatedPostID: &post.ID, RelatedUserID: &bob.ID},
	}, 0)
	assert.ErrorIs(t, err, ErrMissingReference)

	unread, err := notifications.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUserRepository_UpdateProfileLeavesBanAndRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()
	users := seedUsers(t, repo, "alice")

	stale, err := repo.GetUserByID(ctx, users[0].ID)
	require.NoError(t, err)
	require.NoError(t, repo.SetBanned(ctx, stale.ID, true))
	require.NoError(t, repo.UpdateProfile(ctx, stale.ID, "Alice", "new bio"))

	got, err := repo.GetUserByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, got.Banned)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "new bio", got.Bio)

	require.NoError(t, repo.LinkFirebaseUID(ctx, stale.ID, "uid-1"))
	linked, err := repo.GetUserByFirebaseUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, stale.ID, linked.ID)
	assert.True(t, linked.Banned)

	assert.ErrorIs(t, repo.UpdateProfile(ctx, 999, "x", "y"), ErrNotFound)
}
