package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

var (
	_ repositories.UserRepository         = (*Store)(nil)
	_ repositories.PostRepository         = (*Store)(nil)
	_ repositories.CommentRepository      = (*Store)(nil)
	_ repositories.LikeRepository         = (*Store)(nil)
	_ repositories.SubscriptionRepository = (*Store)(nil)
	_ repositories.NotificationRepository = (*Store)(nil)
	_ repositories.ReportRepository       = (*Store)(nil)
	_ repositories.EventLogRepository     = (*Store)(nil)
)

type pair struct{ a, b uint }

// Store implements every repository interface in memory.
// Unique indexes are emulated with pair maps so duplicate inserts fail the way the database does.
// Likes, comments and notifications referencing a missing post are rejected like a foreign key would.
type Store struct {
	mu     sync.RWMutex
	nextID uint

	users         map[uint]*models.User
	posts         map[uint]*models.Post
	comments      map[uint]*models.Comment
	likes         map[pair]*models.Like // (user, post)
	subscriptions map[pair]*models.Subscription
	notifications map[uint]*models.Notification
	reports       map[uint]*models.Report
	events        map[string]repositories.EventLogEntry

	now func() time.Time
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		users:         make(map[uint]*models.User),
		posts:         make(map[uint]*models.Post),
		comments:      make(map[uint]*models.Comment),
		likes:         make(map[pair]*models.Like),
		subscriptions: make(map[pair]*models.Subscription),
		notifications: make(map[uint]*models.Notification),
		reports:       make(map[uint]*models.Report),
		events:        make(map[string]repositories.EventLogEntry),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now()
	}
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrDuplicate
		}
		if user.FirebaseUID != nil && u.FirebaseUID != nil && *u.FirebaseUID == *user.FirebaseUID {
			return repositories.ErrDuplicate
		}
	}
	user.ID = s.id()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	s.stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context, page repositories.Page) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uint, displayName, bio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.DisplayName = displayName
	u.Bio = bio
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) LinkFirebaseUID(ctx context.Context, id uint, firebaseUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, other := range s.users {
		if other.ID != id && other.FirebaseUID != nil && *other.FirebaseUID == firebaseUID {
			return repositories.ErrDuplicate
		}
	}
	u.FirebaseUID = &firebaseUID
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) SetBanned(ctx context.Context, id uint, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Banned = banned
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []models.User
	for _, u := range s.users {
		if u.Banned {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, repositories.Page{Limit: limit}), nil
}

func (s *Store) DeleteUserCascade(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	for pid, p := range s.posts {
		if p.UserID == id {
			s.deletePostLocked(pid)
		}
	}
	for cid, c := range s.comments {
		if c.UserID == id {
			delete(s.comments, cid)
		}
	}
	for k := range s.likes {
		if k.a == id {
			delete(s.likes, k)
		}
	}
	for k := range s.subscriptions {
		if k.a == id || k.b == id {
			delete(s.subscriptions, k)
		}
	}
	for nid, n := range s.notifications {
		switch {
		case n.UserID == id:
			delete(s.notifications, nid)
		case n.RelatedUserID != nil && *n.RelatedUserID == id:
			n.RelatedUserID = nil
		}
	}
	for rid, r := range s.reports {
		if r.ReporterID == id || r.ReportedUserID == id {
			delete(s.reports, rid)
		}
	}
	delete(s.users, id)
	return nil
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = s.id()
	s.stamp(&post.CreatedAt)
	post.UpdatedAt = post.CreatedAt
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[post.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Content = post.Content
	p.MediaURL = post.MediaURL
	p.MediaType = post.MediaType
	p.UpdatedAt = s.now()
	post.UpdatedAt = p.UpdatedAt
	return nil
}

func (s *Store) DeletePostCascade(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	s.deletePostLocked(id)
	return nil
}

func (s *Store) deletePostLocked(id uint) {
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	for k := range s.likes {
		if k.b == id {
			delete(s.likes, k)
		}
	}
	for nid, n := range s.notifications {
		if n.RelatedPostID != nil && *n.RelatedPostID == id {
			delete(s.notifications, nid)
		}
	}
	delete(s.posts, id)
}

func (s *Store) GetPostsByUserIDs(ctx context.Context, userIDs []uint, page repositories.Page) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		owners[id] = struct{}{}
	}
	var out []models.Post
	for _, p := range s.posts {
		if _, ok := owners[p.UserID]; ok {
			out = append(out, *p)
		}
	}
	sortNewestFirst(out)
	return paginate(out, page), nil
}

func (s *Store) ListAllPosts(ctx context.Context, page repositories.Page) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p)
	}
	sortNewestFirst(out)
	return paginate(out, page), nil
}

func (s *Store) CountPostsByUserID(ctx context.Context, userID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.posts {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func sortNewestFirst(posts []models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[comment.PostID]; !ok {
		return repositories.ErrMissingReference
	}
	comment.ID = s.id()
	s.stamp(&comment.CreatedAt)
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *Store) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID uint) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) CountCommentsByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(postIDs)
	out := make(map[uint]int64)
	for _, c := range s.comments {
		if _, ok := want[c.PostID]; ok {
			out[c.PostID]++
		}
	}
	return out, nil
}

// === Likes ===

func (s *Store) CreateLike(ctx context.Context, like *models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[like.PostID]; !ok {
		return repositories.ErrMissingReference
	}
	k := pair{like.UserID, like.PostID}
	if _, ok := s.likes[k]; ok {
		return repositories.ErrDuplicate
	}
	like.ID = s.id()
	s.stamp(&like.CreatedAt)
	cp := *like
	s.likes[k] = &cp
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, userID, postID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{userID, postID}
	if _, ok := s.likes[k]; !ok {
		return false, nil
	}
	delete(s.likes, k)
	return true, nil
}

func (s *Store) HasUserLikedPost(ctx context.Context, userID, postID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[pair{userID, postID}]
	return ok, nil
}

func (s *Store) CountLikesByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := idSet(postIDs)
	out := make(map[uint]int64)
	for k := range s.likes {
		if _, ok := want[k.b]; ok {
			out[k.b]++
		}
	}
	return out, nil
}

func (s *Store) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uint]bool)
	for _, id := range postIDs {
		if _, ok := s.likes[pair{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// === Subscriptions ===

func (s *Store) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{sub.SubscriberID, sub.SubscribedToID}
	if _, ok := s.subscriptions[k]; ok {
		return repositories.ErrDuplicate
	}
	sub.ID = s.id()
	s.stamp(&sub.CreatedAt)
	cp := *sub
	s.subscriptions[k] = &cp
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, subscriberID, subscribedToID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{subscriberID, subscribedToID}
	if _, ok := s.subscriptions[k]; !ok {
		return false, nil
	}
	delete(s.subscriptions, k)
	return true, nil
}

func (s *Store) IsSubscribed(ctx context.Context, subscriberID, subscribedToID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subscriptions[pair{subscriberID, subscribedToID}]
	return ok, nil
}

func (s *Store) edges(match func(pair) bool, pick func(pair) uint) []uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*models.Subscription, 0)
	for k, sub := range s.subscriptions {
		if match(k) {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	ids := make([]uint, len(subs))
	for i, sub := range subs {
		ids[i] = pick(pair{sub.SubscriberID, sub.SubscribedToID})
	}
	return ids
}

func (s *Store) GetSubscriptionIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	return s.edges(
		func(k pair) bool { return k.a == subscriberID },
		func(k pair) uint { return k.b },
	), nil
}

func (s *Store) GetSubscriberIDs(ctx context.Context, subscribedToID uint) ([]uint, error) {
	return s.edges(
		func(k pair) bool { return k.b == subscribedToID },
		func(k pair) uint { return k.a },
	), nil
}

func (s *Store) CountSubscribers(ctx context.Context, userID uint) (int64, error) {
	ids, _ := s.GetSubscriberIDs(ctx, userID)
	return int64(len(ids)), nil
}

func (s *Store) CountSubscriptions(ctx context.Context, userID uint) (int64, error) {
	ids, _ := s.GetSubscriptionIDs(ctx, userID)
	return int64(len(ids)), nil
}

// === Notifications ===

func (s *Store) CreateNotifications(ctx context.Context, notifications []models.Notification, batchSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range notifications {
		if n.RelatedPostID == nil {
			continue
		}
		if _, ok := s.posts[*n.RelatedPostID]; !ok {
			return repositories.ErrMissingReference
		}
	}
	for i := range notifications {
		n := &notifications[i]
		n.ID = s.id()
		s.stamp(&n.CreatedAt)
		cp := *n
		s.notifications[n.ID] = &cp
	}
	return nil
}

func (s *Store) userNotifications(userID uint, unreadOnly bool) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) GetNotificationsByUserID(ctx context.Context, userID uint, page repositories.Page) ([]models.Notification, error) {
	return paginate(s.userNotifications(userID, false), page), nil
}

func (s *Store) GetUnreadNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.userNotifications(userID, true), nil
}

func (s *Store) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return int64(len(s.userNotifications(userID, true))), nil
}

func (s *Store) GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return repositories.ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, notif := range s.notifications {
		if notif.UserID == userID && !notif.Read {
			notif.Read = true
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteNotification(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

// === Reports ===

func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report.ID = s.id()
	s.stamp(&report.CreatedAt)
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *Store) ListReports(ctx context.Context, page repositories.Page) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), nil
}

func (s *Store) GetReportByID(ctx context.Context, id uint) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) DeleteReport(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.reports, id)
	return nil
}

// === Event log ===

func (s *Store) AppendEvent(ctx context.Context, entry repositories.EventLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[entry.EventID] = entry
	return nil
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (*repositories.EventLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &e, nil
}

func idSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func paginate[T any](items []T, page repositories.Page) []T {
	if page.Offset > 0 {
		if page.Offset >= len(items) {
			return []T{}
		}
		items = items[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}
