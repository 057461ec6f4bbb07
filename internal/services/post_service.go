package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/authz"
	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

// PostService owns the post, comment and like lifecycle and composes feeds
type PostService struct {
	base
	events EventPublisher
}

func NewPostService(repos Repositories, events EventPublisher, logger *slog.Logger) *PostService {
	return &PostService{base: newBase(repos, logger), events: events}
}

// CreatePost persists a post and notifies the author's current subscribers
func (s *PostService) CreatePost(ctx context.Context, p models.Principal, in models.PostRequest) (*PostView, error) {
	if err := authz.RequireNotBanned(p); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    p.ID,
		Content:   in.Content,
		MediaURL:  in.MediaURL,
		MediaType: in.MediaType,
	}
	if err := s.repos.Posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	// Recipients are fixed here; later subscribers get nothing for this post.
	subscribers, err := s.repos.Subscriptions.GetSubscriberIDs(ctx, p.ID)
	if err != nil {
		s.logger.Error("new post fan-out skipped", slog.Uint64("post_id", uint64(post.ID)), slog.Any("error", err))
	} else if len(subscribers) > 0 {
		s.events.Publish(ctx, fanout.NewPostEvent(actorOf(p), post.ID, subscribers))
	}

	return s.view(ctx, p.ID, post)
}

// UpdatePost replaces content and media of an owned post
func (s *PostService) UpdatePost(ctx context.Context, p models.Principal, postID uint, in models.PostRequest) (*PostView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwner(p.ID, post.UserID, "posts"); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	post.Content = in.Content
	post.MediaURL = in.MediaURL
	post.MediaType = in.MediaType
	if err := s.repos.Posts.UpdatePost(ctx, post); err != nil {
		return nil, lookupErr(err, "post", postID)
	}
	return s.view(ctx, p.ID, post)
}

// DeletePost removes an owned post with its comments, likes and notifications
func (s *PostService) DeletePost(ctx context.Context, p models.Principal, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := authz.RequireOwner(p.ID, post.UserID, "posts"); err != nil {
		return err
	}
	if err := s.repos.Posts.DeletePostCascade(ctx, postID); err != nil {
		return lookupErr(err, "post", postID)
	}
	return nil
}

// ToggleLike flips the principal's like on a post.
// A lost insert race is treated as already liked and emits nothing.
func (s *PostService) ToggleLike(ctx context.Context, p models.Principal, postID uint) (*LikeState, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	liked, err := s.repos.Likes.HasUserLikedPost(ctx, p.ID, postID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if _, err := s.repos.Likes.DeleteLike(ctx, p.ID, postID); err != nil {
			return nil, fmt.Errorf("delete like: %w", err)
		}
		return s.likeState(ctx, postID, false)
	}

	if err := authz.RequireNotBanned(p); err != nil {
		return nil, err
	}
	err = s.repos.Likes.CreateLike(ctx, &models.Like{UserID: p.ID, PostID: postID})
	switch {
	case errors.Is(err, repositories.ErrDuplicate):
		s.logger.Debug("concurrent like ignored", slog.Uint64("post_id", uint64(postID)), slog.Uint64("user_id", uint64(p.ID)))
		return s.likeState(ctx, postID, true)
	case errors.Is(err, repositories.ErrMissingReference):
		return nil, errs.NotFound("post", postID)
	case err != nil:
		return nil, fmt.Errorf("create like: %w", err)
	}

	if !authz.CanModify(p.ID, post.UserID) {
		s.events.Publish(ctx, fanout.NewLikeEvent(actorOf(p), postID, post.UserID))
	}
	return s.likeState(ctx, postID, true)
}

func (s *PostService) likeState(ctx context.Context, postID uint, liked bool) (*LikeState, error) {
	counts, err := s.repos.Likes.CountLikesByPostIDs(ctx, []uint{postID})
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &LikeState{Liked: liked, LikesCount: counts[postID]}, nil
}

// AddComment persists a comment and notifies the post owner
func (s *PostService) AddComment(ctx context.Context, p models.Principal, postID uint, in models.CommentRequest) (*CommentView, error) {
	if err := authz.RequireNotBanned(p); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: p.ID, Content: in.Content}
	err = s.repos.Comments.CreateComment(ctx, comment)
	switch {
	case errors.Is(err, repositories.ErrMissingReference):
		return nil, errs.NotFound("post", postID)
	case err != nil:
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if !authz.CanModify(p.ID, post.UserID) {
		s.events.Publish(ctx, fanout.NewCommentEvent(actorOf(p), postID, post.UserID))
	}

	views, err := s.commentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) DeleteComment(ctx context.Context, p models.Principal, commentID uint) error {
	comment, err := s.repos.Comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return lookupErr(err, "comment", commentID)
	}
	if err := authz.RequireOwner(p.ID, comment.UserID, "comments"); err != nil {
		return err
	}
	if err := s.repos.Comments.DeleteComment(ctx, commentID); err != nil {
		return lookupErr(err, "comment", commentID)
	}
	return nil
}

// GetFeed returns posts by the principal and everyone they subscribe to, newest first
func (s *PostService) GetFeed(ctx context.Context, p models.Principal, page Page) ([]PostView, error) {
	ids, err := s.repos.Subscriptions.GetSubscriptionIDs(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	ids = uniq(append(ids, p.ID))

	posts, err := s.repos.Posts.GetPostsByUserIDs(ctx, ids, page)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return s.postViews(ctx, p.ID, posts)
}

// GetUserPosts lists one user's posts, newest first
func (s *PostService) GetUserPosts(ctx context.Context, viewer models.Principal, userID uint, page Page) ([]PostView, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.repos.Posts.GetPostsByUserIDs(ctx, []uint{userID}, page)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	return s.postViews(ctx, viewer.ID, posts)
}

func (s *PostService) GetPost(ctx context.Context, viewer models.Principal, postID uint) (*PostView, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer.ID, post)
}

// GetComments lists a post's comments, oldest first
func (s *PostService) GetComments(ctx context.Context, postID uint) ([]CommentView, error) {
	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.repos.Comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return s.commentViews(ctx, comments)
}

func (s *PostService) view(ctx context.Context, viewerID uint, post *models.Post) (*PostView, error) {
	views, err := s.postViews(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// postViews fills authors and counts with one query per aggregate
func (s *PostService) postViews(ctx context.Context, viewerID uint, posts []models.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	postIDs := make([]uint, len(posts))
	ownerIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		ownerIDs[i] = p.UserID
	}

	authors, err := s.loadUsers(ctx, uniq(ownerIDs))
	if err != nil {
		return nil, err
	}
	likes, err := s.repos.Likes.CountLikesByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	comments, err := s.repos.Comments.CountCommentsByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	liked := map[uint]bool{}
	if viewerID != 0 {
		if liked, err = s.repos.Likes.GetLikedPostIDs(ctx, viewerID, postIDs); err != nil {
			return nil, fmt.Errorf("load liked posts: %w", err)
		}
	}

	for _, p := range posts {
		views = append(views, PostView{
			ID:            p.ID,
			Content:       p.Content,
			MediaURL:      p.MediaURL,
			MediaType:     p.MediaType,
			Author:        compact(authors, p.UserID),
			LikesCount:    likes[p.ID],
			CommentsCount: comments[p.ID],
			IsLiked:       liked[p.ID],
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
		})
	}
	return views, nil
}

func (s *PostService) commentViews(ctx context.Context, comments []models.Comment) ([]CommentView, error) {
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.UserID
	}
	authors, err := s.loadUsers(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = CommentView{
			ID:        c.ID,
			PostID:    c.PostID,
			Content:   c.Content,
			Author:    compact(authors, c.UserID),
			CreatedAt: c.CreatedAt,
		}
	}
	return views, nil
}
