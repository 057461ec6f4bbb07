package services

import (
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

// PostView is a post with its author and aggregate counts
type PostView struct {
	ID            uint               `json:"id"`
	Content       string             `json:"content"`
	MediaURL      string             `json:"media_url,omitempty"`
	MediaType     string             `json:"media_type,omitempty"`
	Author        models.UserCompact `json:"author"`
	LikesCount    int64              `json:"likes_count"`
	CommentsCount int64              `json:"comments_count"`
	IsLiked       bool               `json:"is_liked"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type CommentView struct {
	ID        uint               `json:"id"`
	PostID    uint               `json:"post_id"`
	Content   string             `json:"content"`
	Author    models.UserCompact `json:"author"`
	CreatedAt time.Time          `json:"created_at"`
}

// LikeState is the outcome of a like toggle
type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type ProfileView struct {
	ID                 uint        `json:"id"`
	Username           string      `json:"username"`
	DisplayName        string      `json:"display_name"`
	Bio                string      `json:"bio"`
	Role               models.Role `json:"role"`
	CreatedAt          time.Time   `json:"created_at"`
	PostsCount         int64       `json:"posts_count"`
	SubscribersCount   int64       `json:"subscribers_count"`
	SubscriptionsCount int64       `json:"subscriptions_count"`
	IsSubscribed       bool        `json:"is_subscribed"`
	IsSelf             bool        `json:"is_self"`
}

type NotificationView struct {
	ID                 uint                    `json:"id"`
	Message            string                  `json:"message"`
	Type               models.NotificationType `json:"type"`
	Read               bool                    `json:"read"`
	CreatedAt          time.Time               `json:"created_at"`
	RelatedPostID      *uint                   `json:"related_post_id,omitempty"`
	RelatedPostPreview string                  `json:"related_post_preview,omitempty"`
	RelatedUser        *models.UserCompact     `json:"related_user,omitempty"`
}

// AdminUserView exposes account fields hidden from public profiles
type AdminUserView struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	Banned      bool        `json:"banned"`
	CreatedAt   time.Time   `json:"created_at"`
	PostsCount  int64       `json:"posts_count"`
	Subscribers int64       `json:"subscribers_count"`
}

type ReportView struct {
	ID           uint               `json:"id"`
	Reason       string             `json:"reason"`
	Reporter     models.UserCompact `json:"reporter"`
	ReportedUser models.UserCompact `json:"reported_user"`
	CreatedAt    time.Time          `json:"created_at"`
}

const previewLength = 100

// preview truncates post content for notification listings
func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLength {
		return content
	}
	return string(r[:previewLength]) + "..."
}
