package models

import "time"

// NotificationType tags what triggered a notification
type NotificationType string

const (
	NotificationNewSubscriber NotificationType = "NEW_SUBSCRIBER"
	NotificationNewLike       NotificationType = "NEW_LIKE"
	NotificationNewComment    NotificationType = "NEW_COMMENT"
	NotificationNewPost       NotificationType = "NEW_POST"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	UserID        uint             `json:"user_id" gorm:"not null;index"` // recipient
	Message       string           `json:"message"`
	Type          NotificationType `json:"type" gorm:"size:30;index"`
	Read          bool             `json:"read" gorm:"not null;default:false;index"`
	RelatedPostID *uint            `json:"related_post_id,omitempty" gorm:"index"`
	RelatedUserID *uint            `json:"related_user_id,omitempty" gorm:"index"` // actor
	CreatedAt     time.Time        `json:"created_at" gorm:"index"`

	// Rows are removed explicitly with their post; the constraint only rejects late inserts.
	RelatedPost *Post `json:"-" gorm:"foreignKey:RelatedPostID;constraint:OnDelete:RESTRICT"`
}
