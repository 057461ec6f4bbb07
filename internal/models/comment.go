package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"size:1000;not null"`
	CreatedAt time.Time `json:"created_at"`

	Post *Post `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
}

// CommentRequest defines the request body for creating a new comment
type CommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=1000"`
}
