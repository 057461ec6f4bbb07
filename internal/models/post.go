package models

import "time"

const (
	MediaTypeImage = "IMAGE"
	MediaTypeVideo = "VIDEO"
)

// Post represents a published post (PostgreSQL)
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"` // owner
	Content   string    `json:"content" gorm:"size:5000;not null"`
	MediaURL  string    `json:"media_url,omitempty" gorm:"size:500"`
	MediaType string    `json:"media_type,omitempty" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostRequest defines the request body for creating or updating a post
type PostRequest struct {
	Content   string `json:"content" validate:"required,notblank,max=5000"`
	MediaURL  string `json:"media_url,omitempty" validate:"omitempty,max=500"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,max=50"`
}
