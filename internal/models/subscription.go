package models

import "time"

// Subscription is a directed edge subscriber -> subscribed_to
type Subscription struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	SubscriberID   uint      `json:"subscriber_id" gorm:"not null;index;uniqueIndex:idx_subscriber_subscribed_to"`
	SubscribedToID uint      `json:"subscribed_to_id" gorm:"not null;index;uniqueIndex:idx_subscriber_subscribed_to"`
	CreatedAt      time.Time `json:"created_at"`
}
