package repositories

import (
	"context"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// SubscriptionRepository defines the interface for the subscriber -> subscribed_to graph.
// CreateSubscription returns ErrDuplicate when the ordered pair already exists.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, subscriberID, subscribedToID uint) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, subscribedToID uint) (bool, error)
	GetSubscriptionIDs(ctx context.Context, subscriberID uint) ([]uint, error)
	GetSubscriberIDs(ctx context.Context, subscribedToID uint) ([]uint, error)
	CountSubscribers(ctx context.Context, userID uint) (int64, error)
	CountSubscriptions(ctx context.Context, userID uint) (int64, error)
}

// PostgresSubscriptionRepository implements SubscriptionRepository for PostgreSQL
type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

// NewPostgresSubscriptionRepository creates a new PostgresSubscriptionRepository
func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Create(sub).Error)
}

// DeleteSubscription removes the edge in a single statement and reports whether it existed
func (r *PostgresSubscriptionRepository) DeleteSubscription(ctx context.Context, subscriberID, subscribedToID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND subscribed_to_id = ?", subscriberID, subscribedToID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresSubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, subscribedToID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ? AND subscribed_to_id = ?", subscriberID, subscribedToID).
		Count(&count).Error
	return count > 0, err
}

// GetSubscriptionIDs returns the ids of users that subscriberID follows
func (r *PostgresSubscriptionRepository) GetSubscriptionIDs(ctx context.Context, subscriberID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Order("id ASC").
		Pluck("subscribed_to_id", &ids).Error
	return ids, err
}

// GetSubscriberIDs returns the ids of users subscribed to subscribedToID
func (r *PostgresSubscriptionRepository) GetSubscriberIDs(ctx context.Context, subscribedToID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscribed_to_id = ?", subscribedToID).
		Order("id ASC").
		Pluck("subscriber_id", &ids).Error
	return ids, err
}

func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("subscribed_to_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresSubscriptionRepository) CountSubscriptions(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("subscriber_id = ?", userID).Count(&count).Error
	return count, err
}
