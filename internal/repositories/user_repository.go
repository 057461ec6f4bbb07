package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uint, displayName, bio string) error
	LinkFirebaseUID(ctx context.Context, id uint, firebaseUID string) error
	SetBanned(ctx context.Context, id uint, banned bool) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
	DeleteUserCascade(ctx context.Context, id uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user. Username, email and firebase uid collisions return ErrDuplicate.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// GetUserByID retrieves a user by ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.firstWhere(ctx, "email = ?", email)
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.firstWhere(ctx, "username = ?", username)
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.firstWhere(ctx, "firebase_uid = ?", firebaseUID)
}

func (r *PostgresUserRepository) firstWhere(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetUsersByIDs loads every existing user in ids, in no particular order
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsers returns users oldest first
func (r *PostgresUserRepository) ListUsers(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Scopes(page.scope).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile writes only the profile columns, leaving banned and role untouched
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id uint, displayName, bio string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"display_name": displayName,
		"bio":          bio,
		"updated_at":   time.Now().UTC(),
	})
}

// LinkFirebaseUID attaches a Firebase identity to an existing account
func (r *PostgresUserRepository) LinkFirebaseUID(ctx context.Context, id uint, firebaseUID string) error {
	return r.updateColumns(ctx, id, map[string]any{
		"firebase_uid": firebaseUID,
		"updated_at":   time.Now().UTC(),
	})
}

func (r *PostgresUserRepository) updateColumns(ctx context.Context, id uint, columns map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBanned flips the banned flag
func (r *PostgresUserRepository) SetBanned(ctx context.Context, id uint, banned bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers matches username or display name case-insensitively, skipping banned users
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("banned = ?", false).
		Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern).
		Order("username ASC").
		Scopes(Page{Limit: limit}.scope).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUserCascade removes a user and everything that references it in one transaction.
// Notifications that merely mention the user as actor survive with related_user_id cleared.
func (r *PostgresUserRepository) DeleteUserCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := deletePostsChildren(tx, postIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}

		steps := []struct {
			model any
			query string
		}{
			{&models.Comment{}, "user_id = ?"},
			{&models.Like{}, "user_id = ?"},
			{&models.Subscription{}, "subscriber_id = ? OR subscribed_to_id = ?"},
			{&models.Notification{}, "user_id = ?"},
			{&models.Report{}, "reporter_id = ? OR reported_user_id = ?"},
		}
		for _, s := range steps {
			args := []any{id}
			if strings.Contains(s.query, " OR ") {
				args = append(args, id)
			}
			if err := tx.Where(s.query, args...).Delete(s.model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Notification{}).
			Where("related_user_id = ?", id).
			Update("related_user_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
