package repository

import (
	"context"

	"github.com/hackup/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, userIDs []string) (map[string]*models.User, error)
	Update(ctx context.Context, userID string, updates UserUpdate) (*models.User, error)
	UpdateKarmaScore(ctx context.Context, userID string, score int64) error
	List(ctx context.Context, page Page) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// UserUpdate carries optional profile changes; nil fields are left alone
type UserUpdate struct {
	Username *string
	IconURL  *string
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByEmail gets a user by email (case-insensitive)
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByUsername gets a user by username (case-insensitive)
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", username).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *userRepository) Update(ctx context.Context, userID string, updates UserUpdate) (*models.User, error) {
	fields := map[string]interface{}{}
	if updates.Username != nil {
		fields["username"] = *updates.Username
	}
	if updates.IconURL != nil {
		fields["icon_url"] = *updates.IconURL
	}

	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(ctx, userID)
}

// UpdateKarmaScore persists the karma snapshot column only
func (r *userRepository) UpdateKarmaScore(ctx context.Context, userID string, score int64) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("karma_score", score)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC")
	err := page.apply(q).Find(&users).Error
	return users, err
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
