package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/pkg/database"
	"gorm.io/gorm"
)

// Prefix scans use the high-sentinel upper bound so that
// [prefix, prefix+sentinel) covers exactly the "starts with" window on
// an ordered string index.
const prefixSentinel = "\uf8ff"

type UserRepository interface {
	Create(ctx context.Context, user *model.User, profile *model.Profile) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
	Update(ctx context.Context, user *model.User, profile *model.Profile) error
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*model.User, error)
	SearchByStageNamePrefix(ctx context.Context, prefix string, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User, profile *model.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if profile != nil {
			profile.UserID = user.ID
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Where("id = ?", id).
			First(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Where("email = ?", email).
			First(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Where("username = ?", username).
			First(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []*model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Where("id IN ?", ids).
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User, profile *model.Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(user).Error; err != nil {
			return err
		}

		if profile != nil {
			if err := tx.Save(profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *userRepository) SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*model.User, error) {
	var users []*model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Where("username >= ? AND username < ?", prefix, prefix+prefixSentinel).
			Order("username").
			Limit(limit).
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) SearchByStageNamePrefix(ctx context.Context, prefix string, limit int) ([]*model.User, error) {
	var users []*model.User
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Profile").
			Joins("JOIN profiles ON profiles.user_id = users.id").
			Where("profiles.stage_name >= ? AND profiles.stage_name < ?", prefix, prefix+prefixSentinel).
			Order("profiles.stage_name").
			Limit(limit).
			Find(&users).Error
	})
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
