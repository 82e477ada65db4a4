package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/pkg/database"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at desc").
			Limit(limit).
			Offset(offset).
			Preload("FromUser", func(db *gorm.DB) *gorm.DB {
				return db.Select("id", "username")
			}).
			Preload("FromUser.Profile").
			Find(&notifications).Error
	})
	return notifications, err
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkAsRead sets the read flag, the only mutation a notification allows.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
