package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"gorm.io/gorm"
)

// NotificationChannel is the redis pub/sub channel a recipient's live
// feed listens on.
func NotificationChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

type NotificationService interface {
	// Notify persists the notification and fans it out to the
	// recipient's live feed.
	Notify(ctx context.Context, notification *model.Notification) error
	// Publish fans out without persisting, for rows already written
	// inside another transaction.
	Publish(ctx context.Context, notification *model.Notification)
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *notificationService) Notify(ctx context.Context, notification *model.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	s.Publish(ctx, notification)
	return nil
}

func (s *notificationService) Publish(ctx context.Context, notification *model.Notification) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	s.redisClient.Publish(ctx, NotificationChannel(notification.UserID), payload)
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

// MarkAsRead flips the read flag; only the recipient may do so.
func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if notification.UserID != userID {
		return apperror.ErrForbidden
	}

	return s.repo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
