package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/pkg/database"
	"gorm.io/gorm"
)

type FriendshipRepository interface {
	Create(ctx context.Context, friendship *model.Friendship) error
	// FindBetween probes both directions of the pair and returns the
	// single record, or gorm.ErrRecordNotFound. If a write race ever
	// produced two rows, the oldest one wins.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Friendship, error)
	// Accept flips the record to friends, appends the acceptance
	// notification and marks the originating request notification read,
	// all in one transaction.
	Accept(ctx context.Context, friendship *model.Friendship) error
	// Remove deletes the record and marks any unread request
	// notification it produced as read, in one transaction.
	Remove(ctx context.Context, friendship *model.Friendship) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*model.Friendship, error)
	ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*model.Friendship, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *model.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *friendshipRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*model.Friendship, error) {
	var friendship model.Friendship
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
			Order("created_at asc").
			First(&friendship).Error
	})
	if err != nil {
		return nil, err
	}

	return &friendship, nil
}

func (r *friendshipRepository) Accept(ctx context.Context, friendship *model.Friendship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Friendship{}).
			Where("id = ?", friendship.ID).
			Update("status", model.FriendshipFriends).Error; err != nil {
			return err
		}

		accepted := &model.Notification{
			UserID:     friendship.SenderID,
			FromUserID: friendship.ReceiverID,
			Type:       model.NotificationFriendRequestAccepted,
		}
		if err := tx.Create(accepted).Error; err != nil {
			return err
		}

		return markRequestNotificationRead(tx, friendship)
	})
}

func (r *friendshipRepository) Remove(ctx context.Context, friendship *model.Friendship) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Friendship{}, "id = ?", friendship.ID).Error; err != nil {
			return err
		}

		return markRequestNotificationRead(tx, friendship)
	})
}

// markRequestNotificationRead retires the friendRequest notification that
// the record's creation produced, so a stale accept/decline prompt does
// not linger in the receiver's feed.
func markRequestNotificationRead(tx *gorm.DB, friendship *model.Friendship) error {
	return tx.Model(&model.Notification{}).
		Where("user_id = ? AND from_user_id = ? AND type = ? AND read = ?",
			friendship.ReceiverID, friendship.SenderID, model.NotificationFriendRequest, false).
		Update("read", true).Error
}

func (r *friendshipRepository) ListFriends(ctx context.Context, userID uuid.UUID) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, model.FriendshipFriends).
			Order("created_at desc").
			Find(&friendships).Error
	})
	if err != nil {
		return nil, err
	}

	return friendships, nil
}

func (r *friendshipRepository) ListPendingIncoming(ctx context.Context, userID uuid.UUID) ([]*model.Friendship, error) {
	var friendships []*model.Friendship
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("Sender.Profile").
			Where("receiver_id = ? AND status = ?", userID, model.FriendshipPending).
			Order("created_at desc").
			Find(&friendships).Error
	})
	if err != nil {
		return nil, err
	}

	return friendships, nil
}
