package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	// CreateInRoom appends the message and refreshes the room's chat
	// metadata (last message preview) in one transaction.
	CreateInRoom(ctx context.Context, message *model.Message) error
	ListRoom(ctx context.Context, roomID string, since *time.Time, limit int) ([]model.Message, error)
	ListChats(ctx context.Context, userID uuid.UUID) ([]model.Chat, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateInRoom(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}

		preview := message.Content
		chat := model.Chat{
			RoomID:        message.RoomID,
			ParticipantA:  message.SenderID,
			ParticipantB:  message.ReceiverID,
			LastMessage:   &preview,
			LastMessageAt: &message.CreatedAt,
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_message_at"}),
		}).Create(&chat).Error
	})
}

func (r *messageRepository) ListRoom(ctx context.Context, roomID string, since *time.Time, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := database.ReadWithRetry(ctx, func() error {
		q := r.db.WithContext(ctx).
			Where("room_id = ?", roomID).
			Order("created_at asc")
		if since != nil {
			q = q.Where("created_at > ?", *since)
		}
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Find(&messages).Error
	})
	return messages, err
}

func (r *messageRepository) ListChats(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	var chats []model.Chat
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Where("participant_a = ? OR participant_b = ?", userID, userID).
			Order("last_message_at desc").
			Find(&chats).Error
	})
	return chats, err
}
