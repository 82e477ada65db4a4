package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
)

// RoomChannel is the redis pub/sub channel live room subscribers listen on.
func RoomChannel(roomID string) string {
	return fmt.Sprintf("room_messages:%s", roomID)
}

type SendMessageInput struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Content    string `json:"content" binding:"required,max=4000"`
}

type MessageService interface {
	Send(ctx context.Context, senderID uuid.UUID, input SendMessageInput) (*model.Message, error)
	// History returns the room's messages ordered by created_at
	// ascending; since resumes from the last seen timestamp after a
	// reconnect.
	History(ctx context.Context, viewerID uuid.UUID, roomID string, since *time.Time) ([]model.Message, error)
	ListChats(ctx context.Context, viewerID uuid.UUID) ([]model.Chat, error)
	// CanAccessRoom reports whether the viewer is one of the room's two
	// participants.
	CanAccessRoom(viewerID uuid.UUID, roomID string) bool
}

type messageService struct {
	repo        repository.MessageRepository
	redisClient *redis.Client
}

func NewMessageService(repo repository.MessageRepository, redisClient *redis.Client) MessageService {
	return &messageService{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (s *messageService) Send(ctx context.Context, senderID uuid.UUID, input SendMessageInput) (*model.Message, error) {
	receiverID, err := uuid.Parse(input.ReceiverID)
	if err != nil {
		return nil, apperror.ErrBadRequest
	}
	if receiverID == senderID {
		return nil, apperror.ErrBadRequest
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.ErrInvalidInput
	}

	message := &model.Message{
		RoomID:     model.RoomID(senderID, receiverID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}

	if err := s.repo.CreateInRoom(ctx, message); err != nil {
		return nil, err
	}

	s.publish(ctx, message)
	return message, nil
}

func (s *messageService) publish(ctx context.Context, message *model.Message) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	s.redisClient.Publish(ctx, RoomChannel(message.RoomID), payload)
}

func (s *messageService) History(ctx context.Context, viewerID uuid.UUID, roomID string, since *time.Time) ([]model.Message, error) {
	if !s.CanAccessRoom(viewerID, roomID) {
		return nil, apperror.ErrForbidden
	}

	return s.repo.ListRoom(ctx, roomID, since, 0)
}

func (s *messageService) ListChats(ctx context.Context, viewerID uuid.UUID) ([]model.Chat, error) {
	return s.repo.ListChats(ctx, viewerID)
}

func (s *messageService) CanAccessRoom(viewerID uuid.UUID, roomID string) bool {
	for _, part := range strings.Split(roomID, "_") {
		if part == viewerID.String() {
			return true
		}
	}
	return false
}
