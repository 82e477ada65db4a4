package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"gorm.io/gorm"
)

// Relationship status as seen from the viewer's side.
const (
	StatusNone            = "none"
	StatusPendingOutgoing = "pending-outgoing"
	StatusPendingIncoming = "pending-incoming"
	StatusFriends         = "friends"
)

type FriendshipStatus struct {
	Status string `json:"status"`
}

type Friend struct {
	User  *model.User `json:"user"`
	Since time.Time   `json:"since"`
}

type FriendshipService interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	AcceptRequest(ctx context.Context, receiverID, senderID uuid.UUID) error
	DeclineRequest(ctx context.Context, receiverID, senderID uuid.UUID) error
	Unfriend(ctx context.Context, viewerID, otherID uuid.UUID) error
	Status(ctx context.Context, viewerID, otherID uuid.UUID) (*FriendshipStatus, error)
	ListFriends(ctx context.Context, viewerID uuid.UUID) ([]Friend, error)
	// ListPendingRequests returns the viewer's incoming requests, newest
	// first, with the sender joined in.
	ListPendingRequests(ctx context.Context, viewerID uuid.UUID) ([]*model.Friendship, error)
}

type friendshipService struct {
	repo          repository.FriendshipRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	redisClient   *redis.Client
	rateLimit     time.Duration
}

func NewFriendshipService(
	repo repository.FriendshipRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	redisClient *redis.Client,
	rateLimit time.Duration,
) FriendshipService {
	return &friendshipService{
		repo:          repo,
		userRepo:      userRepo,
		notifications: notifications,
		redisClient:   redisClient,
		rateLimit:     rateLimit,
	}
}

// findFriendship normalizes direction: callers never issue the two
// directional lookups themselves.
func (s *friendshipService) findFriendship(ctx context.Context, a, b uuid.UUID) (*model.Friendship, error) {
	friendship, err := s.repo.FindBetween(ctx, a, b)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return friendship, nil
}

func (s *friendshipService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return apperror.ErrBadRequest
	}

	if _, err := s.userRepo.FindByID(ctx, receiverID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, senderID, "friend_request", s.rateLimit)
	if err != nil {
		return err
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}

	// The duplicate probe runs both directions before any write; there is
	// no DB-level uniqueness constraint on the unordered pair to lean on.
	existing, err := s.findFriendship(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperror.ErrDuplicateRequest
	}

	friendship := &model.Friendship{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.FriendshipPending,
	}
	if err := s.repo.Create(ctx, friendship); err != nil {
		return err
	}

	return s.notifications.Notify(ctx, &model.Notification{
		UserID:     receiverID,
		FromUserID: senderID,
		Type:       model.NotificationFriendRequest,
	})
}

// AcceptRequest is idempotent: accepting a pair that is already friends
// is a no-op, so a retried or duplicated accept cannot double-notify.
func (s *friendshipService) AcceptRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	friendship, err := s.findFriendship(ctx, receiverID, senderID)
	if err != nil {
		return err
	}
	if friendship == nil {
		return apperror.ErrNotFound
	}
	if friendship.Status == model.FriendshipFriends {
		return nil
	}
	if friendship.ReceiverID != receiverID {
		return apperror.ErrForbidden
	}

	if err := s.repo.Accept(ctx, friendship); err != nil {
		return err
	}

	s.notifications.Publish(ctx, &model.Notification{
		UserID:     friendship.SenderID,
		FromUserID: friendship.ReceiverID,
		Type:       model.NotificationFriendRequestAccepted,
	})
	return nil
}

// DeclineRequest is idempotent: declining when no pending record exists
// is a no-op.
func (s *friendshipService) DeclineRequest(ctx context.Context, receiverID, senderID uuid.UUID) error {
	friendship, err := s.findFriendship(ctx, receiverID, senderID)
	if err != nil {
		return err
	}
	if friendship == nil || friendship.Status != model.FriendshipPending {
		return nil
	}
	if friendship.ReceiverID != receiverID {
		return apperror.ErrForbidden
	}

	return s.repo.Remove(ctx, friendship)
}

func (s *friendshipService) Unfriend(ctx context.Context, viewerID, otherID uuid.UUID) error {
	friendship, err := s.findFriendship(ctx, viewerID, otherID)
	if err != nil {
		return err
	}
	if friendship == nil || friendship.Status != model.FriendshipFriends {
		return apperror.ErrNotFound
	}
	if !friendship.Involves(viewerID) {
		return apperror.ErrForbidden
	}

	if err := s.repo.Remove(ctx, friendship); err != nil {
		return err
	}

	return s.notifications.Notify(ctx, &model.Notification{
		UserID:     friendship.Other(viewerID),
		FromUserID: viewerID,
		Type:       model.NotificationUnfriended,
	})
}

func (s *friendshipService) Status(ctx context.Context, viewerID, otherID uuid.UUID) (*FriendshipStatus, error) {
	friendship, err := s.findFriendship(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	if friendship == nil {
		return &FriendshipStatus{Status: StatusNone}, nil
	}

	switch friendship.Status {
	case model.FriendshipFriends:
		return &FriendshipStatus{Status: StatusFriends}, nil
	case model.FriendshipPending:
		if friendship.SenderID == viewerID {
			return &FriendshipStatus{Status: StatusPendingOutgoing}, nil
		}
		return &FriendshipStatus{Status: StatusPendingIncoming}, nil
	}

	return &FriendshipStatus{Status: StatusNone}, nil
}

func (s *friendshipService) ListFriends(ctx context.Context, viewerID uuid.UUID) ([]Friend, error) {
	friendships, err := s.repo.ListFriends(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(friendships))
	since := make(map[uuid.UUID]time.Time, len(friendships))
	for _, f := range friendships {
		other := f.Other(viewerID)
		ids = append(ids, other)
		since[other] = f.CreatedAt
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]Friend, 0, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		friends = append(friends, Friend{User: u, Since: since[u.ID]})
	}

	return friends, nil
}

func (s *friendshipService) ListPendingRequests(ctx context.Context, viewerID uuid.UUID) ([]*model.Friendship, error) {
	requests, err := s.repo.ListPendingIncoming(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	for _, r := range requests {
		if r.Sender != nil {
			r.Sender.PasswordHash = ""
		}
	}

	return requests, nil
}
