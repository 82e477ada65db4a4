package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type friendshipFixture struct {
	db      *gorm.DB
	svc     FriendshipService
	notifs  NotificationService
	alice   *model.User
	bob     *model.User
	charlie *model.User
}

func newFriendshipFixture(t *testing.T) *friendshipFixture {
	t.Helper()

	db := newTestDB(t)
	notifs := NewNotificationService(repository.NewNotificationRepository(db), nil)
	svc := NewFriendshipService(
		repository.NewFriendshipRepository(db),
		repository.NewUserRepository(db),
		notifs,
		nil,
		time.Second,
	)

	return &friendshipFixture{
		db:      db,
		svc:     svc,
		notifs:  notifs,
		alice:   seedUser(t, db, "alice", "Alice & The Amps", model.AccountTypeMusician),
		bob:     seedUser(t, db, "bob", "Bob's Basement", model.AccountTypeVenue),
		charlie: seedUser(t, db, "charlie", "Charlie Horns", model.AccountTypeMusician),
	}
}

func (f *friendshipFixture) notificationsFor(t *testing.T, userID uuid.UUID) []model.Notification {
	t.Helper()

	out, err := f.notifs.GetNotifications(context.Background(), userID, 50, 0)
	require.NoError(t, err)
	return out
}

func TestSendRequestCreatesPending(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))

	status, err := f.svc.Status(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingOutgoing, status.Status)

	status, err = f.svc.Status(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingIncoming, status.Status)

	got := f.notificationsFor(t, f.bob.ID)
	require.Len(t, got, 1)
	assert.Equal(t, model.NotificationFriendRequest, got[0].Type)
	assert.Equal(t, f.alice.ID, got[0].FromUserID)
	assert.False(t, got[0].Read)
}

func TestSendRequestToSelf(t *testing.T) {
	f := newFriendshipFixture(t)

	err := f.svc.SendRequest(context.Background(), f.alice.ID, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestSendRequestUnknownReceiver(t *testing.T) {
	f := newFriendshipFixture(t)

	err := f.svc.SendRequest(context.Background(), f.alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))

	err := f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID)
	assert.ErrorIs(t, err, apperror.ErrDuplicateRequest)

	// The reverse direction hits the same record.
	err = f.svc.SendRequest(ctx, f.bob.ID, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrDuplicateRequest)

	var count int64
	require.NoError(t, f.db.Model(&model.Friendship{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAcceptRequest(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))

	status, err := f.svc.Status(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFriends, status.Status)

	status, err = f.svc.Status(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFriends, status.Status)

	// The sender learns about the acceptance.
	aliceFeed := f.notificationsFor(t, f.alice.ID)
	require.Len(t, aliceFeed, 1)
	assert.Equal(t, model.NotificationFriendRequestAccepted, aliceFeed[0].Type)
	assert.Equal(t, f.bob.ID, aliceFeed[0].FromUserID)

	// The original request prompt is retired from the receiver's feed.
	bobFeed := f.notificationsFor(t, f.bob.ID)
	require.Len(t, bobFeed, 1)
	assert.True(t, bobFeed[0].Read)
}

func TestAcceptRequestIdempotent(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))

	// A replayed accept must not append a second acceptance notification.
	aliceFeed := f.notificationsFor(t, f.alice.ID)
	assert.Len(t, aliceFeed, 1)
}

func TestAcceptRequestOnlyReceiverMay(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))

	err := f.svc.AcceptRequest(ctx, f.alice.ID, f.bob.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAcceptRequestMissing(t *testing.T) {
	f := newFriendshipFixture(t)

	err := f.svc.AcceptRequest(context.Background(), f.bob.ID, f.alice.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeclineRequest(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.DeclineRequest(ctx, f.bob.ID, f.alice.ID))

	status, err := f.svc.Status(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status.Status)

	// Declining again is a no-op, not an error.
	require.NoError(t, f.svc.DeclineRequest(ctx, f.bob.ID, f.alice.ID))

	// A fresh request may follow a decline.
	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
}

func TestUnfriend(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))
	require.NoError(t, f.svc.Unfriend(ctx, f.alice.ID, f.bob.ID))

	status, err := f.svc.Status(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, status.Status)

	bobFeed := f.notificationsFor(t, f.bob.ID)
	var unfriended int
	for _, n := range bobFeed {
		if n.Type == model.NotificationUnfriended {
			unfriended++
			assert.Equal(t, f.alice.ID, n.FromUserID)
		}
	}
	assert.Equal(t, 1, unfriended)
}

func TestUnfriendWhenNotFriends(t *testing.T) {
	f := newFriendshipFixture(t)

	err := f.svc.Unfriend(context.Background(), f.alice.ID, f.charlie.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListFriends(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))
	require.NoError(t, f.svc.SendRequest(ctx, f.charlie.ID, f.alice.ID))
	require.NoError(t, f.svc.AcceptRequest(ctx, f.alice.ID, f.charlie.ID))

	friends, err := f.svc.ListFriends(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)

	ids := map[uuid.UUID]bool{}
	for _, fr := range friends {
		ids[fr.User.ID] = true
		assert.Empty(t, fr.User.PasswordHash)
		assert.False(t, fr.Since.IsZero())
	}
	assert.True(t, ids[f.bob.ID])
	assert.True(t, ids[f.charlie.ID])

	// Pending requests never show in the friends list.
	friends, err = f.svc.ListFriends(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestListPendingRequests(t *testing.T) {
	f := newFriendshipFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendRequest(ctx, f.alice.ID, f.bob.ID))
	require.NoError(t, f.svc.SendRequest(ctx, f.charlie.ID, f.bob.ID))

	requests, err := f.svc.ListPendingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	for _, r := range requests {
		assert.Equal(t, model.FriendshipPending, r.Status)
		require.NotNil(t, r.Sender)
		assert.Empty(t, r.Sender.PasswordHash)
	}

	// Accepting removes the request from the inbox.
	require.NoError(t, f.svc.AcceptRequest(ctx, f.bob.ID, f.alice.ID))

	requests, err = f.svc.ListPendingRequests(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, f.charlie.ID, requests[0].SenderID)
}
