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
)

func TestGetNotificationsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	base := time.Now().Add(-time.Hour)
	for i, kind := range []string{
		model.NotificationFriendRequest,
		model.NotificationFriendRequestAccepted,
		model.NotificationUnfriended,
	} {
		require.NoError(t, svc.Notify(ctx, &model.Notification{
			UserID:     alice.ID,
			FromUserID: bob.ID,
			Type:       kind,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	feed, err := svc.GetNotifications(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 3)

	assert.Equal(t, model.NotificationUnfriended, feed[0].Type)
	assert.Equal(t, model.NotificationFriendRequestAccepted, feed[1].Type)
	assert.Equal(t, model.NotificationFriendRequest, feed[2].Type)

	// The sender rides along with each row.
	require.NotNil(t, feed[0].FromUser)
	assert.Equal(t, "bob", feed[0].FromUser.Username)
}

func TestGetNotificationsPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(ctx, &model.Notification{
			UserID:     alice.ID,
			FromUserID: bob.ID,
			Type:       model.NotificationOther,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := svc.GetNotifications(ctx, alice.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestMarkAsRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	notification := &model.Notification{
		UserID:     alice.ID,
		FromUserID: bob.ID,
		Type:       model.NotificationFriendRequest,
	}
	require.NoError(t, svc.Notify(ctx, notification))

	// Only the recipient may flip the flag.
	err := svc.MarkAsRead(ctx, bob.ID, notification.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.MarkAsRead(ctx, alice.ID, notification.ID))

	feed, err := svc.GetNotifications(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].Read)

	// The read flag is the only thing that moved.
	assert.Equal(t, model.NotificationFriendRequest, feed[0].Type)
	assert.Equal(t, bob.ID, feed[0].FromUserID)

	err = svc.MarkAsRead(ctx, alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMarkAllAsReadAndUnreadCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, &model.Notification{
			UserID:     alice.ID,
			FromUserID: bob.ID,
			Type:       model.NotificationOther,
		}))
	}

	count, err := svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	require.NoError(t, svc.MarkAllAsRead(ctx, alice.ID))

	count, err = svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// Another user's feed is untouched.
	count, err = svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
