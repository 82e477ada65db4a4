package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(repository.NewMessageRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice & The Amps", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob's Basement", model.AccountTypeVenue)
	eve := seedUser(t, db, "eve", "Eve", model.AccountTypeMusician)

	_, err := svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "got a slot friday?"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob.ID, SendMessageInput{ReceiverID: alice.ID.String(), Content: "9pm works"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "deal"})
	require.NoError(t, err)

	roomID := model.RoomID(alice.ID, bob.ID)

	// Either participant reads the same room, oldest first.
	history, err := svc.History(ctx, bob.ID, roomID, nil)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "got a slot friday?", history[0].Content)
	assert.Equal(t, "9pm works", history[1].Content)
	assert.Equal(t, "deal", history[2].Content)

	_, err = svc.History(ctx, eve.ID, roomID, nil)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSendValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(repository.NewMessageRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)

	_, err := svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: alice.ID.String(), Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: "not-a-uuid", Content: "hi"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)
	_, err = svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestHistorySinceResumes(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(repository.NewMessageRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	first, err := svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "one"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "two"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob.ID, SendMessageInput{ReceiverID: alice.ID.String(), Content: "three"})
	require.NoError(t, err)

	// Resuming from the first message's timestamp yields only what
	// followed it.
	history, err := svc.History(ctx, alice.ID, first.RoomID, &first.CreatedAt)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "three", history[1].Content)
}

func TestListChats(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(repository.NewMessageRepository(db), nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)
	carol := seedUser(t, db, "carol", "Carol", model.AccountTypeMusician)

	_, err := svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: bob.ID.String(), Content: "hey bob"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob.ID, SendMessageInput{ReceiverID: alice.ID.String(), Content: "hey alice"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, SendMessageInput{ReceiverID: carol.ID.String(), Content: "hey carol"})
	require.NoError(t, err)

	// One metadata row per room, preview tracking the latest message.
	chats, err := svc.ListChats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	byRoom := map[string]model.Chat{}
	for _, c := range chats {
		byRoom[c.RoomID] = c
	}

	bobChat := byRoom[model.RoomID(alice.ID, bob.ID)]
	require.NotNil(t, bobChat.LastMessage)
	assert.Equal(t, "hey alice", *bobChat.LastMessage)

	chats, err = svc.ListChats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestCanAccessRoom(t *testing.T) {
	svc := NewMessageService(nil, nil)

	alice := uuid.New()
	bob := uuid.New()
	eve := uuid.New()
	roomID := model.RoomID(alice, bob)

	assert.True(t, svc.CanAccessRoom(alice, roomID))
	assert.True(t, svc.CanAccessRoom(bob, roomID))
	assert.False(t, svc.CanAccessRoom(eve, roomID))
}
