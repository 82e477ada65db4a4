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

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(repository.NewPostRepository(db), nil, time.Second)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)

	post, err := svc.Create(ctx, alice.ID, CreatePostInput{Content: "  looking for a bassist  "})
	require.NoError(t, err)
	assert.Equal(t, "looking for a bassist", post.Content)
	assert.Equal(t, alice.ID, post.UserID)

	_, err = svc.Create(ctx, alice.ID, CreatePostInput{Content: "   "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestToggleLike(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewPostRepository(db)
	svc := NewPostService(repo, nil, time.Second)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	post, err := svc.Create(ctx, alice.ID, CreatePostInput{Content: "show tonight"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.ToggleLike(ctx, uuid.New(), bob.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLikeSetHoldsOneEntryPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewPostRepository(db)
	svc := NewPostService(repo, nil, time.Second)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	post, err := svc.Create(ctx, alice.ID, CreatePostInput{Content: "open mic sign-ups"})
	require.NoError(t, err)

	// A raced double-insert lands on the conflict clause, not a second
	// row.
	require.NoError(t, repo.AddLike(ctx, post.ID, bob.ID))
	require.NoError(t, repo.AddLike(ctx, post.ID, bob.ID))

	var count int64
	require.NoError(t, db.Model(&model.PostLike{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestComments(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(repository.NewPostRepository(db), nil, time.Second)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	post, err := svc.Create(ctx, alice.ID, CreatePostInput{Content: "setlist ideas?"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, post.ID, bob.ID, CommentInput{Content: "open with the ballad"})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, post.ID, alice.ID, CommentInput{Content: "bold choice"})
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "open with the ballad", comments[0].Content)
	assert.Equal(t, "bold choice", comments[1].Content)

	_, err = svc.AddComment(ctx, post.ID, bob.ID, CommentInput{Content: "  "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.AddComment(ctx, uuid.New(), bob.ID, CommentInput{Content: "where?"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListPosts(t *testing.T) {
	db := newTestDB(t)
	svc := NewPostService(repository.NewPostRepository(db), nil, time.Second)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "Alice", model.AccountTypeMusician)
	bob := seedUser(t, db, "bob", "Bob", model.AccountTypeVenue)

	first, err := svc.Create(ctx, alice.ID, CreatePostInput{Content: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, bob.ID, CreatePostInput{Content: "second"})
	require.NoError(t, err)

	posts, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Newest first.
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "bob", posts[0].User.Username)
}
