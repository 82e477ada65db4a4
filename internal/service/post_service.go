package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/internal/repository"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"gorm.io/gorm"
)

type CreatePostInput struct {
	Content string `json:"content" binding:"required,max=10000"`
}

type CommentInput struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type PostService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreatePostInput) (*model.Post, error)
	List(ctx context.Context, limit, offset int) ([]model.Post, error)
	// ToggleLike likes the post, or removes the viewer's existing like;
	// it returns whether the post ends up liked by the viewer.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	AddComment(ctx context.Context, postID, userID uuid.UUID, input CommentInput) (*model.PostComment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]model.PostComment, error)
}

type postService struct {
	repo        repository.PostRepository
	redisClient *redis.Client
	rateLimit   time.Duration
}

func NewPostService(repo repository.PostRepository, redisClient *redis.Client, rateLimit time.Duration) PostService {
	return &postService{
		repo:        repo,
		redisClient: redisClient,
		rateLimit:   rateLimit,
	}
}

func (s *postService) Create(ctx context.Context, userID uuid.UUID, input CreatePostInput) (*model.Post, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.ErrInvalidInput
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, userID, "post", s.rateLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	post := &model.Post{
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, limit, offset)
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperror.ErrNotFound
		}
		return false, err
	}

	liked, err := s.repo.HasLike(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if liked {
		return false, s.repo.RemoveLike(ctx, postID, userID)
	}
	return true, s.repo.AddLike(ctx, postID, userID)
}

func (s *postService) AddComment(ctx context.Context, postID, userID uuid.UUID, input CommentInput) (*model.PostComment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.ErrInvalidInput
	}

	if _, err := s.repo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	comment := &model.PostComment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, postID uuid.UUID) ([]model.PostComment, error) {
	return s.repo.ListComments(ctx, postID)
}
