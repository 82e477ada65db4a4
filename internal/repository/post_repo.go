package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/model"
	"github.com/rich-wisdom/SetList/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context, limit, offset int) ([]model.Post, error)
	AddLike(ctx context.Context, postID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) error
	HasLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	AddComment(ctx context.Context, comment *model.PostComment) error
	ListComments(ctx context.Context, postID uuid.UUID) ([]model.PostComment, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("User.Profile").
			Preload("Likes").
			Where("id = ?", id).
			First(&post).Error
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	var posts []model.Post
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("User.Profile").
			Preload("Likes").
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("post_comments.created_at asc")
			}).
			Preload("Comments.User.Profile").
			Order("created_at desc").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
	})
	return posts, err
}

// AddLike is a no-op when the like already exists: the composite key
// plus DO NOTHING keeps the like set free of duplicates even under
// concurrent taps.
func (r *postRepository) AddLike(ctx context.Context, postID, userID uuid.UUID) error {
	like := model.PostLike{PostID: postID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&model.PostLike{}).Error
}

func (r *postRepository) HasLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) AddComment(ctx context.Context, comment *model.PostComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *postRepository) ListComments(ctx context.Context, postID uuid.UUID) ([]model.PostComment, error) {
	var comments []model.PostComment
	err := database.ReadWithRetry(ctx, func() error {
		return r.db.WithContext(ctx).
			Preload("User.Profile").
			Where("post_id = ?", postID).
			Order("created_at asc").
			Find(&comments).Error
	})
	return comments, err
}
