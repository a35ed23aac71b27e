package repository

import (
	"context"
	"errors"

	"codesync/internal/cache"
	"codesync/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListBySnippet(ctx context.Context, snippetID uint, limit, offset int) ([]*models.Comment, int64, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// applyCommentDetails adds the reply count subquery.
func (r *commentRepository) applyCommentDetails(db *gorm.DB) *gorm.DB {
	return db.Select("comments.*, " +
		"(SELECT COUNT(*) FROM comments replies WHERE replies.parent_id = comments.id AND replies.deleted_at IS NULL) as replies_count")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSnippet(ctx, comment.SnippetID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.applyCommentDetails(r.db.WithContext(ctx)).
		Preload("Author").
		First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment")
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListBySnippet returns top-level comments newest first, with one level of
// replies preloaded oldest first.
func (r *commentRepository) ListBySnippet(ctx context.Context, snippetID uint, limit, offset int) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("snippet_id = ? AND parent_id IS NULL", snippetID).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	if err := r.applyCommentDetails(r.db.WithContext(ctx)).
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.Author").
		Where("snippet_id = ? AND parent_id IS NULL", snippetID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
