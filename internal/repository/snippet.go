package repository

import (
	"context"
	"encoding/json"
	"errors"

	"codesync/internal/cache"
	"codesync/internal/models"

	"gorm.io/gorm"
)

// SnippetFilter narrows snippet listings. Zero values mean "no filter".
type SnippetFilter struct {
	Language string
	AuthorID uint
	Tags     []string
	Search   string
}

// LanguageStat is one row of the explore page language breakdown.
type LanguageStat struct {
	Language string `json:"language"`
	Count    int64  `json:"count"`
}

// TagStat is one row of the explore page trending tags.
type TagStat struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// SnippetRepository defines persistence operations for snippets and likes.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *models.Snippet) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Snippet, error)
	ListPublic(ctx context.Context, filter SnippetFilter, limit, offset int, currentUserID uint) ([]*models.Snippet, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Snippet, int64, error)
	Update(ctx context.Context, snippet *models.Snippet) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, snippetID uint) (bool, error)
	IsLiked(ctx context.Context, userID, snippetID uint) (bool, error)
	CountLikes(ctx context.Context, snippetID uint) (int64, error)
	TopLanguages(ctx context.Context, limit int) ([]LanguageStat, error)
	TrendingTags(ctx context.Context, limit int) ([]TagStat, error)
}

type snippetRepository struct {
	db *gorm.DB
}

// NewSnippetRepository returns a new SnippetRepository implementation.
func NewSnippetRepository(db *gorm.DB) SnippetRepository {
	return &snippetRepository{db: db}
}

// applySnippetDetails adds subqueries to fetch counts and liked status in a single query.
func (r *snippetRepository) applySnippetDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "snippets.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.snippet_id = snippets.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.snippet_id = snippets.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.snippet_id = snippets.id AND likes.user_id = ?) as liked", currentUserID)
	}
	return db.Select(selectQuery + ", false as liked")
}

// applyFilter appends the WHERE clauses for a SnippetFilter. Tag matching is
// any-of over the tags array.
func (r *snippetRepository) applyFilter(db *gorm.DB, filter SnippetFilter) *gorm.DB {
	if filter.Language != "" {
		db = db.Where("language = ?", filter.Language)
	}
	if filter.AuthorID != 0 {
		db = db.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
	}
	if len(filter.Tags) > 0 {
		tagCond := r.db.Session(&gorm.Session{NewDB: true})
		for i, tag := range filter.Tags {
			clause, arg := r.tagContains(tag)
			if i == 0 {
				tagCond = tagCond.Where(clause, arg)
			} else {
				tagCond = tagCond.Or(clause, arg)
			}
		}
		db = db.Where(tagCond)
	}
	return db
}

// tagContains builds the per-dialect membership test for one tag. Postgres
// stores tags as jsonb and supports containment; sqlite (test profile) walks
// the array with json_each.
func (r *snippetRepository) tagContains(tag string) (string, interface{}) {
	if r.db.Dialector.Name() == "postgres" {
		j, _ := json.Marshal([]string{tag})
		return "tags @> ?", string(j)
	}
	return "EXISTS (SELECT 1 FROM json_each(snippets.tags) WHERE json_each.value = ?)", tag
}

func (r *snippetRepository) Create(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Create(snippet).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateExplore(ctx)
	return nil
}

func (r *snippetRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Snippet, error) {
	var snippet models.Snippet
	err := r.applySnippetDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Author").
		First(&snippet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Snippet")
		}
		return nil, models.NewInternalError(err)
	}
	return &snippet, nil
}

func (r *snippetRepository) ListPublic(ctx context.Context, filter SnippetFilter, limit, offset int, currentUserID uint) ([]*models.Snippet, int64, error) {
	var snippets []*models.Snippet
	var total int64

	filtered := func() *gorm.DB {
		return r.applyFilter(
			r.db.WithContext(ctx).Model(&models.Snippet{}).Where("is_public = ?", true),
			filter,
		)
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	if err := r.applySnippetDetails(filtered(), currentUserID).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&snippets).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return snippets, total, nil
}

func (r *snippetRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Snippet, int64, error) {
	var snippets []*models.Snippet
	var total int64

	if err := r.db.WithContext(ctx).
		Model(&models.Snippet{}).
		Where("author_id = ?", authorID).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	if err := r.applySnippetDetails(r.db.WithContext(ctx), authorID).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&snippets).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return snippets, total, nil
}

func (r *snippetRepository) Update(ctx context.Context, snippet *models.Snippet) error {
	if err := r.db.WithContext(ctx).Save(snippet).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSnippet(ctx, snippet.ID)
	cache.InvalidateExplore(ctx)
	return nil
}

func (r *snippetRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Snippet{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateSnippet(ctx, id)
	cache.InvalidateExplore(ctx)
	return nil
}

func (r *snippetRepository) IncrementViews(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Snippet{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ToggleLike flips the like state atomically and reports the new state.
// INSERT ... ON CONFLICT DO NOTHING either claims the row or signals that it
// already existed, so concurrent toggles cannot double-insert.
func (r *snippetRepository) ToggleLike(ctx context.Context, userID, snippetID uint) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, snippet_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, snippet_id) DO NOTHING`,
		userID, snippetID,
	)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected > 0 {
		cache.InvalidateSnippet(ctx, snippetID)
		return true, nil
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND snippet_id = ?", userID, snippetID).
		Delete(&models.Like{}).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	cache.InvalidateSnippet(ctx, snippetID)
	return false, nil
}

func (r *snippetRepository) IsLiked(ctx context.Context, userID, snippetID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND snippet_id = ?", userID, snippetID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *snippetRepository) CountLikes(ctx context.Context, snippetID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("snippet_id = ?", snippetID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *snippetRepository) TopLanguages(ctx context.Context, limit int) ([]LanguageStat, error) {
	var stats []LanguageStat
	if err := r.db.WithContext(ctx).
		Model(&models.Snippet{}).
		Select("language, COUNT(*) as count").
		Where("is_public = ?", true).
		Group("language").
		Order("count DESC").
		Limit(limit).
		Find(&stats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}

func (r *snippetRepository) TrendingTags(ctx context.Context, limit int) ([]TagStat, error) {
	// Unnesting a json array has no portable syntax. Postgres gets the jsonb
	// set-returning function; sqlite (test profile) gets json_each.
	query := `SELECT t.tag, COUNT(*) as count
		 FROM snippets, jsonb_array_elements_text(snippets.tags) AS t(tag)
		 WHERE snippets.is_public = true AND snippets.deleted_at IS NULL
		 GROUP BY t.tag
		 ORDER BY count DESC
		 LIMIT ?`
	if r.db.Dialector.Name() != "postgres" {
		query = `SELECT t.value as tag, COUNT(*) as count
		 FROM snippets, json_each(snippets.tags) AS t
		 WHERE snippets.is_public = true AND snippets.deleted_at IS NULL
		 GROUP BY t.value
		 ORDER BY count DESC
		 LIMIT ?`
	}

	var stats []TagStat
	if err := r.db.WithContext(ctx).Raw(query, limit).Scan(&stats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return stats, nil
}
