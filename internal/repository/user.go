// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"codesync/internal/cache"
	"codesync/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string, currentUserID uint) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hashed string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// applyUserDetails adds subqueries for the profile counts and the follow
// state of the requesting user. Private snippets count only for the owner.
func (r *userRepository) applyUserDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "users.*, " +
		"(SELECT COUNT(*) FROM snippets WHERE snippets.author_id = users.id AND snippets.deleted_at IS NULL AND (snippets.is_public OR snippets.author_id = ?)) as snippets_count, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) as followers_count, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) as following_count, " +
		"(SELECT COUNT(*) FROM likes JOIN snippets s ON likes.snippet_id = s.id WHERE s.author_id = users.id AND s.deleted_at IS NULL) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM follows WHERE follows.follower_id = ? AND follows.following_id = users.id) as is_following",
			currentUserID, currentUserID)
	}
	return db.Select(selectQuery+", false as is_following", uint(0))
}

// cachedUser is the cache-storage shape for a user row. The API model hides
// password, imagePublicId, and oauthProvider from JSON, so round-tripping
// models.User through the cache would erase them and a later Save would
// persist the blanks.
type cachedUser struct {
	models.User
	Password      string `json:"password"`
	ImagePublicID string `json:"imagePublicId"`
	OAuthProvider string `json:"oauthProvider"`
}

func newCachedUser(u models.User) cachedUser {
	return cachedUser{
		User:          u,
		Password:      u.Password,
		ImagePublicID: u.ImagePublicID,
		OAuthProvider: u.OAuthProvider,
	}
}

func (c cachedUser) user() *models.User {
	u := c.User
	u.Password = c.Password
	u.ImagePublicID = c.ImagePublicID
	u.OAuthProvider = c.OAuthProvider
	return &u
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var cached cachedUser
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &cached, cache.UserTTL, func() error {
		var user models.User
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User")
			}
			return models.NewInternalError(err)
		}
		cached = newCachedUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cached.user(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string, currentUserID uint) (*models.User, error) {
	var user models.User
	if err := r.applyUserDetails(r.db.WithContext(ctx), currentUserID).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetProfile loads the caller's own record with counts. Never cached: the
// profile page must reflect writes immediately.
func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.applyUserDetails(r.db.WithContext(ctx), id).
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User")
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE 23505, unique_violation
		return pgErr.Code == "23505"
	}
	// SQLite (test profile) has no SQLSTATE; match the driver message.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Username is already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	cache.InvalidateUsername(ctx, user.Username)
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hashed string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password", hashed).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.User{})
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(username) LIKE LOWER(?)", like, like)
		}
		return q
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	if err := r.applyUserDetails(filtered(), 0).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
