package repository

import (
	"context"
	"errors"
	"testing"

	"codesync/internal/cache"
	"codesync/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username", "email"}).
			AddRow(1, "alice", "alice@example.com")
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByEmail(ctx, "missing@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success With Counts", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "username",
			"snippets_count", "followers_count", "following_count", "likes_count", "is_following",
		}).AddRow(3, "Alice", "alice", 4, 10, 2, 25, true)
		mock.ExpectQuery(`SELECT users\.\*.+FROM "users" WHERE username = \$3`).
			WillReturnRows(rows)

		user, err := repo.GetByUsername(ctx, "alice", 7)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(4), user.Count.Snippets)
		assert.Equal(t, int64(10), user.Count.Followers)
		assert.Equal(t, int64(2), user.Count.Following)
		assert.Equal(t, int64(25), user.Count.Likes)
		assert.True(t, user.IsFollowing)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		mock.ExpectQuery(`SELECT users\.\*.+FROM "users" WHERE username = \$2`).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByUsername(ctx, "ghost", 0)
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := repo.Create(ctx, &models.User{Name: "Alice", Username: "alice", Email: "alice@example.com"})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Maps To Conflict", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnError(errors.New(`duplicate key value violates unique constraint "idx_users_email"`))
		mock.ExpectRollback()

		err := repo.Create(ctx, &models.User{Name: "Alice", Username: "alice", Email: "alice@example.com"})
		require.Error(t, err)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "password"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdatePassword(context.Background(), 1, "new-hash")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("ERROR: duplicate key value violates unique constraint")))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
	assert.False(t, isUniqueConstraintError(nil))
}

func TestUserRepository_GetByID_CacheKeepsHiddenColumns(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "password", "image_public_id", "o_auth_provider",
	}).AddRow(1, "alice", "alice@example.com", "$2a$10$hash", "avatars/alice", "github")
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1`).
		WillReturnRows(rows)

	first, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", first.Password)
	assert.True(t, mr.Exists("user:1"))

	// The second read is served from the cache. The columns the API model
	// hides from JSON must survive the round trip, otherwise a later Save
	// would persist the blanks and wipe the password hash.
	second, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", second.Username)
	assert.Equal(t, "$2a$10$hash", second.Password)
	assert.Equal(t, "avatars/alice", second.ImagePublicID)
	assert.Equal(t, "github", second.OAuthProvider)
	assert.NoError(t, mock.ExpectationsWereMet())
}
