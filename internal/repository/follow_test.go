package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Toggle(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	t.Run("First Toggle Follows", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO follows`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		following, err := repo.Toggle(ctx, 1, 2)
		require.NoError(t, err)
		assert.True(t, following)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Toggle Unfollows", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO follows`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "follows"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		following, err := repo.Toggle(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, following)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFollowRepository_IsFollowing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "follows" WHERE follower_id = \$1 AND following_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	following, err := repo.IsFollowing(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, following)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_Counts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "follows" WHERE following_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	followers, err := repo.CountFollowers(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), followers)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "follows" WHERE follower_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	following, err := repo.CountFollowing(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), following)
	assert.NoError(t, mock.ExpectationsWereMet())
}
