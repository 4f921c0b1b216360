package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expense-splitter/internal/database"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

func TestUserRepository_Upsert(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	repo := NewUserRepository(tx)

	t.Run("creates new user", func(t *testing.T) {
		user := &models.User{ID: 12345, Username: "testuser", Name: "Test User"}
		require.NoError(t, repo.Upsert(ctx, user))
		require.False(t, user.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, 12345)
		require.NoError(t, err)
		require.Equal(t, "testuser", fetched.Username)
		require.Equal(t, "Test User", fetched.Name)
	})

	t.Run("updates existing user", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &models.User{ID: 12345, Username: "updateduser", Name: "Updated"}))

		fetched, err := repo.GetByID(ctx, 12345)
		require.NoError(t, err)
		require.Equal(t, "updateduser", fetched.Username)
		require.Equal(t, "Updated", fetched.Name)
	})

	t.Run("keeps display fields when claims omit them", func(t *testing.T) {
		user := &models.User{ID: 12345}
		require.NoError(t, repo.Upsert(ctx, user))
		require.Equal(t, "updateduser", user.Username)
		require.Equal(t, "Updated", user.Name)
	})
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	tx := database.TestTx(t)

	_, err := NewUserRepository(tx).GetByID(context.Background(), 404404)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetByIDs(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	repo := NewUserRepository(tx)

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 501, Username: "ana"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: 502, Username: "ben"}))

	users, err := repo.GetByIDs(ctx, []int64{501, 502, 503})
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "ana", users[501].Username)
	require.Equal(t, "ben", users[502].Username)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}
