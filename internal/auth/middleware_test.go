package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/expense-splitter/internal/models"
	"gitlab.com/yelinaung/expense-splitter/internal/repository/memory"
)

type failingUpserter struct{}

func (failingUpserter) Upsert(context.Context, *models.User) error {
	return errors.New("database down")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		seen = user
		w.WriteHeader(http.StatusNoContent)
	})

	token, err := IssueToken(testSecret, models.User{ID: 7, Username: "meera"}, time.Hour, time.Now())
	require.NoError(t, err)

	t.Run("valid token reaches handler and upserts user", func(t *testing.T) {
		store := memory.New()
		handler := Middleware(NewVerifier(testSecret), store)(next)

		req := httptest.NewRequest(http.MethodGet, "/expenditures", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, int64(7), seen.ID)

		users, err := store.GetByIDs(context.Background(), []int64{7})
		require.NoError(t, err)
		require.Equal(t, "meera", users[7].Username)
	})

	t.Run("rejects missing and malformed headers", func(t *testing.T) {
		handler := Middleware(NewVerifier(testSecret), nil)(next)

		for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer nope"} {
			req := httptest.NewRequest(http.MethodGet, "/expenditures", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code, header)
			require.Contains(t, rec.Body.String(), `"error"`)
			require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		}
	})

	t.Run("upsert failure is a server error", func(t *testing.T) {
		handler := Middleware(NewVerifier(testSecret), failingUpserter{})(next)

		req := httptest.NewRequest(http.MethodGet, "/expenditures", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUserID(t *testing.T) {
	t.Parallel()

	_, ok := UserID(context.Background())
	require.False(t, ok)

	id, ok := UserID(WithUser(context.Background(), models.User{ID: 3}))
	require.True(t, ok)
	require.Equal(t, int64(3), id)
}
