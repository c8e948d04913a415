package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retriva/retriva/internal/log"
	"github.com/retriva/retriva/internal/session"
	"github.com/retriva/retriva/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := session.NewStore(db.Pool, log.NewNop())

	t.Run("create and get", func(t *testing.T) {
		sess, err := store.Create(ctx, "first chat")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, sess.ID)
		assert.False(t, sess.CreatedAt.IsZero())

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, "first chat", got.Title)
	})

	t.Run("get unknown session", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("history in chronological order", func(t *testing.T) {
		sess, err := store.Create(ctx, "history test")
		require.NoError(t, err)

		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.RoleUser, "what is a goroutine?"))
		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.RoleModel, "a lightweight thread"))
		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.RoleUser, "and a channel?"))

		history, err := store.History(ctx, sess.ID, 0)
		require.NoError(t, err)
		require.Len(t, history, 3)

		assert.Equal(t, session.RoleUser, history[0].Role)
		assert.Equal(t, "what is a goroutine?", history[0].Content)
		assert.Equal(t, session.RoleModel, history[1].Role)
		assert.Equal(t, "and a channel?", history[2].Content)
	})

	t.Run("history respects limit keeping newest", func(t *testing.T) {
		sess, err := store.Create(ctx, "limit test")
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			require.NoError(t, store.AppendMessage(ctx, sess.ID, session.RoleUser, fmt.Sprintf("message %d", i)))
		}

		history, err := store.History(ctx, sess.ID, 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "message 3", history[0].Content)
		assert.Equal(t, "message 4", history[1].Content)
	})

	t.Run("list newest first with pagination", func(t *testing.T) {
		sessions, err := store.List(ctx, 100, 0)
		require.NoError(t, err)
		require.NotEmpty(t, sessions)

		page, err := store.List(ctx, 2, 1)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page), 2)
		if len(sessions) > 1 {
			assert.Equal(t, sessions[1].ID, page[0].ID)
		}
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		sess, err := store.Create(ctx, "role test")
		require.NoError(t, err)

		err = store.AppendMessage(ctx, sess.ID, "system", "nope")
		assert.ErrorIs(t, err, session.ErrInvalidRole)
	})

	t.Run("orphan message rejected", func(t *testing.T) {
		err := store.AppendMessage(ctx, uuid.New(), session.RoleUser, "no session")
		assert.Error(t, err)
		assert.False(t, errors.Is(err, session.ErrInvalidRole))
	})

	t.Run("delete cascades", func(t *testing.T) {
		sess, err := store.Create(ctx, "doomed")
		require.NoError(t, err)
		require.NoError(t, store.AppendMessage(ctx, sess.ID, session.RoleUser, "hello"))

		require.NoError(t, store.Delete(ctx, sess.ID))

		_, err = store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		history, err := store.History(ctx, sess.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, history)

		assert.ErrorIs(t, store.Delete(ctx, sess.ID), session.ErrNotFound)
	})
}
