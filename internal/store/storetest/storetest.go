// Package storetest holds behaviour checks shared by every store.Store backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formassist-backend/internal/store"
)

// Run exercises a fresh, empty store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put overwrites wholesale", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		require.NoError(t, s.Put(ctx, "conversations/a", []byte(`{"v":1,"extra":true}`)))
		require.NoError(t, s.Put(ctx, "conversations/a", []byte(`{"v":2}`)))

		got, err := s.Get(ctx, "conversations/a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		require.NoError(t, s.Put(ctx, "k", []byte(`1`)))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"))

		_, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		for _, k := range []string{"conversations/b", "settings", "conversations/a", "conversationsX"} {
			require.NoError(t, s.Put(ctx, k, []byte(`{}`)))
		}

		keys, err := s.Keys(ctx, "conversations/")
		require.NoError(t, err)
		assert.Equal(t, []string{"conversations/a", "conversations/b"}, keys)

		none, err := s.Keys(ctx, "missing/")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("json helpers", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()
		type doc struct {
			Name string `json:"name"`
		}
		require.NoError(t, store.PutJSON(ctx, s, "doc", doc{Name: "x"}))

		var got doc
		require.NoError(t, store.GetJSON(ctx, s, "doc", &got))
		assert.Equal(t, "x", got.Name)

		assert.ErrorIs(t, store.GetJSON(ctx, s, "absent", &got), store.ErrNotFound)
	})
}
