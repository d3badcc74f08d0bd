package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty when nothing saved", func(t *testing.T) {
		store := newStore(t)
		conv, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, conv)
	})

	t.Run("round trip", func(t *testing.T) {
		store := newStore(t)
		for _, n := range []int{0, 1, 2, 7, 20} {
			want := makeConversation(n)
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got, "n=%d", n)
		}
	})

	t.Run("round trip of fresh turns", func(t *testing.T) {
		store := newStore(t)
		want := Append(nil, NewTurn(RoleUser, "héllo ✓"), NewTurn(RoleAssistant, "line\nbreak \"quoted\""), 20)
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("load is idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, makeConversation(6)))

		first, err := store.Load(ctx)
		require.NoError(t, err)
		second, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("save replaces previous content", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, makeConversation(10)))
		require.NoError(t, store.Save(ctx, makeConversation(2)))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("save empty clears", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, makeConversation(4)))
		require.NoError(t, store.Save(ctx, nil))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
