package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "idistr.none.cart")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("SetGetOverwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "idistr.U1.cart", []byte(`[]`)))
		require.NoError(t, s.Set(ctx, "idistr.U1.cart", []byte(`[{"id":"P1"}]`)))

		v, err := s.Get(ctx, "idistr.U1.cart")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":"P1"}]`, string(v))
	})

	t.Run("KeysByPrefix", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "idistr.U1.store", []byte(`"S1"`)))
		require.NoError(t, s.Set(ctx, "idistr.U2.store", []byte(`"S2"`)))
		require.NoError(t, s.Set(ctx, "other.U1.store", []byte(`"S3"`)))

		keys, err := s.Keys(ctx, "idistr.U1.")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"idistr.U1.cart", "idistr.U1.store"}, keys)
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		n, err := DeletePrefix(ctx, s, "idistr.U1.")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = s.Get(ctx, "idistr.U1.cart")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		v, err := s.Get(ctx, "idistr.U2.store")
		require.NoError(t, err)
		assert.Equal(t, `"S2"`, string(v))
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, "idistr.none.cart"))
	})
}
