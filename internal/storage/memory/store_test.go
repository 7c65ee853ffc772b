package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/clinic-keeper/internal/storage"
)

func TestStore_GetSetRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, storage.KeyChairs)
	require.NoError(t, err)
	require.False(t, ok)

	buf := []byte(`[{"id":"c1"}]`)
	require.NoError(t, s.Set(ctx, storage.KeyChairs, buf))
	buf[0] = 'X'

	got, ok, err := s.Get(ctx, storage.KeyChairs)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"c1"}]`, string(got), "stored value must be a copy")

	got[0] = 'Y'
	again, _, _ := s.Get(ctx, storage.KeyChairs)
	require.Equal(t, byte('['), again[0], "returned value must be a copy")

	require.NoError(t, s.Remove(ctx, storage.KeyChairs))
	require.NoError(t, s.Remove(ctx, storage.KeyChairs))
	_, ok, _ = s.Get(ctx, storage.KeyChairs)
	require.False(t, ok)
	require.Empty(t, s.Keys())
}

func TestStore_RejectsBadKeyAndCanceledCtx(t *testing.T) {
	t.Parallel()
	s := New()
	require.ErrorIs(t, s.Set(context.Background(), "", []byte("x")), storage.ErrInvalidKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Set(ctx, "k", nil), context.Canceled)
}
