package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/and161185/clinic-keeper/internal/storage"
)

func TestStore_PrefixedRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := Open(ctx, Options{Addr: mr.Addr(), Prefix: "clinic:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok, err := s.Get(ctx, storage.KeyMedications)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, storage.KeyMedications, []byte(`[{"id":"m1"}]`)))

	raw, err := mr.Get("clinic:" + storage.KeyMedications)
	require.NoError(t, err)
	require.Equal(t, `[{"id":"m1"}]`, raw)
	require.Zero(t, mr.TTL("clinic:"+storage.KeyMedications))

	got, ok, err := s.Get(ctx, storage.KeyMedications)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"m1"}]`, string(got))

	require.NoError(t, s.Remove(ctx, storage.KeyMedications))
	require.NoError(t, s.Remove(ctx, storage.KeyMedications))
	require.False(t, mr.Exists("clinic:"+storage.KeyMedications))
}

func TestOpen_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), Options{Addr: addr})
	require.Error(t, err)
}

func TestStore_ServerErrorSurfaces(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	s, err := Open(ctx, Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	mr.SetError("LOADING")
	_, _, err = s.Get(ctx, storage.KeyChairs)
	require.Error(t, err)
	require.Error(t, s.Set(ctx, storage.KeyChairs, []byte("[]")))
}
