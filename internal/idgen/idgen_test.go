package idgen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7_UniqueAndVersioned(t *testing.T) {
	t.Parallel()

	const n = 2000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, err := UUIDv7{}.NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}

		u, err := uuid.FromString(id)
		require.NoError(t, err)
		require.Equal(t, byte(7), u.Version())
	}
}

func TestFunc_Adapter(t *testing.T) {
	t.Parallel()

	n := 0
	g := Func(func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	})
	a, _ := g.NewID()
	b, _ := g.NewID()
	require.Equal(t, "id-1", a)
	require.Equal(t, "id-2", b)

	boom := errors.New("boom")
	_, err := Func(func() (string, error) { return "", boom }).NewID()
	require.ErrorIs(t, err, boom)
}
