package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/clinic-keeper/internal/storage"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestStore_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT payload FROM kv WHERE key=\$1`).
		WithArgs(storage.KeyChairs).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`[]`)))

	got, ok, err := s.Get(context.Background(), storage.KeyChairs)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_Absent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectQuery(`SELECT payload FROM kv WHERE key=\$1`).
		WithArgs(storage.KeyPatients).
		WillReturnError(pgx.ErrNoRows)

	got, ok, err := s.Get(context.Background(), storage.KeyPatients)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestStore_Get_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	boom := errors.New("conn reset")
	mock.ExpectQuery(`SELECT payload FROM kv WHERE key=\$1`).
		WithArgs(storage.KeyPatients).
		WillReturnError(boom)

	_, _, err := s.Get(context.Background(), storage.KeyPatients)
	require.ErrorIs(t, err, boom)
}

func TestStore_Set_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectExec(`INSERT INTO kv \(key, payload, updated_at\) VALUES \(\$1, \$2, now\(\)\)`).
		WithArgs(storage.KeyChairs, []byte(`[{"id":"c1"}]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Set(context.Background(), storage.KeyChairs, []byte(`[{"id":"c1"}]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Set_BadKeyNeverHitsDB(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	require.ErrorIs(t, s.Set(context.Background(), "../x", []byte("x")), storage.ErrInvalidKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Remove(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectExec(`DELETE FROM kv WHERE key=\$1`).
		WithArgs(storage.KeyCurrentUser).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Remove(context.Background(), storage.KeyCurrentUser))
	require.NoError(t, mock.ExpectationsWereMet())
}
