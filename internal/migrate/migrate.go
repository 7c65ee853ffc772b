// Package migrate applies embedded SQL migrations on startup.
package migrate

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/migrations"
)

// goose keeps its dialect and filesystem in package globals.
var mu sync.Mutex

// Postgres runs all pending migrations against the database behind dsn.
func Postgres(ctx context.Context, dsn string, log *zap.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return Up(ctx, db, "postgres", migrations.PostgresDir, log)
}

// SQLite runs all pending migrations on an open SQLite handle.
func SQLite(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	return Up(ctx, db, "sqlite3", migrations.SQLiteDir, log)
}

// Up runs the migrations found in dir of the embedded filesystem.
func Up(ctx context.Context, db *sql.DB, dialect, dir string, log *zap.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	if log == nil {
		log = zap.NewNop()
	}
	goose.SetLogger(gooseLogger{log.Named("migrate").Sugar()})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

type gooseLogger struct{ *zap.SugaredLogger }

func (l gooseLogger) Printf(format string, v ...any) { l.Infof(format, v...) }
