// Package migrations embeds the SQL schema of the SQL-backed KV stores.
package migrations

import "embed"

// FS holds one directory of goose migrations per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Directories inside FS.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
