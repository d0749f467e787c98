// Package migrations embeds goose SQL migrations for each supported dialect.
package migrations

import "embed"

// Postgres holds migrations for the pgx-backed store.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds migrations for the embedded store.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
