package migrations

import "embed"

// FS contains embedded SQLite migrations for finder storage.
//
//go:embed *.sql
var FS embed.FS
