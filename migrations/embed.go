package migrations

import "embed"

// FS holds the SQL migrations applied by internal/db.
//
//go:embed *.sql
var FS embed.FS
