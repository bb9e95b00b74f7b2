// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the .sql migration files, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
