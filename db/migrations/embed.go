// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the migration files in lexical apply order.
//
//go:embed *.sql
var FS embed.FS
