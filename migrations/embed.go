// Package migrations embeds the database schema.
package migrations

import "embed"

// FS holds the numbered schema files applied at startup.
//
//go:embed *.sql
var FS embed.FS
