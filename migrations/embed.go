// Package migrations embeds the SQL schema applied by aisleauth's
// postgres-backed credential store.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
