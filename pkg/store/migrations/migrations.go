// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the embedded migration files, consumed by golang-migrate's iofs
// source driver.
//
//go:embed *.sql
var FS embed.FS
