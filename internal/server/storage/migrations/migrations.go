// Package migrations embeds the SQLite schema of the lease store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
