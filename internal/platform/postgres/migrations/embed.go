// Package migrations embeds the SQL migration files so the server binary can
// apply them with goose without a migrations directory on disk.
package migrations

import "embed"

// FS holds the embedded goose migration files.
//
//go:embed *.sql
var FS embed.FS
