// Package migrations embeds the SQL migrations for the event journal.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
