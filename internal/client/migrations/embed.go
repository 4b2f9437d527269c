// Package migrations embeds the schema of the client's local database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
