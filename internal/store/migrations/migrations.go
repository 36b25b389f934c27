// Package migrations embeds the SQL schema for the bot database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
