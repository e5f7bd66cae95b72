// Package migrations embeds the server's goose migration scripts.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
