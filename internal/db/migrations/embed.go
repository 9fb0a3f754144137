// Package migrations embeds the schema migration scripts so the migrate
// tool can run them without access to the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
