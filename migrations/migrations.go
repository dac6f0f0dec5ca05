// Package migrations embeds the PostgreSQL schema so tests and tooling can apply it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
