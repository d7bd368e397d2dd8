// Package migrations holds the run journal schema.
package migrations

import "embed"

// FS contains the numbered golang-migrate files.
//
//go:embed *.sql
var FS embed.FS
