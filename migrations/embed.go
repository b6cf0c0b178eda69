// Package migrations carries the goose SQL migrations so the binary can
// migrate a database without the source tree next to it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
