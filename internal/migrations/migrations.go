// Package migrations contains the embedded SQL schema migrations, applied
// with goose by the repository manager.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
