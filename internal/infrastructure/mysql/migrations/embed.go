// Package migrations holds the versioned schema applied by golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
