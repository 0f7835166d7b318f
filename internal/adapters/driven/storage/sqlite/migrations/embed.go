// Package migrations holds the SQLite chunk store schema, applied in file
// name order on open.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql schema files.
//
//go:embed *.sql
var FS embed.FS
