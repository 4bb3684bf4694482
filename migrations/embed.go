// Package migrations ships the dashboard schema inside the binaries.
package migrations

import "embed"

// FS holds the numbered up and down scripts.
//
//go:embed *.sql
var FS embed.FS
