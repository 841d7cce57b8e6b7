// Package migrations embeds the SQL schema migrations so deployments do not
// depend on a migrations directory being shipped next to the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
