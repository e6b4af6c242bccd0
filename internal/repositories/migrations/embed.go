package migrations

import "embed"

// FS contains the embedded Postgres migrations of the render service.
//
//go:embed *.sql
var FS embed.FS
