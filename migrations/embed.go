package migrations

import "embed"

// FS embeds the SQL migration files so the server can migrate itself on
// startup without shipping the files separately.
//
//go:embed *.sql
var FS embed.FS
