// Package migrations embeds the SQL schema for each supported dialect.
package migrations

import "embed"

// FS holds <dialect>/NNN_name.up.sql files.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
