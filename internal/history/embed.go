package history

import "embed"

// MigrationFS embeds all SQL migration files into the compiled binary.
//go:embed migrations/*.sql
var MigrationFS embed.FS
