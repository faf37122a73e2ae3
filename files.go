package invite

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetDialectMigrationsFS returns the migrations for a single dialect,
// "sqlite" or "postgres".
func GetDialectMigrationsFS(dialectName string) (fs.FS, error) {
	return fs.Sub(migrationsFS, "data/sql/migrations/"+dialectName)
}
