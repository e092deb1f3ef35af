package auth

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// RunMigrations applies the embedded up migrations in lexical order.
// Statements are idempotent, so re-running on an existing database is safe.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	entries, err := fs.Glob(migrationsFS, "data/sql/migrations/*.up.sql")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list migrations")
	}
	sort.Strings(entries)

	for _, entry := range entries {
		raw, err := migrationsFS.ReadFile(entry)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration").
				WithMetadata(map[string]any{"file": entry})
		}

		for _, stmt := range strings.Split(string(raw), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to apply migration").
					WithMetadata(map[string]any{"file": entry})
			}
		}
	}

	return nil
}
