package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/example/checkin-scheduler/internal/db"
)

//go:embed sql/*.sql
var files embed.FS

// Store is the subset of *db.DB migrations run against.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

// Up applies every embedded migration not yet recorded in schema_migrations,
// in file name order. It returns the versions it applied.
func Up(ctx context.Context, d Store) ([]string, error) {
	return up(ctx, d, files)
}

func up(ctx context.Context, d Store, fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now());`); err != nil {
		return nil, fmt.Errorf("migrate: schema_migrations: %w", err)
	}

	var applied []string
	for _, name := range names {
		version := strings.TrimPrefix(name, "sql/")

		var done bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&done); err != nil {
			return applied, err
		}
		if done {
			continue
		}

		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, err
		}
		if err := d.Exec(ctx, string(b)); err != nil {
			return applied, fmt.Errorf("apply %s: %w", version, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, version); err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}
	return applied, nil
}
