// Package migrations exposes the embedded attempt ledger migrations, one set
// per SQL dialect.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	llmconnections "github.com/goliatone/go-llm-connections"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	rootPath   = "data/sql/migrations"
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Set is the migration directory of one dialect.
type Set struct {
	Dialect string
	Path    string
	FS      fs.FS
	// Versions lists the migration names without their up/down suffix, in
	// apply order.
	Versions []string
}

type RegisterFunc func(ctx context.Context, set Set) error

// NormalizeDialect maps driver and dialect spellings onto DialectPostgres or
// DialectSQLite.
func NormalizeDialect(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DialectPostgres, "postgresql", "pg", "pgx":
		return DialectPostgres, nil
	case DialectSQLite, "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", name)
	}
}

// Sets loads the postgres set from data/sql/migrations and the sqlite set
// from its sqlite subdirectory. A nil root uses the embedded filesystem.
func Sets(root fs.FS) ([]Set, error) {
	if root == nil {
		root = llmconnections.GetMigrationsFS()
	}
	dirs := []struct {
		dialect string
		dir     string
	}{
		{dialect: DialectPostgres, dir: rootPath},
		{dialect: DialectSQLite, dir: path.Join(rootPath, "sqlite")},
	}

	sets := make([]Set, 0, len(dirs))
	for _, entry := range dirs {
		sub, err := fs.Sub(root, entry.dir)
		if err != nil {
			return nil, fmt.Errorf("migrations: resolve %s directory: %w", entry.dialect, err)
		}
		versions, err := pairedVersions(sub)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s %s: %w", entry.dialect, entry.dir, err)
		}
		sets = append(sets, Set{Dialect: entry.dialect, Path: entry.dir, FS: sub, Versions: versions})
	}
	return sets, nil
}

// ForDialect returns the embedded set of one dialect.
func ForDialect(dialect string) (Set, error) {
	normalized, err := NormalizeDialect(dialect)
	if err != nil {
		return Set{}, err
	}
	sets, err := Sets(nil)
	if err != nil {
		return Set{}, err
	}
	for _, set := range sets {
		if set.Dialect == normalized {
			return set, nil
		}
	}
	return Set{}, fmt.Errorf("migrations: no migrations for %s", normalized)
}

// Register hands the embedded set of each requested dialect to registerFn.
// No dialects means every dialect.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) ([]Set, error) {
	if registerFn == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	wanted := map[string]struct{}{}
	for _, dialect := range dialects {
		normalized, err := NormalizeDialect(dialect)
		if err != nil {
			return nil, err
		}
		wanted[normalized] = struct{}{}
	}

	sets, err := Sets(nil)
	if err != nil {
		return nil, err
	}
	registered := make([]Set, 0, len(sets))
	for _, set := range sets {
		if _, ok := wanted[set.Dialect]; len(wanted) > 0 && !ok {
			continue
		}
		if err := registerFn(ctx, set); err != nil {
			return registered, fmt.Errorf("migrations: register %s: %w", set.Dialect, err)
		}
		registered = append(registered, set)
	}
	return registered, nil
}

// pairedVersions requires at least one migration and a down file for every
// up file.
func pairedVersions(fsys fs.FS) ([]string, error) {
	ups, err := fs.Glob(fsys, "*"+upSuffix)
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("no *%s files", upSuffix)
	}
	sort.Strings(ups)
	versions := make([]string, 0, len(ups))
	for _, up := range ups {
		version := strings.TrimSuffix(up, upSuffix)
		if _, err := fs.Stat(fsys, version+downSuffix); err != nil {
			return nil, fmt.Errorf("%s has no %s counterpart", up, downSuffix)
		}
		versions = append(versions, version)
	}
	return versions, nil
}
