package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNoMigrations is returned when there is nothing to roll back.
var ErrNoMigrations = errors.New("no applied migrations")

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// migration is one up/down pair named by its file prefix.
type migration struct {
	version string
	up      string
	down    string
}

// loadMigrations reads *.up.sql / *.down.sql pairs from fsys in version order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[string]*migration)
	for _, name := range names {
		base := path.Base(name)
		var version, direction string
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			version, direction = strings.TrimSuffix(base, ".up.sql"), "up"
		case strings.HasSuffix(base, ".down.sql"):
			version, direction = strings.TrimSuffix(base, ".down.sql"), "down"
		default:
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{version: version}
			byVersion[version] = m
		}
		if direction == "up" {
			m.up = string(data)
		} else {
			m.down = string(data)
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.up == "" || m.down == "" {
			return nil, fmt.Errorf("migration %s: both up and down files are required", m.version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// MigrateUp applies every migration not yet recorded in schema_migrations
// and returns the versions it applied.
func (r *Repository) MigrateUp(ctx context.Context, fsys fs.FS) ([]string, error) {
	migrations, err := loadMigrations(fsys)
	if err != nil {
		return nil, err
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return done, fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		done = append(done, m.version)
	}
	return done, nil
}

// MigrateDown rolls back the most recently applied migration.
func (r *Repository) MigrateDown(ctx context.Context, fsys fs.FS) (string, error) {
	migrations, err := loadMigrations(fsys)
	if err != nil {
		return "", err
	}

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return "", err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		if !applied[m.version] {
			continue
		}
		err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.down); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.version)
			return err
		})
		if err != nil {
			return "", fmt.Errorf("revert migration %s: %w", m.version, err)
		}
		return m.version, nil
	}
	return "", ErrNoMigrations
}

func (r *Repository) appliedVersions(ctx context.Context) (map[string]bool, error) {
	if _, err := r.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan schema_migrations: %w", err)
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
