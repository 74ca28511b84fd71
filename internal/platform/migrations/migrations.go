// Package migrations holds the schema for the SQL document store and the
// runners that apply it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// MigrationsTable records applied postgres versions.
const MigrationsTable = "harmony_schema_migrations"

// Apply runs every embedded sqlite migration in file name order. Statements
// are idempotent so Apply can run on every start.
func Apply(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(sqliteFS, "sqlite/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := sqliteFS.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}
		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return errors.Wrapf(err, "apply migration %s", name)
		}
	}
	return nil
}

// ApplyPostgres migrates a postgres database to the latest version using
// golang-migrate. The caller keeps ownership of db.
func ApplyPostgres(ctx context.Context, db *sql.DB) error {
	src, err := iofs.New(postgresFS, "postgres")
	if err != nil {
		return errors.Wrap(err, "open migration source")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "init migrate driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		return errors.Wrap(err, "init migrate")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}
