package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Database is the ledger's PostgreSQL connection.
type Database struct {
	conn   *sql.DB
	logger *logging.Logger
}

// NewDatabase opens and pings a connection pool.
func NewDatabase(ctx context.Context, dsn string, logger *logging.Logger) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	return &Database{conn: db, logger: logger.Component("store")}, nil
}

// Close closes the pool.
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries.
func (db *Database) DB() *sql.DB {
	return db.conn
}

// Migrations lists the embedded migration names in apply order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every embedded migration not yet recorded.
func (db *Database) RunMigrations(ctx context.Context) error {
	db.logger.Info("running database migrations")

	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return errors.Wrap(err, "create migrations table")
	}

	names, err := Migrations()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := db.runMigration(ctx, name); err != nil {
			return errors.Wrapf(err, "run migration %s", name)
		}
	}
	return nil
}

func (db *Database) runMigration(ctx context.Context, name string) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		db.logger.Debug("skipping applied migration", "version", name)
		return nil
	}

	content, err := migrationFiles.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "read migration file")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return errors.Wrap(err, "execute migration")
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	db.logger.Info("applied migration", "version", name)
	return nil
}

// HealthCheck pings the database.
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return db.conn.PingContext(ctx)
}
