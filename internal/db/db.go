// Package db opens the agent's SQLite database and applies the embedded
// schema migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const FileName = "clipper.db"

type DB struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates the database under dataDir.
func Open(dataDir string, logger *slog.Logger) (*DB, error) {
	return New(filepath.Join(dataDir, FileName), logger)
}

func New(dbPath string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, path: dbPath, logger: logger}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db.recoverInterruptedJobs()

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Path() string {
	return d.path
}

// Ping checks the connection, used by the health endpoint.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

func (d *DB) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	applied := d.appliedMigrations()

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}

		name := m.Name()
		if applied[name] {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", name, err)
		}

		d.log(slog.LevelInfo, "applied migration", "name", name)
	}

	return nil
}

// appliedMigrations returns the recorded migration names. A missing
// _migrations table means nothing has been applied yet.
func (d *DB) appliedMigrations() map[string]bool {
	applied := make(map[string]bool)

	rows, err := d.conn.Query("SELECT name FROM _migrations")
	if err != nil {
		return applied
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if rows.Scan(&name) == nil {
			applied[name] = true
		}
	}
	return applied
}

// recoverInterruptedJobs fails jobs left running by a previous process. A
// failure here is logged and never blocks startup.
func (d *DB) recoverInterruptedJobs() {
	n, err := d.markInterruptedJobs()
	switch {
	case err != nil:
		d.log(slog.LevelWarn, "failed to mark interrupted jobs", "error", err)
	case n > 0:
		d.log(slog.LevelInfo, "marked interrupted clip jobs as failed", "count", n)
	}
}

func (d *DB) markInterruptedJobs() (int64, error) {
	res, err := d.conn.ExecContext(context.Background(),
		`UPDATE jobs SET status = 'failed', phase = 'failed', error = 'interrupted by restart', updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE status = 'running'`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *DB) log(level slog.Level, msg string, args ...any) {
	if d.logger != nil {
		d.logger.Log(context.Background(), level, msg, args...)
	}
}
