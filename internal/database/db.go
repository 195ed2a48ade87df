// Package database provides database connection management.
package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/at-ishikawa/langtek/internal/config"
	"github.com/at-ishikawa/langtek/schemas"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// sqliteBusyTimeout is how long a writer waits on a locked database file before failing.
const sqliteBusyTimeout = 30 * time.Second

// Open opens a connection using the provided config.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(cfg)
	case DriverMySQL:
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open(DriverSQLite, sqliteDSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}
	// A single writer connection avoids "database is locked" between the lookup path and the backfill worker.
	db.SetMaxOpenConns(1)
	return db, nil
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=DELETE&_synchronous=FULL",
		path, sqliteBusyTimeout.Milliseconds())
}

func openMySQL(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Database
	mysqlCfg.ParseTime = true
	if cfg.TLS {
		mysqlCfg.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		mysqlCfg.Params = cfg.Params
	}

	db, err := sqlx.Open(DriverMySQL, mysqlCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return db, nil
}

// RunInTx runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise, it is committed.
func RunInTx(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Migrate applies the embedded migrations for the connection's driver in file name order.
// Every statement is written with IF NOT EXISTS, so running it twice is harmless.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements, err := migrationStatements(schemas.Migrations, db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func migrationStatements(fsys fs.FS, driver string) ([]string, error) {
	dir := path.Join("migrations", driver)
	files, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list migrations in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found for driver %q", driver)
	}
	sort.Strings(files)

	var statements []string
	for _, file := range files {
		contents, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		for _, stmt := range strings.Split(string(contents), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
	}
	return statements, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
