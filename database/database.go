package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Database struct {
	db      *sqlx.DB
	writeMu sync.Mutex
	tracker *invalidationTracker
	logger  *log.Entry
}

// New opens the cache at dbPath, creating the parent directory if needed.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	// Pragmas go through the DSN so every pooled connection gets them;
	// foreign_keys in particular is per connection.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &Database{
		db:      db,
		tracker: newInvalidationTracker(),
		logger: log.WithFields(log.Fields{
			"module": "database",
		}),
	}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Infof("Database initialized at %s (schema version %d)", dbPath, SchemaVersion)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// migrate recreates the schema from scratch whenever the stored version
// differs from SchemaVersion. Cached data is disposable.
func (d *Database) migrate(ctx context.Context) error {
	var version int
	if err := d.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version != SchemaVersion {
		if version != 0 {
			d.logger.Warnf("schema version %d does not match %d, dropping cached data", version, SchemaVersion)
		}
		for _, table := range dropOrder {
			if _, err := d.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("failed to drop %s: %w", table, err)
			}
		}
	}

	for _, m := range schema {
		if _, err := d.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	if version != SchemaVersion {
		if _, err := d.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

// Tx is a write transaction. It records which tables were touched so
// observers of those tables re-run once the transaction commits.
type Tx struct {
	tx      *sqlx.Tx
	touched map[string]struct{}
}

func (tx *Tx) touch(tables ...string) {
	for _, t := range tables {
		tx.touched[t] = struct{}{}
	}
}

func (tx *Tx) tables() []string {
	tables := make([]string, 0, len(tx.touched))
	for t := range tx.touched {
		tables = append(tables, t)
	}
	return tables
}

// WithTx runs fn in a single write transaction. Writers are serialised; on
// success every observer of a touched table is invalidated once.
func (d *Database) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	sqlTx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{tx: sqlTx, touched: make(map[string]struct{})}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			d.logger.Warnf("rollback failed: %v", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	d.tracker.notify(tx.tables())
	return nil
}

// read runs query inside one transaction so joined results are consistent.
func read[T any](ctx context.Context, d *Database, query func(ctx context.Context, tx *sqlx.Tx) (T, bool, error)) (T, bool, error) {
	var zero T
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return zero, false, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	return query(ctx, tx)
}
