package kb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on property_values.object_id for cascading deletes
const currentSchemaVersion = 1

// DefaultBaseIRI is used when no base IRI is configured.
const DefaultBaseIRI = "http://cfeval.local/kb"

// KB is a SQLite-backed ontology knowledge base.
type KB struct {
	db       *sql.DB
	base     string
	reasoner Reasoner
	logger   *slog.Logger
}

// Option configures a KB.
type Option func(*KB)

// WithReasoner sets the reasoner used by CheckConsistency.
func WithReasoner(r Reasoner) Option {
	return func(k *KB) { k.reasoner = r }
}

// WithBaseIRI sets the IRI prefix for individuals created by name.
func WithBaseIRI(base string) Option {
	return func(k *KB) {
		if base != "" {
			k.base = base
		}
	}
}

// WithLogger sets the logger for knowledge base operations.
func WithLogger(logger *slog.Logger) Option {
	return func(k *KB) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// Open creates or opens a knowledge base at the given path.
// Use ":memory:" for an isolated in-memory knowledge base.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (required for cascading retraction)
func Open(path string, opts ...Option) (*KB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to knowledge base: %w", err)
	}

	// A single connection keeps pragmas and in-memory databases stable.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	k := &KB{
		db:     db,
		base:   DefaultBaseIRI,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Close closes the database connection.
func (k *KB) Close() error {
	if k.db == nil {
		return nil
	}
	return k.db.Close()
}

// Base returns the IRI prefix used for individuals created by name.
func (k *KB) Base() string {
	return k.base
}

// SetBase changes the IRI prefix for individuals created from now on.
func (k *KB) SetBase(base string) {
	if base != "" {
		k.base = base
	}
}

// IndividualIRI returns the IRI an individual with the given name receives.
func (k *KB) IndividualIRI(name string) string {
	if strings.HasSuffix(k.base, "#") || strings.HasSuffix(k.base, "/") {
		return k.base + name
	}
	return k.base + "#" + name
}

// CheckConsistency asks the configured reasoner whether the current state is consistent.
func (k *KB) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	if k.reasoner == nil {
		return nil, ErrNoReasoner
	}

	snap, err := k.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("check consistency: %w", err)
	}

	report, err := k.reasoner.Check(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("check consistency: %w", err)
	}

	k.logger.Debug("consistency checked",
		"consistent", report.Consistent,
		"clashes", len(report.Clashes),
	)
	return report, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_property_values_object
			ON property_values(object_id)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
