package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"tessera/internal/domain"
	"tessera/internal/repository"

	_ "modernc.org/sqlite"
)

// Store implements repository.Store using SQLite
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store at the given path. Use ":memory:" for an
// in-memory store.
func New(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: SQLite serializes the writer anyway, and a single
	// pool connection keeps an in-memory database from being sharded across
	// pool members.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_defs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL CHECK (kind IN ('entity', 'relation')),
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attribute_defs (
		id TEXT PRIMARY KEY,
		schema_id TEXT NOT NULL REFERENCES schema_defs(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		data_type TEXT NOT NULL CHECK (data_type IN ('text', 'integer', 'real', 'boolean')),
		is_display INTEGER NOT NULL DEFAULT 0,
		UNIQUE (schema_id, name)
	);

	CREATE TABLE IF NOT EXISTS role_defs (
		id TEXT PRIMARY KEY,
		schema_id TEXT NOT NULL REFERENCES schema_defs(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('source', 'target', 'none')),
		cardinality TEXT NOT NULL CHECK (cardinality IN ('one', 'many')),
		allowed_schemas TEXT,
		UNIQUE (schema_id, name)
	);

	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entity_types (
		entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		schema_id TEXT NOT NULL REFERENCES schema_defs(id) ON DELETE CASCADE,
		PRIMARY KEY (entity_id, schema_id)
	);

	CREATE TABLE IF NOT EXISTS attribute_values (
		entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		attribute_id TEXT NOT NULL REFERENCES attribute_defs(id) ON DELETE CASCADE,
		val_text TEXT,
		val_int INTEGER,
		val_real REAL,
		val_bool INTEGER,
		PRIMARY KEY (entity_id, attribute_id),
		CHECK ((val_text IS NOT NULL) + (val_int IS NOT NULL) + (val_real IS NOT NULL) + (val_bool IS NOT NULL) = 1)
	);

	CREATE TABLE IF NOT EXISTS relation_links (
		relation_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		participant_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		role_id TEXT NOT NULL REFERENCES role_defs(id) ON DELETE CASCADE,
		PRIMARY KEY (relation_id, participant_id, role_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_created ON entities(created_at, id);
	CREATE INDEX IF NOT EXISTS idx_entity_types_schema ON entity_types(schema_id);
	CREATE INDEX IF NOT EXISTS idx_attribute_defs_schema ON attribute_defs(schema_id);
	CREATE INDEX IF NOT EXISTS idx_attribute_values_attr ON attribute_values(attribute_id);
	CREATE INDEX IF NOT EXISTS idx_role_defs_schema ON role_defs(schema_id);
	CREATE INDEX IF NOT EXISTS idx_relation_links_participant ON relation_links(participant_id);
	CREATE INDEX IF NOT EXISTS idx_relation_links_role ON relation_links(role_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Mutate runs fn inside a single transaction, rolling back on any error so
// no partial entity, type, value or link state is ever observable.
func (s *Store) Mutate(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.StorageError("commit transaction", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx implements repository.Tx against one open transaction.
type Tx struct {
	tx *sql.Tx
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// read helpers can serve both the committed read path and in-transaction
// lookups.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ repository.Store = (*Store)(nil)
	_ repository.Tx    = (*Tx)(nil)
)
