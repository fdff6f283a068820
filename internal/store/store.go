package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrSchemaDrift is returned by Check when the database does not carry the
// document layout this package writes.
var ErrSchemaDrift = errors.New("document store schema drift")

// migration upgrades the documents table to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations are applied in order inside one transaction each; user_version
// records the last one applied.
var migrations = []migration{
	{
		version: 1,
		name:    "idx_documents_entity_seq",
		stmt: `CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_entity_seq
			ON documents(entity, seq)`,
	},
	{
		version: 2,
		name:    "documents_seq_immutable",
		stmt: `CREATE TRIGGER IF NOT EXISTS documents_seq_immutable
			BEFORE UPDATE OF seq ON documents
			WHEN NEW.seq <> OLD.seq
			BEGIN
				SELECT RAISE(ABORT, 'document seq is immutable');
			END`,
	},
}

// schemaVersion is the user_version of a fully migrated store.
var schemaVersion = migrations[len(migrations)-1].version

// settings are the connection pragmas Open applies and Check expects back.
var settings = []struct {
	pragma string
	set    string
	want   string
}{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// Store keeps mapped documents per entity in insertion order.
// A single SQLite connection in WAL mode serializes writers.
type Store struct {
	db     *sql.DB
	memory bool
}

// Open creates or opens the store at path and brings it to the current
// schema version. Opening an up-to-date store is a no-op.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, memory: path == ":memory:"}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, st := range settings {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", st.pragma, st.set)); err != nil {
			return fmt.Errorf("pragma %s: %w", st.pragma, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return s.migrate(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Version reports the applied schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

func (s *Store) migrate(ctx context.Context) error {
	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if current > schemaVersion {
		return fmt.Errorf("%w: store is at version %d, newer than %d", ErrSchemaDrift, current, schemaVersion)
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}

// Check verifies the connection settings, the schema version and that every
// migration object is present. Failures wrap ErrSchemaDrift. In-memory
// stores have no WAL journal.
func (s *Store) Check(ctx context.Context) error {
	for _, st := range settings {
		if s.memory && st.pragma == "journal_mode" {
			continue
		}
		if err := s.expectPragma(ctx, st.pragma, st.want); err != nil {
			return err
		}
	}

	v, err := s.Version(ctx)
	if err != nil {
		return err
	}
	if v != schemaVersion {
		return fmt.Errorf("%w: user_version = %d, expected %d", ErrSchemaDrift, v, schemaVersion)
	}

	for _, m := range migrations {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE name = ? AND tbl_name = 'documents'`,
			m.name).Scan(&n)
		if err != nil {
			return fmt.Errorf("look up %s: %w", m.name, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s is missing", ErrSchemaDrift, m.name)
		}
	}
	return nil
}

func (s *Store) expectPragma(ctx context.Context, name, want string) error {
	var got string
	if err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&got); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%w: %s = %q, expected %q", ErrSchemaDrift, name, got, want)
	}
	return nil
}
