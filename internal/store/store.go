package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// journalApplicationID marks the SQLite header of every journal ("hstr").
const journalApplicationID = 0x68737472

// journalVersion is the newest layout this build reads and writes, kept in
// PRAGMA user_version:
//
//	0  schema.sql only
//	1  runs indexed by equation table
//	2  header stamped with journalApplicationID
const journalVersion = 2

var (
	// ErrNotJournal is returned for a database some other program owns.
	ErrNotJournal = errors.New("not an hstar journal")

	// ErrJournalTooNew is returned for a journal written by a newer build.
	ErrJournalTooNew = errors.New("journal layout is newer than this build")
)

// migrations[v] moves a journal from version v to v+1.
var migrations = []struct {
	name string
	stmt string
}{
	{"index runs by equation table", `CREATE INDEX IF NOT EXISTS idx_runs_equations ON runs(equations_hash)`},
	{"stamp application id", fmt.Sprintf("PRAGMA application_id = %d", journalApplicationID)},
}

// journalColumns lists the columns every journal table must carry. A table
// created by something else under the same name is rejected.
var journalColumns = map[string][]string{
	"equation_tables": {"hash", "equations"},
	"runs":            strings.Split(runColumns, ", "),
}

// Store is the durable run journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal at path.
//
// A new file is laid out from schema.sql and migrated to journalVersion. An
// existing file must be an hstar journal: a foreign application id, unknown
// tables in an unstamped file, or a runs table missing columns yield
// ErrNotJournal, and a newer layout yields ErrJournalTooNew. Rejected files
// are left untouched.
//
// Safe to call repeatedly on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// One writer; runs are appended from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := checkIdentity(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// checkIdentity reads the header fields before anything is written.
func checkIdentity(db *sql.DB) error {
	var appID, version int64
	if err := db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	switch appID {
	case journalApplicationID:
	case 0:
		// New file or a journal from before the stamp.
		foreign, err := foreignTables(db)
		if err != nil {
			return err
		}
		if len(foreign) > 0 {
			return fmt.Errorf("%w: unexpected tables %s", ErrNotJournal, strings.Join(foreign, ", "))
		}
	default:
		return fmt.Errorf("%w: application_id %#x", ErrNotJournal, appID)
	}

	if version > journalVersion {
		return fmt.Errorf("%w: version %d, this build reads up to %d", ErrJournalTooNew, version, journalVersion)
	}
	return nil
}

// foreignTables lists user tables that no journal version creates.
func foreignTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND name NOT IN ('runs', 'equation_tables')
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// applyPragmas sets connection settings. WAL lets history and replay read
// while a run is being appended.
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

// applySchema creates missing tables and checks the columns of existing
// ones in one transaction, so a rejected file gains no tables.
func applySchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	for _, table := range []string{"equation_tables", "runs"} {
		if err := checkColumns(tx, table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// checkColumns fails with ErrNotJournal if table lacks a journal column.
func checkColumns(tx *sql.Tx, table string) error {
	rows, err := tx.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column of %s: %w", table, err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("columns of %s: %w", table, err)
	}

	var missing []string
	for _, col := range journalColumns[table] {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s lacks columns %s", ErrNotJournal, table, strings.Join(missing, ", "))
	}
	return nil
}

// runMigrations upgrades the journal one version per transaction.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		if err := migrate(db, v); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *sql.DB, from int) error {
	m := migrations[from]
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate to v%d: %w", from+1, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return fmt.Errorf("migrate to v%d (%s): %w", from+1, m.name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return fmt.Errorf("set user_version %d: %w", from+1, err)
	}
	return tx.Commit()
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
