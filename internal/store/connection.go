package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mutecomm/go-sqlcipher/v4" // registers the "sqlite3" driver with page-cipher support
	_ "modernc.org/sqlite"                  // registers the "sqlite" driver (pure Go, unencrypted)

	"github.com/thicclatka/nefaxer/internal/diffengine"
)

// DB wraps an open index database connection.
type DB struct {
	conn       *sql.DB
	Encrypted  bool
	Passphrase string
}

// Open opens (creating if necessary) the database at path. When
// passphrase is non-empty, it is opened through the SQLCipher driver and
// the key pragma is set before anything else touches the connection.
func Open(path, passphrase string) (*DB, error) {
	var conn *sql.DB
	var err error
	if passphrase != "" {
		conn, err = sql.Open("sqlite3", path)
	} else {
		conn, err = sql.Open("sqlite", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if passphrase != "" {
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA key = '%s'", sqlQuote(passphrase))); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set sqlcipher key: %w", err)
		}
	}

	if err := applyWALAndSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, Encrypted: passphrase != "", Passphrase: passphrase}, nil
}

// OpenOrDetectEncrypted opens an existing database, probing whether it is
// encrypted: a bare open followed by a trivial read of sqlite_master fails
// against a SQLCipher-encrypted file opened without a key. On failure, getPassphrase
// is called to obtain the key (the caller wires this to
// internal/passphrase's env/.env/prompt precedence) and the database is
// reopened through the cipher driver.
func OpenOrDetectEncrypted(path string, getPassphrase func() (string, error)) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	var tables int
	if probeErr := conn.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&tables); probeErr == nil {
		if err := applyWALAndSchema(conn); err != nil {
			conn.Close()
			return nil, err
		}
		return &DB{conn: conn}, nil
	}
	conn.Close()

	passphrase, err := getPassphrase()
	if err != nil {
		return nil, fmt.Errorf("acquire passphrase for encrypted index: %w", err)
	}
	return Open(path, passphrase)
}

// OpenInMemory opens a throwaway, unencrypted, schema-only database that
// lives only in memory and never touches disk.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func applyWALAndSchema(conn *sql.DB) error {
	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec(walPragmas); err != nil {
		return fmt.Errorf("set WAL pragmas: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Checkpoint runs a WAL checkpoint that truncates the WAL file back to
// empty, called once a run's writes are all committed.
func (db *DB) Checkpoint() error {
	_, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

// Backup writes a consistent snapshot of the database to destPath via
// SQLite's VACUUM INTO, which is safe to run concurrently with readers.
func (db *DB) Backup(destPath string) error {
	if _, err := db.conn.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backup database: %w", err)
	}
	return nil
}

// LoadIndex reads every row from the paths table into a diffengine.Index,
// the shape the diff engine expects as its "existing" snapshot.
func (db *DB) LoadIndex() (diffengine.Index, error) {
	rows, err := db.conn.Query(selectPathsSQL)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	index := make(diffengine.Index)
	for rows.Next() {
		var path string
		var mtimeNs, size int64
		var hash []byte
		if err := rows.Scan(&path, &mtimeNs, &size, &hash); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}
		if size < 0 {
			size = 0
		}
		index[path] = diffengine.StoredMeta{MtimeNs: mtimeNs, Size: uint64(size), Hash: hash}
	}
	return index, rows.Err()
}

// CountPaths returns the number of rows in the paths table, for callers
// that only need a count (such as the governor's channel-capacity tuning)
// and would otherwise have to load the full index just to take len().
func (db *DB) CountPaths() (int, error) {
	var n int
	if err := db.conn.QueryRow(countPathsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count paths: %w", err)
	}
	return n, nil
}

// WriteBatch inserts or replaces a batch of entries in a single
// transaction, matching original_source's flush_batch.
func (db *DB) WriteBatch(entries []diffengine.ResultEntry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertPathSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, e := range entries {
		if _, err := stmt.Exec(e.Path, e.MtimeNs, int64(e.Size), hashOrNil(e.Hash)); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert path %s: %w", e.Path, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteRemoved removes every path in removed from the paths table in a
// single transaction.
func (db *DB) DeleteRemoved(removed []string) error {
	if len(removed) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(deletePathSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare delete: %w", err)
	}
	for _, path := range removed {
		if _, err := stmt.Exec(path); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("delete path %s: %w", path, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sqlQuote escapes a single-quoted SQL string literal. PRAGMA statements
// cannot take bound parameters in the sqlite drivers this package uses, so
// the passphrase must be inlined; doubling embedded quotes is SQLite's
// standard escaping for string literals.
func sqlQuote(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func hashOrNil(h []byte) any {
	if h == nil {
		return nil
	}
	return h
}
