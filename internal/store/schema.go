// Package store is the embedded relational index: a SQLite database
// (plain via modernc.org/sqlite, optionally page-encrypted via
// mutecomm/go-sqlcipher) holding one row per indexed path plus a small
// cache of drive-probe results (spec §4.G). Grounded on
// original_source/src/engine/db_ops/{mod,connection}.rs for schema and
// pragmas, and src/utils/tempfiles.rs for the atomic-replace dance.
package store

// schema is applied on every open; CREATE TABLE/INDEX IF NOT EXISTS makes
// it idempotent against an existing database.
const schema = `
CREATE TABLE IF NOT EXISTS paths (
	path TEXT PRIMARY KEY,
	mtime_ns INTEGER NOT NULL,
	size INTEGER NOT NULL,
	hash BLOB
);
CREATE INDEX IF NOT EXISTS idx_paths_path ON paths(path);

CREATE TABLE IF NOT EXISTS diskinfo (
	root_path TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
`

// walPragmas tune WAL behavior after journal_mode has been set to WAL:
// synchronous=NORMAL trades a sliver of crash durability for throughput
// (standard WAL advice), autocheckpoint every 10000 pages keeps the WAL
// from growing unbounded on a long run, and journal_size_limit caps how
// large the WAL file is allowed to grow between checkpoints.
const walPragmas = `
PRAGMA synchronous = NORMAL;
PRAGMA wal_autocheckpoint = 10000;
PRAGMA journal_size_limit = 67108864;
`

const insertPathSQL = `INSERT OR REPLACE INTO paths (path, mtime_ns, size, hash) VALUES (?, ?, ?, ?)`

const deletePathSQL = `DELETE FROM paths WHERE path = ?`

const selectPathsSQL = `SELECT path, mtime_ns, size, hash FROM paths`

const countPathsSQL = `SELECT COUNT(*) FROM paths`

const selectDiskInfoSQL = `SELECT data FROM diskinfo WHERE root_path = ?`

const upsertDiskInfoSQL = `INSERT OR REPLACE INTO diskinfo (root_path, data) VALUES (?, ?)`
