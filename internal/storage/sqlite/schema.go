// ABOUTME: SQLite database schema for the embedded vector store
// ABOUTME: A collections table fixes each collection's dimension; records hold vectors as BLOBs
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Collections table (one row per named collection)
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Records table (one row per chunk; seq preserves insertion order)
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
    id TEXT NOT NULL,
    content TEXT NOT NULL,
    payload TEXT NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection);
`

// SchemaVersion is stamped into PRAGMA user_version
const SchemaVersion = 1
