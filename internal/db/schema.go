package db

// Schema contains the SQL statements for the shared notes database.
//
// deleted_at is the soft-delete marker: NULL means active. Rows are never
// physically removed by the API; the partial index keeps owner-scoped
// listing of active notes cheap.
const Schema = `
CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    deleted_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_notes_owner_active
    ON notes(user_id, created_at DESC) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_notes_deleted_at ON notes(deleted_at);
`
