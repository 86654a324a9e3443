package storage

const schema = `
-- The 'items' table stores every saved study record, whatever its type.
CREATE TABLE IF NOT EXISTS items (
    hash TEXT PRIMARY KEY,
    content_type TEXT NOT NULL,
    title TEXT NOT NULL,
    topic TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL, -- JSON encoded record
    stability REAL,
    difficulty REAL,
    due_date DATETIME NOT NULL,
    last_review DATETIME,
    state INTEGER DEFAULT 0, -- 0: New, 1: Learning, 2: Review
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_items_due ON items(due_date);
CREATE INDEX IF NOT EXISTS idx_items_source ON items(source_id);

-- The 'sources' table tracks where items came from, either a local directory
-- of saved transcripts or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'review_logs' table keeps one row per review of an item.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_hash TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    grade INTEGER NOT NULL
);
`
