package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	storage_key       TEXT NOT NULL,
	file_size_bytes   INTEGER NOT NULL,
	content_type      TEXT NOT NULL,
	status            TEXT NOT NULL,
	total_pages       INTEGER NOT NULL DEFAULT 0,
	total_chunks      INTEGER NOT NULL DEFAULT 0,
	article_ids       TEXT NOT NULL DEFAULT '[]',
	error_message     TEXT NOT NULL DEFAULT '',
	processing_log    TEXT NOT NULL DEFAULT '[]',
	stats             TEXT NOT NULL DEFAULT '{}',
	uploaded_at       TEXT NOT NULL,
	started_at        TEXT NOT NULL DEFAULT '',
	completed_at      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);

CREATE TABLE IF NOT EXISTS articles (
	id                 TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	category           TEXT NOT NULL,
	content            TEXT NOT NULL,
	tags               TEXT NOT NULL DEFAULT '[]',
	image_url          TEXT NOT NULL DEFAULT '',
	image_attribution  TEXT NOT NULL DEFAULT '',
	reading_level      REAL NOT NULL DEFAULT 0,
	status             TEXT NOT NULL,
	source_document_id TEXT NOT NULL,
	source_chunk_id    TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_document_id);
`

// Store implements DocumentStore and ArticleStore over one sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an isolated in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}
