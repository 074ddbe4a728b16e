package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mattsolo1/grove-tagtree/pkg/models"
)

// Store persists raw document extractions between runs so a restart
// can skip re-reading documents whose modification time is unchanged.
// The links column always holds the outgoing set; direction resolution
// happens in the cache after its index is rebuilt.
type Store struct {
	db *sql.DB
}

// OpenStore opens the fact database at dbPath, creating it and its
// parent directory if needed.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache database: %w", err)
	}
	return s, nil
}

// init creates the database schema
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS facts (
		path TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		links TEXT NOT NULL DEFAULT '[]',
		modified_at INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or replaces the stored extraction for one document.
func (s *Store) Put(raw *models.RawDocument) error {
	tags, err := json.Marshal(raw.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	links, err := json.Marshal(raw.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO facts (path, title, tags, links, modified_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query, raw.Path, raw.Title, tags, links,
		raw.MTime.UnixNano(), raw.CTime.UnixNano())
	return err
}

// Delete removes the stored extraction for path, if any.
func (s *Store) Delete(path string) error {
	_, err := s.db.Exec(`DELETE FROM facts WHERE path = ?`, path)
	return err
}

// LoadAll returns every stored extraction.
func (s *Store) LoadAll() ([]*models.RawDocument, error) {
	rows, err := s.db.Query(`
	SELECT path, title, tags, links, modified_at, created_at
	FROM facts ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raws []*models.RawDocument
	for rows.Next() {
		raw := &models.RawDocument{}
		var tags, links string
		var mtime, ctime int64
		if err := rows.Scan(&raw.Path, &raw.Title, &tags, &links, &mtime, &ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &raw.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for %s: %w", raw.Path, err)
		}
		if err := json.Unmarshal([]byte(links), &raw.Links); err != nil {
			return nil, fmt.Errorf("unmarshal links for %s: %w", raw.Path, err)
		}
		raw.MTime = time.Unix(0, mtime)
		raw.CTime = time.Unix(0, ctime)
		raws = append(raws, raw)
	}
	return raws, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
