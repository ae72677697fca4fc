package docstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	_ "modernc.org/sqlite"

	"github.com/randalmurphal/convoflow"
)

// ErrNotFound indicates no document matches the query.
var ErrNotFound = errors.New("document not found")

// Record is one stored compiled document.
type Record struct {
	ID        string
	Agent     string
	Body      json.RawMessage
	CreatedAt time.Time
}

// Store is a SQLite-backed registry of compiled workflow documents.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if necessary) a document store at the given path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create docstore directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open docstore: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize docstore: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			agent      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_agent ON documents(agent, created_at);
	`)
	return err
}

// Save stores a compiled document for an agent and returns the new record
// ID.
func (s *Store) Save(agent string, doc *convoflow.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate document id: %w", err)
	}
	id = "doc_" + id

	_, err = s.db.Exec(`
		INSERT INTO documents (id, agent, body, created_at)
		VALUES (?, ?, ?, ?)
	`, id, agent, string(body), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}
	return id, nil
}

// Get returns one stored document by ID.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, agent, body, created_at FROM documents WHERE id = ?
	`, id)
	return scanRecord(row)
}

// Latest returns the most recently saved document for an agent.
func (s *Store) Latest(agent string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, agent, body, created_at FROM documents
		WHERE agent = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, agent)
	return scanRecord(row)
}

// ListByAgent returns documents for an agent, newest first.
func (s *Store) ListByAgent(agent string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, agent, body, created_at FROM documents
		WHERE agent = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, agent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var body, createdAt string
		if err := rows.Scan(&rec.ID, &rec.Agent, &body, &createdAt); err != nil {
			return nil, err
		}
		rec.Body = json.RawMessage(body)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var body, createdAt string

	err := row.Scan(&rec.ID, &rec.Agent, &body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Body = json.RawMessage(body)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}
