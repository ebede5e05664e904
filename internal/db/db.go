// Package db is the SQLite persistence adapter for notes. It is a thin
// translation layer with no business rules: ownership and deletion-state
// checks belong to the notes service.
//
// The database file is opened once at startup and shared by all requests;
// per-row atomicity of the individual statements below is the only
// consistency mechanism (last write wins on concurrent updates).
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/kuitang/notes-api/internal/notes"
)

const (
	// MaxOpenConns caps the connection pool. SQLite is single-writer, so
	// high connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle pooled connections.
	MaxIdleConns = 2
)

// inmemCounter provides unique names for in-memory databases so concurrent
// tests get isolated stores.
var inmemCounter atomic.Int64

// Store is the SQLite-backed note repository.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the notes database at path. keyHex, when
// non-empty, is a 32-byte hex SQLCipher key; the database is then encrypted
// at rest. Close must be called on shutdown to drain the pool.
func Open(path, keyHex string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	if keyHex != "" {
		dsn += fmt.Sprintf("&_pragma_key=x'%s'&_pragma_cipher_page_size=4096", keyHex)
	}

	return open(dsn)
}

// OpenInMemory creates a fresh, isolated in-memory store. Used by tests and
// by local runs that do not need persistence.
func OpenInMemory() (*Store, error) {
	dsn := fmt.Sprintf("file:notes%d?mode=memory&cache=shared", inmemCounter.Add(1))
	return open(dsn)
}

func open(dsn string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open notes database: %w", err)
	}

	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping notes database: %w", err)
	}

	if _, err := sqlDB.Exec(Schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize notes schema: %w", err)
	}

	return &Store{db: sqlDB}, nil
}

// DB returns the underlying sql.DB for direct access when needed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close drains and closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new note owned by userID and returns it with the
// store-assigned id and creation time.
func (s *Store) Create(ctx context.Context, userID, title, content string) (notes.Note, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, title, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, title, content, now.Unix(),
	)
	if err != nil {
		return notes.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return notes.Note{}, fmt.Errorf("note id: %w", err)
	}

	return notes.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		UserID:    userID,
		CreatedAt: time.Unix(now.Unix(), 0).UTC(),
	}, nil
}

// ListActive returns userID's non-deleted notes ordered by created_at
// descending, with offset/limit paging. The page is finite and offset-based;
// concurrent inserts can shift page boundaries.
func (s *Store) ListActive(ctx context.Context, userID string, limit, offset int) ([]notes.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, created_at, deleted_at
		   FROM notes
		  WHERE user_id = ? AND deleted_at IS NULL
		  ORDER BY created_at DESC, id DESC
		  LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	result := make([]notes.Note, 0, limit)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan notes: %w", err)
	}
	return result, nil
}

// Get returns the note with the given id regardless of owner or deletion
// state. Returns notes.ErrNotFound when no row matches.
func (s *Store) Get(ctx context.Context, id int64) (notes.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, created_at, deleted_at FROM notes WHERE id = ?`,
		id,
	)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return notes.Note{}, notes.ErrNotFound
	}
	if err != nil {
		return notes.Note{}, err
	}
	return note, nil
}

// Update overwrites title and content only. The caller must have already
// verified ownership and non-deleted state.
func (s *Store) Update(ctx context.Context, id int64, title, content string) (notes.Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ? WHERE id = ?`,
		title, content, id,
	)
	if err != nil {
		return notes.Note{}, fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return notes.Note{}, fmt.Errorf("update note: %w", err)
	}
	if affected == 0 {
		return notes.Note{}, notes.ErrNotFound
	}
	return s.Get(ctx, id)
}

// SoftDelete marks the note deleted by setting deleted_at. The WHERE guard
// keeps an existing deleted_at intact even if the caller races with itself.
func (s *Store) SoftDelete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("soft delete note: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("soft delete note: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (notes.Note, error) {
	var (
		note      notes.Note
		createdAt int64
		deletedAt sql.NullInt64
	)
	if err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &createdAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notes.Note{}, sql.ErrNoRows
		}
		return notes.Note{}, fmt.Errorf("scan note: %w", err)
	}
	note.CreatedAt = time.Unix(createdAt, 0).UTC()
	if deletedAt.Valid {
		t := time.Unix(deletedAt.Int64, 0).UTC()
		note.DeletedAt = &t
	}
	return note, nil
}
