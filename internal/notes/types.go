package notes

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultLimit is the page size used when the client sends no (or an
	// invalid) limit parameter.
	DefaultLimit = 10

	// MaxLimit is the maximum number of notes returned in one page.
	MaxLimit = 100

	// MaxTitleLen is the maximum title length in characters.
	MaxTitleLen = 200

	// MaxContentLen is the maximum content length in characters.
	MaxContentLen = 5000
)

// ErrNotFound is returned by Store implementations when no note has the
// requested id. The pipeline converts it to an opaque permission failure so
// callers cannot probe for note existence.
var ErrNotFound = errors.New("note not found")

// Note is the sole persisted entity: a user's note with soft-delete state.
// ID and UserID are immutable after creation.
type Note struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the note has been soft-deleted.
func (n Note) Deleted() bool {
	return n.DeletedAt != nil
}

// NoteInput is the request body for create and update operations.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Store is the persistence contract the pipeline depends on. It is a thin
// translation layer: ownership and deletion-state rules live in Service,
// not here. Get is deliberately unscoped; the caller checks ownership.
type Store interface {
	Create(ctx context.Context, userID, title, content string) (Note, error)
	ListActive(ctx context.Context, userID string, limit, offset int) ([]Note, error)
	Get(ctx context.Context, id int64) (Note, error)
	Update(ctx context.Context, id int64, title, content string) (Note, error)
	SoftDelete(ctx context.Context, id int64) error
}
