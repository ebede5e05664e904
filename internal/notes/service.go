// Package notes implements the owner-scoped note pipeline: input validation,
// ownership enforcement, and the soft-delete state rules around a Note.
package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/kuitang/notes-api/internal/errs"
)

// Service composes the per-request gates for note operations. Callers are
// already authenticated; userID is the verified subject of the bearer token.
//
// Every gate resolves to a coded error (errs.Code) so HTTP handlers can map
// outcomes without string matching; anything untyped is an unexpected failure
// that surfaces as a 500.
type Service struct {
	store Store
}

// NewService creates a notes service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates the payload and inserts a note owned by userID.
func (s *Service) Create(ctx context.Context, userID string, in NoteInput) (Note, error) {
	norm, err := ValidateInput(in)
	if err != nil {
		return Note{}, err
	}

	// Mutations run to completion even if the client disconnects.
	note, err := s.store.Create(context.WithoutCancel(ctx), userID, norm.Title, norm.Content)
	if err != nil {
		return Note{}, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

// List returns a page of the caller's active notes, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Note, error) {
	limit, offset = ClampPage(limit, offset)

	result, err := s.store.ListActive(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if result == nil {
		result = []Note{}
	}
	return result, nil
}

// Update overwrites the title and content of an owned, active note.
//
// A missing note and a foreign-owned note both fail with the same opaque
// permission error so the endpoint does not leak note existence.
func (s *Service) Update(ctx context.Context, userID string, id int64, in NoteInput) (Note, error) {
	norm, err := ValidateInput(in)
	if err != nil {
		return Note{}, err
	}
	// Redundant with ValidateInput, kept as a defense-in-depth gate on the
	// update path specifically.
	if norm.Title == "" {
		return Note{}, errs.New(errs.InvalidArgument, "Title required")
	}

	note, err := s.authorize(ctx, userID, id)
	if err != nil {
		return Note{}, err
	}
	if note.Deleted() {
		return Note{}, errs.New(errs.InvalidArgument, "Cannot modify deleted note")
	}

	updated, err := s.store.Update(context.WithoutCancel(ctx), id, norm.Title, norm.Content)
	if err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// Delete soft-deletes an owned, active note. Deleting an already-deleted
// note fails the same way as updating one: deleted_at is set at most once
// and never overwritten.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	note, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}
	if note.Deleted() {
		return errs.New(errs.InvalidArgument, "Cannot modify deleted note")
	}

	if err := s.store.SoftDelete(context.WithoutCancel(ctx), id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// authorize loads the note and enforces ownership. Absent and foreign notes
// are indistinguishable to the caller.
func (s *Service) authorize(ctx context.Context, userID string, id int64) (Note, error) {
	note, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Note{}, errs.New(errs.PermissionDenied, "Forbidden")
	}
	if err != nil {
		return Note{}, fmt.Errorf("load note: %w", err)
	}
	if note.UserID != userID {
		return Note{}, errs.New(errs.PermissionDenied, "Forbidden")
	}
	return note, nil
}
