package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kuitang/notes-api/internal/notes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_CreatesFileAndDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "notes.db")
	store, err := Open(path, "")
	if err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	defer store.Close()

	if _, err := store.Create(context.Background(), "alice", "hello", ""); err != nil {
		t.Fatalf("create on file-backed store: %v", err)
	}
}

func TestOpen_WithEncryptionKey(t *testing.T) {
	t.Parallel()

	key := strings.Repeat("ab", 32)
	path := filepath.Join(t.TempDir(), "encrypted.db")
	store, err := Open(path, key)
	if err != nil {
		t.Fatalf("open encrypted store: %v", err)
	}
	if _, err := store.Create(context.Background(), "alice", "secret", ""); err != nil {
		t.Fatalf("create on encrypted store: %v", err)
	}
	store.Close()

	// Reopening with the same key sees the data.
	reopened, err := Open(path, key)
	if err != nil {
		t.Fatalf("reopen encrypted store: %v", err)
	}
	defer reopened.Close()
	listed, err := reopened.ListActive(context.Background(), "alice", 10, 0)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "secret" {
		t.Fatalf("data lost across reopen: %+v", listed)
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "alice", "title", "content")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.UserID != "alice" || got.Title != "title" || got.Content != "content" {
		t.Fatalf("roundtrip mismatch: created=%+v got=%+v", created, got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created.CreatedAt)
	}
	if got.DeletedAt != nil {
		t.Fatal("fresh note has deleted_at set")
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 12345)
	if !errors.Is(err, notes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.Update(context.Background(), 12345, "t", "c")
	if !errors.Is(err, notes.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListActiveFiltersAndOrders(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		n, err := store.Create(ctx, "alice", fmt.Sprintf("note %d", i), "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, n.ID)
	}
	if _, err := store.Create(ctx, "bob", "bob note", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SoftDelete(ctx, ids[1]); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	listed, err := store.ListActive(ctx, "alice", 100, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{ids[3], ids[2], ids[0]}
	if len(listed) != len(want) {
		t.Fatalf("expected %d notes, got %d: %+v", len(want), len(listed), listed)
	}
	for i, n := range listed {
		if n.ID != want[i] {
			t.Fatalf("position %d: got id %d, want %d", i, n.ID, want[i])
		}
		if n.UserID != "alice" {
			t.Fatalf("foreign note listed: %+v", n)
		}
		if n.DeletedAt != nil {
			t.Fatalf("deleted note listed: %+v", n)
		}
	}

	// Get still sees the soft-deleted row.
	deleted, err := store.Get(ctx, ids[1])
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if deleted.DeletedAt == nil {
		t.Fatal("deleted_at not set after soft delete")
	}
}

func TestStore_SoftDeleteKeepsFirstTimestamp(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Create(ctx, "alice", "doomed", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SoftDelete(ctx, n.ID); err != nil {
		t.Fatalf("first soft delete: %v", err)
	}
	first, err := store.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)
	if err := store.SoftDelete(ctx, n.ID); err != nil {
		t.Fatalf("second soft delete: %v", err)
	}
	second, err := store.Get(ctx, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !second.DeletedAt.Equal(*first.DeletedAt) {
		t.Fatalf("deleted_at moved on repeat delete: %v -> %v", first.DeletedAt, second.DeletedAt)
	}
}

func TestStore_UpdatePreservesOwnerAndTimestamps(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.Create(ctx, "alice", "before", "old")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := store.Update(ctx, n.ID, "after", "new")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "after" || updated.Content != "new" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.UserID != "alice" || !updated.CreatedAt.Equal(n.CreatedAt) {
		t.Fatalf("update touched immutable columns: %+v", updated)
	}
}

func TestOpenInMemory_IsolatedStores(t *testing.T) {
	t.Parallel()

	a := newTestStore(t)
	b := newTestStore(t)

	if _, err := a.Create(context.Background(), "alice", "only in a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	listed, err := b.ListActive(context.Background(), "alice", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("stores share state: %+v", listed)
	}
}
