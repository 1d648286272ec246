package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnichat/backend/internal/model/chat"
)

func testSession(id, text string, updatedAt time.Time) chat.Session {
	return chat.Session{
		ID:    id,
		Title: text,
		Messages: []chat.Message{
			{ID: id + "-m1", Text: text, Sender: chat.SenderUser, CreatedAt: updatedAt},
		},
		UpdatedAt: updatedAt,
	}
}

func TestUpsertRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))

	want := testSession("s1", "hello", time.Now())
	store.Upsert(want)

	sessions := store.List()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.ID != want.ID || got.Title != want.Title || len(got.Messages) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Messages[0].Text != "hello" {
		t.Fatalf("unexpected message text: %q", got.Messages[0].Text)
	}
}

func TestListOrderedByRecency(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))

	base := time.Now()
	store.Upsert(testSession("old", "old", base.Add(-time.Hour)))
	store.Upsert(testSession("new", "new", base))
	store.Upsert(testSession("mid", "mid", base.Add(-time.Minute)))

	sessions := store.List()
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "new" || sessions[1].ID != "mid" || sessions[2].ID != "old" {
		t.Fatalf("unexpected order: %s, %s, %s", sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))

	store.Upsert(testSession("s1", "first", time.Now().Add(-time.Minute)))
	store.Upsert(testSession("s1", "second", time.Now()))

	sessions := store.List()
	if len(sessions) != 1 {
		t.Fatalf("expected replacement, got %d sessions", len(sessions))
	}
	if sessions[0].Title != "second" {
		t.Fatalf("unexpected title: %q", sessions[0].Title)
	}
}

func TestUpsertIgnoresEmptySession(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))

	store.Upsert(chat.Session{ID: "empty", Title: "New Chat", UpdatedAt: time.Now()})

	if got := store.List(); len(got) != 0 {
		t.Fatalf("empty session must not be persisted, got %d", len(got))
	}
}

func TestUpsertToleratesEmptyTitle(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))

	session := testSession("s1", "", time.Now())
	store.Upsert(session)

	sessions := store.List()
	if len(sessions) != 1 || sessions[0].Title != "" {
		t.Fatalf("attachment-only title rejected: %+v", sessions)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "sessions.json"))
	store.Upsert(testSession("s1", "keep", time.Now()))

	sessions := store.Remove("missing")
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("unexpected list after removing unknown id: %+v", sessions)
	}
}

func TestRemoveDeletesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store := NewStore(path)
	store.Upsert(testSession("s1", "gone", time.Now()))

	if sessions := store.Remove("s1"); len(sessions) != 0 {
		t.Fatalf("expected empty list, got %d", len(sessions))
	}

	reopened := NewStore(path)
	if sessions := reopened.List(); len(sessions) != 0 {
		t.Fatalf("removal not persisted, got %d", len(sessions))
	}
}

func TestReloadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store := NewStore(path)
	store.Upsert(testSession("s1", "durable", time.Now()))

	reopened := NewStore(path)
	sessions := reopened.List()
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("reload mismatch: %+v", sessions)
	}
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store := NewStore(path)
	if sessions := store.List(); len(sessions) != 0 {
		t.Fatalf("corrupt file must decode to empty list, got %d", len(sessions))
	}
}

func TestWriteFailureDegradesToMemory(t *testing.T) {
	// Pointing the store at a directory makes every write fail.
	dir := t.TempDir()
	store := NewStore(dir)

	sessions := store.Upsert(testSession("s1", "memory only", time.Now()))
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Fatalf("write failure must not lose the in-memory session: %+v", sessions)
	}
}
