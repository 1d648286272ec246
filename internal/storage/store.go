// Package storage persists the chat session collection as a single JSON
// document on local disk. Persistence failures degrade to in-memory
// operation and never propagate to callers: losing the history file must
// not block the chat experience.
package storage

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/omnichat/backend/internal/model/chat"
)

// Store is a file-backed session store ordered by recency.
type Store struct {
	mu       sync.Mutex
	path     string
	sessions []chat.Session
}

// NewStore opens the store at path, loading any existing collection. A
// missing or undecodable file is treated as an empty collection.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.sessions = s.load()
	return s
}

// List returns all sessions ordered by UpdatedAt descending.
func (s *Store) List() []chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get looks up a session by id.
func (s *Store) Get(id string) (chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return copySession(sess), true
		}
	}
	return chat.Session{}, false
}

// Upsert replaces the session by id or inserts it, re-sorts by recency and
// persists the whole collection. Sessions without messages are ignored:
// an empty session is never a persisted state.
func (s *Store) Upsert(session chat.Session) []chat.Session {
	if len(session.Messages) == 0 {
		return s.List()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, sess := range s.sessions {
		if sess.ID == session.ID {
			s.sessions[i] = copySession(session)
			replaced = true
			break
		}
	}
	if !replaced {
		s.sessions = append([]chat.Session{copySession(session)}, s.sessions...)
	}

	sort.SliceStable(s.sessions, func(i, j int) bool {
		return s.sessions[i].UpdatedAt.After(s.sessions[j].UpdatedAt)
	})

	s.persistLocked()
	return s.snapshotLocked()
}

// Remove deletes the session by id and persists. Removing an unknown id
// leaves the collection unchanged.
func (s *Store) Remove(id string) []chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	removed := false
	for _, sess := range s.sessions {
		if sess.ID == id {
			removed = true
			continue
		}
		kept = append(kept, sess)
	}
	s.sessions = kept

	if removed {
		s.persistLocked()
	}
	return s.snapshotLocked()
}

func (s *Store) load() []chat.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[storage] read %s: %v", s.path, err)
		}
		return nil
	}

	var sessions []chat.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("[storage] decode %s: %v, starting with empty history", s.path, err)
		return nil
	}
	return sessions
}

// persistLocked writes the collection atomically via a temp file rename.
// Failures are logged and absorbed; the in-memory collection stays
// authoritative.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		log.Printf("[storage] marshal sessions: %v", err)
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("[storage] create %s: %v", dir, err)
			return
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("[storage] write %s: %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		log.Printf("[storage] rename %s: %v", s.path, err)
	}
}

func (s *Store) snapshotLocked() []chat.Session {
	out := make([]chat.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	return out
}

func copySession(sess chat.Session) chat.Session {
	out := sess
	out.Messages = append([]chat.Message(nil), sess.Messages...)
	return out
}
