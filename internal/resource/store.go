// Package resource owns downloaded render assets and the revocable handles
// the viewer uses to reach them.
package resource

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is a locally scoped, revocable reference to an asset held by a
// Store. The zero Handle refers to nothing.
type Handle struct {
	Token       string `json:"token"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool { return h.Token == "" }

// Path is the viewer path that serves the asset.
func (h Handle) Path() string {
	if h.IsZero() {
		return ""
	}
	return "/models/" + h.Token
}

type entry struct {
	data        []byte
	contentType string
}

// Stats counts handle lifecycle events.
type Stats struct {
	Acquired int `json:"acquired"`
	Released int `json:"released"`
	Live     int `json:"live"`
}

// Store holds asset bytes behind opaque tokens.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]entry
	acquired int
	released int
}

func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Acquire wraps data under a fresh token. The store keeps data as is.
func (s *Store) Acquire(data []byte, contentType string) Handle {
	token := uuid.NewString()

	s.mu.Lock()
	s.entries[token] = entry{data: data, contentType: contentType}
	s.acquired++
	s.mu.Unlock()

	return Handle{Token: token, ContentType: contentType, Size: len(data)}
}

// Release revokes h. It reports false when h was already released or never
// belonged to this store.
func (s *Store) Release(h Handle) bool {
	if h.IsZero() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[h.Token]; !ok {
		return false
	}
	delete(s.entries, h.Token)
	s.released++
	return true
}

// Open returns the bytes behind a live token.
func (s *Store) Open(token string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, "", false
	}
	return e.data, e.contentType, true
}

// Live returns the number of unreleased handles.
func (s *Store) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Acquired: s.acquired, Released: s.released, Live: len(s.entries)}
}
