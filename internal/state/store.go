// Package state holds the shared session state: the latest code text per
// language, the globally active language, and the most recent execution
// output. There is exactly one Store per process, owned by the hub, and it
// lives for the process lifetime.
package state

import (
	"sync"

	"github.com/collab-code-editor/backend/internal/language"
)

// Store is the authoritative session state. All operations are total:
// mutations with an unknown language are silent no-ops, reads of an unknown
// language return the empty string. A coarse RWMutex is the whole
// concurrency discipline; operations are cheap and non-blocking.
type Store struct {
	mu       sync.RWMutex
	registry *language.Registry
	code     map[language.ID]string
	active   language.ID
	output   string
}

// NewStore creates a Store seeded with every registered language's default
// snippet. The code map always contains an entry for every language in the
// registry, never a partial set.
func NewStore(registry *language.Registry) *Store {
	code := make(map[language.ID]string)
	for _, id := range registry.IDs() {
		plan, _ := registry.Lookup(id)
		code[id] = plan.Snippet
	}

	return &Store{
		registry: registry,
		code:     code,
		active:   registry.Default(),
	}
}

// Get returns the stored code for the given language.
func (s *Store) Get(id language.ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code[id]
}

// Set replaces the stored code for the given language. Unknown languages
// are ignored so the code map stays closed over the registry's set.
func (s *Store) Set(id language.ID, text string) {
	if !s.registry.Known(id) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.code[id] = text
}

// Active returns the currently active language.
func (s *Store) Active() language.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive switches the active language. Unknown languages are ignored.
func (s *Store) SetActive(id language.ID) {
	if !s.registry.Known(id) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
}

// LastOutput returns the most recent execution output, or empty if no run
// has completed yet.
func (s *Store) LastOutput() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

// SetLastOutput records the result of the most recent execution.
func (s *Store) SetLastOutput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = text
}

// Snapshot returns the active language, its code, and the last output as a
// single consistent read. It is the payload of the initialState message
// sent to a newly connected participant.
func (s *Store) Snapshot() (language.ID, string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.code[s.active], s.output
}
