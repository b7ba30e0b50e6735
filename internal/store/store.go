package store

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds contacts, chats and the active conversation in memory.
// All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	contacts []Contact
	// searchIndex holds lowercased contact names aligned with contacts.
	searchIndex []string

	chats []Chat

	active   *Chat
	messages []Message

	logger *zap.Logger
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Counts returns the number of contacts and chats.
func (s *Store) Counts() (contacts, chats int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contacts), len(s.chats)
}

// Reset drops contacts, chats and the active conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = nil
	s.searchIndex = nil
	s.chats = nil
	s.active = nil
	s.messages = nil
}
