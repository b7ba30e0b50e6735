package store

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// ReplaceContacts swaps the contact collection. Contacts without an id,
// without a name, or named "Unknown" are dropped. The rest are sorted by
// name (case-insensitive) and indexed for search.
func (s *Store) ReplaceContacts(contacts []Contact) {
	kept := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.ID == "" || strings.TrimSpace(c.Name) == "" || c.Name == "Unknown" {
			continue
		}
		if c.PushName == "" {
			c.PushName = c.Name
		}
		kept = append(kept, c)
	}
	slices.SortStableFunc(kept, func(a, b Contact) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	index := make([]string, len(kept))
	for i, c := range kept {
		index[i] = strings.ToLower(c.Name)
	}

	s.mu.Lock()
	s.contacts = kept
	s.searchIndex = index
	s.mu.Unlock()

	if dropped := len(contacts) - len(kept); dropped > 0 {
		s.logger.Debug("dropped invalid contacts", zap.Int("dropped", dropped))
	}
}

// Contacts returns a copy of the contact collection.
func (s *Store) Contacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.contacts)
}

// FindContact returns the contact with the given id.
func (s *Store) FindContact(id string) (Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return Contact{}, false
}
