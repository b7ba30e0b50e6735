package store

import "strings"

// SearchContacts returns contacts whose name contains query,
// case-insensitively, in name order. An empty query matches nothing.
func (s *Store) SearchContacts(query string) []Contact {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Contact
	for i, name := range s.searchIndex {
		if strings.Contains(name, q) {
			results = append(results, s.contacts[i])
		}
	}
	return results
}
