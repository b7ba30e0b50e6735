package store

import (
	"slices"

	"go.uber.org/zap"
)

// ReplaceChats swaps the chat collection, dropping records without an id
// or name. If the active chat is transient and the new collection has a
// chat with the same id, the authoritative record becomes the active chat.
func (s *Store) ReplaceChats(chats []Chat) {
	kept := make([]Chat, 0, len(chats))
	for _, c := range chats {
		if c.ID == "" || c.Name == "" {
			continue
		}
		c.Transient = false
		kept = append(kept, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = kept

	if s.active != nil && s.active.Transient {
		if i := slices.IndexFunc(kept, func(c Chat) bool { return c.ID == s.active.ID }); i >= 0 {
			auth := kept[i]
			s.active = &auth
			s.logger.Debug("transient chat replaced", zap.String("chat_id", auth.ID))
		}
	}
}

// Chats returns a copy of the chat collection in backend order.
func (s *Store) Chats() []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chats)
}

// FindChat returns the chat with the given id.
func (s *Store) FindChat(id string) (Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.ID == id {
			return c, true
		}
	}
	return Chat{}, false
}

// ChatForContact returns the existing chat with the contact's id, or a
// transient chat named after the contact.
func (s *Store) ChatForContact(c Contact) Chat {
	if chat, ok := s.FindChat(c.ID); ok {
		return chat
	}
	return Chat{ID: c.ID, Name: c.Name, Transient: true}
}
