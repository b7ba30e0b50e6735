package store

import (
	"slices"

	"github.com/matheus3301/wppbridge/internal/sanitize"
)

// Prepare fills m.Text from m.Body and reports whether the message has
// displayable content.
func Prepare(m Message) (Message, bool) {
	m.Text = sanitize.Sanitize(m.Body)
	return m, sanitize.Displayable(m.Text)
}

// OpenConversation makes chat the active chat with an empty message list.
func (s *Store) OpenConversation(chat Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = &chat
	s.messages = nil
}

// ActiveChat returns the chat whose conversation is open.
func (s *Store) ActiveChat() (Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return Chat{}, false
	}
	return *s.active, true
}

// SetConversation replaces the active conversation's messages. It is a
// no-op returning false when chatID is no longer the active chat.
// Undisplayable messages are dropped and only the newest MaxMessages kept.
func (s *Store) SetConversation(chatID string, msgs []Message) bool {
	kept := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m, ok := Prepare(m); ok {
			kept = append(kept, m)
		}
	}
	if len(kept) > MaxMessages {
		kept = kept[len(kept)-MaxMessages:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID != chatID {
		return false
	}
	s.messages = kept
	return true
}

// AppendMessage adds m to the active conversation when chatID is still
// active, m has displayable content and no retained message shares its
// id. before and after are the message counts around the call.
func (s *Store) AppendMessage(chatID string, m Message) (appended bool, before, after int) {
	m, ok := Prepare(m)

	s.mu.Lock()
	defer s.mu.Unlock()
	before = len(s.messages)
	if !ok || s.active == nil || s.active.ID != chatID {
		return false, before, before
	}
	if m.ID != "" && slices.ContainsFunc(s.messages, func(x Message) bool { return x.ID == m.ID }) {
		return false, before, before
	}

	s.messages = append(s.messages, m)
	if len(s.messages) > MaxMessages {
		s.messages = slices.Clone(s.messages[len(s.messages)-MaxMessages:])
	}
	return true, before, len(s.messages)
}

// ClearConversation closes the active conversation.
func (s *Store) ClearConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.messages = nil
}

// Conversation returns a copy of the active conversation, oldest first.
func (s *Store) Conversation() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// HasMessage reports whether the active conversation retains id.
func (s *Store) HasMessage(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.messages, func(x Message) bool { return x.ID == id })
}
