package state

import (
	"github.com/matheus3301/wppbridge/internal/store"
	intsync "github.com/matheus3301/wppbridge/internal/sync"
)

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Mode Mode

	MenuIndex int

	Chats     []store.Chat
	ChatIndex int

	Query       string
	Results     []store.Contact
	ResultIndex int

	Chat         store.Chat
	HasChat      bool
	Messages     []store.Message
	Scroll       int
	VisibleLines int
	LoadingChat  bool

	Compose      string
	ComposeLines []string

	Sync    intsync.Status
	Syncing bool

	Contacts  int
	ChatCount int

	Err    string
	Status string
}

// VisibleMessages returns the messages inside the scroll window.
func (s Snapshot) VisibleMessages() []store.Message {
	if s.Scroll >= len(s.Messages) {
		return nil
	}
	end := min(len(s.Messages), s.Scroll+s.VisibleLines)
	return s.Messages[s.Scroll:end]
}

// Snapshot returns the current presentation state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	contacts, chats := c.store.Counts()
	s := Snapshot{
		Mode:         c.mode,
		MenuIndex:    c.menuIndex,
		ChatIndex:    c.chatIndex,
		Query:        string(c.query),
		Results:      append([]store.Contact(nil), c.results...),
		ResultIndex:  c.resultIndex,
		Messages:     c.store.Conversation(),
		Scroll:       c.scroll,
		VisibleLines: c.opts.VisibleLines,
		LoadingChat:  c.pendingLoad != 0,
		Compose:      string(c.compose),
		ComposeLines: wrapLines(string(c.compose), c.opts.ComposeWidth),
		Sync:         c.syncer.Status(),
		Syncing:      c.syncing,
		Contacts:     contacts,
		ChatCount:    chats,
		Err:          c.errText,
		Status:       c.statusText,
	}
	if c.mode == ChatList {
		s.Chats = c.store.Chats()
	}
	s.Chat, s.HasChat = c.store.ActiveChat()
	return s
}
