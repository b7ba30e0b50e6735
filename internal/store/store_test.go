package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/matheus3301/wppbridge/internal/sanitize"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(nil)
}

func TestReplaceContactsFiltersAndSorts(t *testing.T) {
	s := testStore(t)
	s.ReplaceContacts([]Contact{
		{ID: "3@c.us", Name: "carol"},
		{ID: "", Name: "No ID"},
		{ID: "9@c.us", Name: "Unknown"},
		{ID: "8@c.us", Name: "  "},
		{ID: "1@c.us", Name: "Alice", PushName: "Ali"},
		{ID: "2@c.us", Name: "bob"},
	})

	got := s.Contacts()
	want := []string{"Alice", "bob", "carol"}
	if len(got) != len(want) {
		t.Fatalf("got %d contacts, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("contact[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	if got[0].PushName != "Ali" {
		t.Errorf("PushName = %q, want Ali", got[0].PushName)
	}
	if got[1].PushName != "bob" {
		t.Errorf("missing PushName should default to name, got %q", got[1].PushName)
	}
}

func TestSearchContacts(t *testing.T) {
	s := testStore(t)
	s.ReplaceContacts([]Contact{
		{ID: "1", Name: "Maria Silva"},
		{ID: "2", Name: "Mario"},
		{ID: "3", Name: "Joana"},
	})

	tests := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"mar", 2},
		{"MAR", 2},
		{"silva", 1},
		{"ana", 1},
		{"zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := s.SearchContacts(tt.query); len(got) != tt.want {
				t.Errorf("SearchContacts(%q) = %d results, want %d", tt.query, len(got), tt.want)
			}
		})
	}
}

func TestReplaceChatsDropsInvalid(t *testing.T) {
	s := testStore(t)
	s.ReplaceChats([]Chat{
		{ID: "a", Name: "A"},
		{ID: "", Name: "B"},
		{ID: "c", Name: ""},
		{ID: "d", Name: "D", IsGroup: true, UnreadCount: 2},
	})
	chats := s.Chats()
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2", len(chats))
	}
	if chats[1].ID != "d" || !chats[1].IsGroup || chats[1].UnreadCount != 2 {
		t.Errorf("chat[1] = %+v", chats[1])
	}
	if _, ok := s.FindChat("c"); ok {
		t.Error("chat without name should have been dropped")
	}
}

func TestTransientChatReplacedOnSync(t *testing.T) {
	s := testStore(t)
	s.ReplaceContacts([]Contact{{ID: "5@c.us", Name: "Eve"}})
	c, _ := s.FindContact("5@c.us")

	chat := s.ChatForContact(c)
	if !chat.Transient {
		t.Fatal("expected transient chat for contact with no chat")
	}
	s.OpenConversation(chat)

	s.ReplaceChats([]Chat{{ID: "5@c.us", Name: "Eve W.", UnreadCount: 1}})

	active, ok := s.ActiveChat()
	if !ok {
		t.Fatal("active chat lost")
	}
	if active.Transient || active.Name != "Eve W." {
		t.Errorf("active = %+v, want authoritative record", active)
	}

	again := s.ChatForContact(c)
	if again.Transient {
		t.Error("ChatForContact should reuse the existing chat")
	}
}

func TestSetConversationFiltersAndCaps(t *testing.T) {
	s := testStore(t)
	s.OpenConversation(Chat{ID: "x", Name: "X"})

	var msgs []Message
	for i := range 120 {
		msgs = append(msgs, Message{ID: fmt.Sprint(i), Body: fmt.Sprintf("msg %d", i), Timestamp: int64(i)})
	}
	msgs = append(msgs, Message{ID: "e", Body: "\U0001F600"}, Message{ID: "blank", Body: ""})

	if !s.SetConversation("x", msgs) {
		t.Fatal("SetConversation returned false for active chat")
	}
	conv := s.Conversation()
	if len(conv) != MaxMessages {
		t.Fatalf("len = %d, want %d", len(conv), MaxMessages)
	}
	if conv[0].ID != "20" || conv[len(conv)-1].ID != "119" {
		t.Errorf("kept range %s..%s, want 20..119", conv[0].ID, conv[len(conv)-1].ID)
	}
	for _, m := range conv {
		if !sanitize.Displayable(m.Text) {
			t.Errorf("undisplayable message retained: %+v", m)
		}
	}

	if s.SetConversation("other", msgs[:1]) {
		t.Error("SetConversation should reject a chat that is not active")
	}
}

func TestAppendMessage(t *testing.T) {
	s := testStore(t)
	s.OpenConversation(Chat{ID: "x", Name: "X"})
	s.SetConversation("x", []Message{{ID: "1", Body: "hi"}})

	tests := []struct {
		name   string
		chatID string
		msg    Message
		want   bool
	}{
		{"new", "x", Message{ID: "2", Body: "hello"}, true},
		{"duplicate id", "x", Message{ID: "2", Body: "different text"}, false},
		{"same text new id", "x", Message{ID: "3", Body: "hello"}, true},
		{"sentinel", "x", Message{ID: "4", Body: "\U0001F44D"}, false},
		{"inactive chat", "y", Message{ID: "5", Body: "hey"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, before, after := s.AppendMessage(tt.chatID, tt.msg)
			if got != tt.want {
				t.Fatalf("AppendMessage() = %v, want %v", got, tt.want)
			}
			if got && after != before+1 {
				t.Errorf("counts before=%d after=%d", before, after)
			}
			if !got && after != before {
				t.Errorf("rejected append changed count %d -> %d", before, after)
			}
		})
	}
	if n := len(s.Conversation()); n != 3 {
		t.Errorf("conversation len = %d, want 3", n)
	}
}

func TestAppendMessageCap(t *testing.T) {
	s := testStore(t)
	s.OpenConversation(Chat{ID: "x", Name: "X"})
	for i := range MaxMessages + 5 {
		s.AppendMessage("x", Message{ID: fmt.Sprint(i), Body: "m"})
	}
	conv := s.Conversation()
	if len(conv) != MaxMessages {
		t.Fatalf("len = %d, want %d", len(conv), MaxMessages)
	}
	if conv[0].ID != "5" {
		t.Errorf("oldest = %s, want 5", conv[0].ID)
	}
	if s.HasMessage("0") {
		t.Error("oldest message should have been trimmed")
	}
}

func TestClearConversationAndReset(t *testing.T) {
	s := testStore(t)
	s.ReplaceContacts([]Contact{{ID: "1", Name: "A"}})
	s.ReplaceChats([]Chat{{ID: "1", Name: "A"}})
	s.OpenConversation(Chat{ID: "1", Name: "A"})
	s.AppendMessage("1", Message{ID: "m", Body: "hi"})

	s.ClearConversation()
	if _, ok := s.ActiveChat(); ok {
		t.Error("active chat should be cleared")
	}
	if len(s.Conversation()) != 0 {
		t.Error("messages should be cleared")
	}

	s.Reset()
	if c, ch := s.Counts(); c != 0 || ch != 0 {
		t.Errorf("Counts after Reset = %d, %d", c, ch)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := testStore(t)
	s.OpenConversation(Chat{ID: "x", Name: "X"})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 50 {
				s.AppendMessage("x", Message{ID: fmt.Sprintf("%d-%d", n, j), Body: "m"})
				_ = s.Conversation()
				s.ReplaceChats([]Chat{{ID: "x", Name: "X"}})
			}
		}(i)
	}
	wg.Wait()

	if n := len(s.Conversation()); n != MaxMessages {
		t.Errorf("len = %d, want %d", n, MaxMessages)
	}
}
