package store

// Chat represents a chat known to the backend, or a transient one created
// locally for a contact with no existing chat.
type Chat struct {
	ID          string
	Name        string
	IsGroup     bool
	UnreadCount int
	// Transient is set on chats synthesized from a contact.
	Transient bool
}

// Contact represents a synced contact.
type Contact struct {
	ID       string
	Name     string
	Phone    string
	PushName string
}

// Message represents a message in the active conversation.
type Message struct {
	ID   string
	Body string
	// Text is the sanitized Body.
	Text      string
	FromMe    bool
	Timestamp int64 // unix millis
	Type      string
	// Author and Participant identify the sender in group chats.
	Author      string
	Participant string
}

// Sender returns the group sender identifier, if any.
func (m Message) Sender() string {
	if m.Author != "" {
		return m.Author
	}
	return m.Participant
}

// MaxMessages bounds the active conversation.
const MaxMessages = 100
