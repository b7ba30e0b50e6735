package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matheus3301/wppbridge/internal/store"
)

// Contacts fetches the contact list.
func (c *Client) Contacts(ctx context.Context) ([]store.Contact, error) {
	body, err := c.do(ctx, "contacts", http.MethodGet, "/contacts", nil, c.timeouts.Fetch)
	if err != nil {
		return nil, err
	}
	r, err := checkSuccess("contacts", body)
	if err != nil {
		return nil, err
	}
	arr, ok := firstArray(r, "contacts", "data.contacts", "data")
	if !ok {
		return nil, &DataError{Op: "contacts", Msg: "no contacts in response"}
	}

	var contacts []store.Contact
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			contacts = append(contacts, parseContact(v))
		}
		return true
	})
	return contacts, nil
}

// Chats fetches the chat list.
func (c *Client) Chats(ctx context.Context) ([]store.Chat, error) {
	body, err := c.do(ctx, "chats", http.MethodGet, "/chats", nil, c.timeouts.Fetch)
	if err != nil {
		return nil, err
	}
	r, err := checkSuccess("chats", body)
	if err != nil {
		return nil, err
	}
	arr, ok := firstArray(r, "chats", "data.chats", "data")
	if !ok {
		return nil, &DataError{Op: "chats", Msg: "no chats in response"}
	}

	var chats []store.Chat
	arr.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			chats = append(chats, parseChat(v))
		}
		return true
	})
	return chats, nil
}

// ChatDetail is the primary per-chat fetch.
type ChatDetail struct {
	Chat    store.Chat
	History History
	// Last is the chat's lastMessage, when present.
	Last *store.Message
}

// Chat fetches GET /chat/{id}.
func (c *Client) Chat(ctx context.Context, chatID string) (ChatDetail, error) {
	return c.chat(ctx, chatID, c.timeouts.History)
}

func (c *Client) chat(ctx context.Context, chatID string, timeout time.Duration) (ChatDetail, error) {
	body, err := c.do(ctx, "chat", http.MethodGet, "/chat/"+EscapeID(chatID), nil, timeout)
	if err != nil {
		return ChatDetail{}, err
	}
	r, err := checkSuccess("chat", body)
	if err != nil {
		return ChatDetail{}, err
	}

	d := ChatDetail{History: History{Sortable: true}}
	if chat := r.Get("chat"); chat.IsObject() {
		d.Chat = parseChat(chat)
	}
	if arr, ok := firstArray(r, "messages", "chat.messages"); ok {
		d.History = parseHistory(arr)
	}
	if last := r.Get("chat.lastMessage"); last.IsObject() {
		m, _ := parseMessage(last)
		d.Last = &m
	}
	return d, nil
}

// ChatMessages fetches GET /chat/{id}/messages.
func (c *Client) ChatMessages(ctx context.Context, chatID string) (History, error) {
	return c.history(ctx, "chat_messages", "/chat/"+EscapeID(chatID)+"/messages",
		"messages", "data.messages", "")
}

// ChatHistory fetches GET /api/chat/{id}/history.
func (c *Client) ChatHistory(ctx context.Context, chatID string) (History, error) {
	return c.history(ctx, "chat_history", "/api/chat/"+EscapeID(chatID)+"/history",
		"messages", "history", "data.messages", "data", "")
}

// ArchivedConversation fetches GET /api/conversations/{id}.
func (c *Client) ArchivedConversation(ctx context.Context, chatID string) (History, error) {
	return c.history(ctx, "conversation", "/api/conversations/"+EscapeID(chatID),
		"messages", "conversation.messages", "data.messages", "")
}

func (c *Client) history(ctx context.Context, op, path string, arrayPaths ...string) (History, error) {
	body, err := c.do(ctx, op, http.MethodGet, path, nil, c.timeouts.History)
	if err != nil {
		return History{}, err
	}
	r, err := checkSuccess(op, body)
	if err != nil {
		return History{}, err
	}
	arr, ok := firstArray(r, arrayPaths...)
	if !ok {
		return History{Sortable: true}, nil
	}
	return parseHistory(arr), nil
}

// LatestMessage returns the chat's last message as reported by
// GET /chat/{id}. ok is false when the chat has no last message.
func (c *Client) LatestMessage(ctx context.Context, chatID string, timeout time.Duration) (msg store.Message, ok bool, err error) {
	d, err := c.chat(ctx, chatID, timeout)
	if err != nil {
		return store.Message{}, false, err
	}
	if d.Last == nil {
		return store.Message{}, false, nil
	}
	return *d.Last, true, nil
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendMessage posts text to a chat and returns the server message id,
// which may be empty.
func (c *Client) SendMessage(ctx context.Context, to, text string) (string, error) {
	body, err := c.do(ctx, "send", http.MethodPost, "/send-message", sendRequest{To: to, Message: text}, c.timeouts.Send)
	if err != nil {
		return "", err
	}
	r, err := checkSuccess("send", body)
	if err != nil {
		return "", err
	}
	return flattenID(r.Get("messageId")), nil
}

// ResetAccount asks the backend to drop the linked WhatsApp account.
func (c *Client) ResetAccount(ctx context.Context) error {
	body, err := c.do(ctx, "reset", http.MethodDelete, "/api/reset-account", nil, c.timeouts.Reset)
	if err != nil {
		return err
	}
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}
	_, err = checkSuccess("reset", body)
	return err
}
