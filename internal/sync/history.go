package sync

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/backend"
	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/store"
)

// historySource is one step of the history fallback chain.
type historySource struct {
	name  string
	fetch func(ctx context.Context) (backend.History, error)
}

// LoadChatHistory fetches a chat's messages from the first history
// source that has any, and makes them the active conversation if chat is
// still active. Concurrent loads of the same chat share one fetch.
func (o *Orchestrator) LoadChatHistory(ctx context.Context, chat store.Chat) ([]store.Message, error) {
	v, err, shared := o.loads.Do(chat.ID, func() (any, error) {
		return o.loadChatHistory(ctx, chat)
	})
	if err != nil {
		return nil, err
	}
	msgs := v.([]store.Message)
	if shared {
		o.logger.Debug("chat load shared", zap.String("chat_id", chat.ID))
	}
	return slices.Clone(msgs), nil
}

func (o *Orchestrator) loadChatHistory(ctx context.Context, chat store.Chat) ([]store.Message, error) {
	var detail *backend.ChatDetail
	sources := []historySource{
		{"chat", func(ctx context.Context) (backend.History, error) {
			d, err := o.gw.Chat(ctx, chat.ID)
			if err != nil {
				return backend.History{}, err
			}
			detail = &d
			return d.History, nil
		}},
		{"chat_messages", func(ctx context.Context) (backend.History, error) {
			return o.gw.ChatMessages(ctx, chat.ID)
		}},
		{"chat_history", func(ctx context.Context) (backend.History, error) {
			return o.gw.ChatHistory(ctx, chat.ID)
		}},
		{"last_message", func(context.Context) (backend.History, error) {
			if detail == nil || detail.Last == nil {
				return backend.History{}, nil
			}
			return backend.History{Messages: []store.Message{*detail.Last}, Sortable: true}, nil
		}},
		{"conversation", func(ctx context.Context) (backend.History, error) {
			return o.gw.ArchivedConversation(ctx, chat.ID)
		}},
	}

	var found backend.History
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := src.fetch(ctx)
		if err != nil {
			o.logger.Debug("history source failed",
				zap.String("source", src.name),
				zap.String("chat_id", chat.ID),
				zap.Error(err),
			)
			continue
		}
		if hasDisplayable(h.Messages) {
			o.logger.Debug("history source used",
				zap.String("source", src.name),
				zap.String("chat_id", chat.ID),
				zap.Int("messages", len(h.Messages)),
			)
			found = h
			break
		}
	}

	msgs := make([]store.Message, 0, len(found.Messages))
	for _, m := range found.Messages {
		if m, ok := store.Prepare(m); ok {
			msgs = append(msgs, m)
		}
	}
	if found.Sortable {
		slices.SortStableFunc(msgs, func(a, b store.Message) int {
			return compareInt64(a.Timestamp, b.Timestamp)
		})
	}
	if len(msgs) == 0 {
		m, _ := store.Prepare(store.Message{
			ID:        "system-" + chat.ID,
			Body:      "Starting conversation with " + chat.Name,
			Type:      "system",
			Timestamp: o.now().UnixMilli(),
		})
		msgs = append(msgs, m)
	}

	if !o.store.SetConversation(chat.ID, msgs) {
		o.logger.Debug("chat no longer active, history discarded", zap.String("chat_id", chat.ID))
	}
	o.publish(bus.SyncChatLoaded, chat.ID)
	return msgs, nil
}

// hasDisplayable reports whether any message survives sanitization.
func hasDisplayable(msgs []store.Message) bool {
	return slices.ContainsFunc(msgs, func(m store.Message) bool {
		_, ok := store.Prepare(m)
		return ok
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
