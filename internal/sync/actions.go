package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/store"
)

// SendResult describes a sent message and its effect on the active
// conversation.
type SendResult struct {
	Message  store.Message
	Appended bool
	Before   int
	After    int
}

// Send posts text to chatID. On success the message is appended to the
// active conversation under the server id, or a local id when the server
// returns none.
func (o *Orchestrator) Send(ctx context.Context, chatID, text string) (SendResult, error) {
	serverID, err := o.gw.SendMessage(ctx, chatID, text)
	if err != nil {
		o.logger.Error("failed to send message", zap.String("chat_id", chatID), zap.Error(err))
		o.publish(bus.SyncSendFailed, chatID)
		return SendResult{}, fmt.Errorf("send message: %w", err)
	}

	id := serverID
	if id == "" {
		id = "local-" + uuid.NewString()
	}
	msg := store.Message{
		ID:        id,
		Body:      text,
		FromMe:    true,
		Timestamp: o.now().UnixMilli(),
		Type:      "chat",
	}
	appended, before, after := o.store.AppendMessage(chatID, msg)
	msg, _ = store.Prepare(msg)

	o.logger.Info("message sent", zap.String("chat_id", chatID), zap.String("msg_id", id))
	o.publish(bus.SyncMessageSent, chatID)
	return SendResult{Message: msg, Appended: appended, Before: before, After: after}, nil
}

// ResetAccount unlinks the WhatsApp account on the backend. On success
// local contacts, chats and sync status are cleared and any run in
// flight is superseded.
func (o *Orchestrator) ResetAccount(ctx context.Context) error {
	if err := o.gw.ResetAccount(ctx); err != nil {
		o.logger.Error("account reset failed", zap.Error(err))
		return fmt.Errorf("reset account: %w", err)
	}

	o.mu.Lock()
	o.run++
	o.status = Status{Stage: "Account reset"}
	o.mu.Unlock()
	o.store.Reset()

	o.logger.Info("account reset")
	o.publish(bus.SyncReset, nil)
	return nil
}
