// Package poller keeps the open conversation fresh by periodically
// fetching the chat's latest message.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/store"
)

// Source fetches the latest message of a chat.
type Source interface {
	LatestMessage(ctx context.Context, chatID string, timeout time.Duration) (store.Message, bool, error)
}

// Target decides which chat, if any, should be polled right now.
type Target interface {
	PollTarget() (chatID string, ok bool)
}

// Sink is told about appended messages so it can follow the newest one.
type Sink interface {
	MessagesAppended(chatID string, before, after int)
}

// Poller appends new messages of the active chat to the store.
type Poller struct {
	source   Source
	target   Target
	sink     Sink
	store    *store.Store
	bus      *bus.Bus
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// New creates a poller. sink may be nil.
func New(source Source, target Target, sink Sink, st *store.Store, b *bus.Bus, interval, timeout time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Poller{
		source:   source,
		target:   target,
		sink:     sink,
		store:    st,
		bus:      b,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start begins polling.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop stops the polling loop.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// PollOnce runs a single poll cycle and reports whether a message was
// appended. Failures are logged and swallowed.
func (p *Poller) PollOnce(ctx context.Context) bool {
	chatID, ok := p.target.PollTarget()
	if !ok {
		return false
	}

	msg, ok, err := p.source.LatestMessage(ctx, chatID, p.timeout)
	if err != nil {
		p.logger.Debug("poll failed", zap.String("chat_id", chatID), zap.Error(err))
		return false
	}
	if !ok || msg.Body == "" {
		return false
	}

	appended, before, after := p.store.AppendMessage(chatID, msg)
	if !appended {
		return false
	}

	p.logger.Debug("new message", zap.String("chat_id", chatID), zap.String("msg_id", msg.ID))
	if p.sink != nil {
		p.sink.MessagesAppended(chatID, before, after)
	}
	if p.bus != nil {
		p.bus.Publish(bus.Event{
			Kind:      bus.PollAppended,
			Timestamp: time.Now(),
			Payload: map[string]string{
				"chat_id": chatID,
				"msg_id":  msg.ID,
			},
		})
	}
	return true
}
