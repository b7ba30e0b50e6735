// Package sync pulls contacts, chats and chat history from the bridge
// server into the store.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/matheus3301/wppbridge/internal/backend"
	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/store"
)

// Gateway is the subset of the backend client the orchestrator uses.
type Gateway interface {
	Status(ctx context.Context) (backend.ServerStatus, error)
	Contacts(ctx context.Context) ([]store.Contact, error)
	Chats(ctx context.Context) ([]store.Chat, error)
	Chat(ctx context.Context, chatID string) (backend.ChatDetail, error)
	ChatMessages(ctx context.Context, chatID string) (backend.History, error)
	ChatHistory(ctx context.Context, chatID string) (backend.History, error)
	ArchivedConversation(ctx context.Context, chatID string) (backend.History, error)
	SendMessage(ctx context.Context, to, text string) (string, error)
	ResetAccount(ctx context.Context) error
}

// Status describes the latest full sync run.
type Status struct {
	Stage    string
	Progress int
	Complete bool
	// Err is a short user-facing description of the last failure.
	Err       string
	Connected bool
	// Pairing is the QR payload when the backend needs to be paired.
	Pairing string
	RunID   uint64
}

// Running reports whether a run has started and not yet completed.
func (s Status) Running() bool {
	return s.RunID > 0 && !s.Complete
}

// User-facing sync messages.
const (
	MsgUnreachable = "Backend connection failed - is server running?"
	MsgTimeout     = "Sync timeout - server too slow"
	MsgNotReady    = "WhatsApp not ready - initializing..."
)

// Orchestrator runs full syncs and per-chat loads.
type Orchestrator struct {
	gw         Gateway
	store      *store.Store
	bus        *bus.Bus
	backendURL string
	logger     *zap.Logger

	mu     sync.Mutex
	status Status
	run    uint64

	loads singleflight.Group
	now   func() time.Time
}

// New creates an orchestrator. backendURL is only used in the pairing
// instruction shown to the user.
func New(gw Gateway, st *store.Store, b *bus.Bus, backendURL string, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gw:         gw,
		store:      st,
		bus:        b,
		backendURL: backendURL,
		logger:     logger,
		now:        time.Now,
	}
}

// Status returns a copy of the current sync status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Connected reports whether the last readiness check succeeded.
func (o *Orchestrator) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.Connected
}

// begin starts a new run, superseding any run in flight.
func (o *Orchestrator) begin() uint64 {
	o.mu.Lock()
	o.run++
	run := o.run
	o.status = Status{
		Stage:     "Starting Smart Sync...",
		Connected: o.status.Connected,
		RunID:     run,
	}
	st := o.status
	o.mu.Unlock()
	o.publish(bus.SyncStarted, st)
	return run
}

// update applies fn to the status if run is still current.
func (o *Orchestrator) update(run uint64, fn func(*Status)) bool {
	o.mu.Lock()
	if run != o.run {
		o.mu.Unlock()
		return false
	}
	fn(&o.status)
	st := o.status
	o.mu.Unlock()

	kind := bus.SyncProgress
	if st.Complete {
		kind = bus.SyncCompleted
	}
	o.publish(kind, st)
	return true
}

func (o *Orchestrator) current(run uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return run == o.run
}

func stage(progress int, text string) func(*Status) {
	return func(s *Status) {
		if progress > s.Progress {
			s.Progress = progress
		}
		s.Stage = text
	}
}

// RunFullSync checks readiness then replaces contacts and chats. A run
// started while another is in flight supersedes it: the older run's
// remaining status and store writes are discarded. The returned status
// is the state at the end of this run.
func (o *Orchestrator) RunFullSync(ctx context.Context) Status {
	run := o.begin()
	o.logger.Info("full sync started", zap.Uint64("run", run))

	o.update(run, stage(10, "Checking connection..."))
	srv, err := o.gw.Status(ctx)
	if err != nil {
		msg := MsgUnreachable
		if backend.IsTimeout(err) {
			msg = MsgTimeout
		}
		o.logger.Warn("backend readiness check failed", zap.Error(err))
		o.update(run, func(s *Status) {
			stage(20, msg)(s)
			s.Err = msg
			s.Connected = false
			s.Complete = true
		})
		return o.Status()
	}

	o.update(run, stage(20, "Backend status: "+srv.Status))
	if !srv.Ready {
		msg := MsgNotReady
		if srv.HasQR {
			msg = "Scan QR code first - visit " + o.backendURL
		}
		o.logger.Info("backend not ready", zap.String("status", srv.Status), zap.Bool("has_qr", srv.HasQR))
		o.update(run, func(s *Status) {
			s.Stage = msg
			s.Err = msg
			s.Pairing = srv.QR
			s.Connected = false
			s.Complete = true
		})
		return o.Status()
	}
	o.update(run, func(s *Status) { s.Connected = true })

	var errText string

	o.update(run, stage(30, "Loading contacts..."))
	contacts, err := o.gw.Contacts(ctx)
	switch {
	case backend.IsConnectivity(err):
		errText = "Contacts: " + backend.Describe(err)
		o.logger.Warn("contacts fetch failed, keeping previous set", zap.Error(err))
	case err != nil:
		o.logger.Warn("contacts response unusable, clearing", zap.Error(err))
		if o.current(run) {
			o.store.ReplaceContacts(nil)
		}
	default:
		if o.current(run) {
			o.store.ReplaceContacts(contacts)
		}
	}
	nContacts, _ := o.store.Counts()
	o.update(run, stage(50, fmt.Sprintf("Loaded %d contacts", nContacts)))

	o.update(run, stage(60, "Loading chats..."))
	chats, err := o.gw.Chats(ctx)
	switch {
	case backend.IsConnectivity(err):
		if errText == "" {
			errText = "Chats: " + backend.Describe(err)
		}
		o.logger.Warn("chats fetch failed, keeping previous set", zap.Error(err))
	case err != nil:
		o.logger.Warn("chats response unusable, clearing", zap.Error(err))
		if o.current(run) {
			o.store.ReplaceChats(nil)
		}
	default:
		if o.current(run) {
			o.store.ReplaceChats(chats)
		}
	}
	nContacts, nChats := o.store.Counts()
	o.update(run, stage(80, fmt.Sprintf("Loaded %d chats", nChats)))

	summary := fmt.Sprintf("Sync complete! %d contacts, %d chats", nContacts, nChats)
	o.update(run, func(s *Status) {
		stage(100, summary)(s)
		s.Err = errText
		s.Complete = true
	})
	o.logger.Info("full sync finished",
		zap.Uint64("run", run),
		zap.Int("contacts", nContacts),
		zap.Int("chats", nChats),
		zap.String("error", errText),
	)
	return o.Status()
}

func (o *Orchestrator) publish(kind string, payload any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: o.now(),
		Payload:   payload,
	})
}
