package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Namespaces accepted by Subscribe.
const (
	NamespaceSync  = "sync."
	NamespacePoll  = "poll."
	NamespaceState = "state."
)

// Event kinds.
const (
	SyncStarted     = "sync.started"
	SyncProgress    = "sync.progress"
	SyncCompleted   = "sync.completed"
	SyncChatLoaded  = "sync.chat_loaded"
	SyncMessageSent = "sync.message_sent"
	SyncSendFailed  = "sync.send_failed"
	SyncReset       = "sync.reset"

	PollAppended = "poll.appended"

	StateModeChanged = "state.mode_changed"
)
