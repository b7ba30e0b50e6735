package state

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/backend"
	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/store"
	intsync "github.com/matheus3301/wppbridge/internal/sync"
)

// Syncer runs backend work on behalf of the controller.
type Syncer interface {
	RunFullSync(ctx context.Context) intsync.Status
	Status() intsync.Status
	Connected() bool
	LoadChatHistory(ctx context.Context, chat store.Chat) ([]store.Message, error)
	Send(ctx context.Context, chatID, text string) (intsync.SendResult, error)
	ResetAccount(ctx context.Context) error
}

// Options tunes timing and layout.
type Options struct {
	StartMode      Mode
	AutoSync       bool
	Splash         time.Duration
	Welcome        time.Duration
	LoadingTimeout time.Duration
	TickInterval   time.Duration
	VisibleLines   int
	ComposeWidth   int
	Now            func() time.Time
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		StartMode:      Splash,
		AutoSync:       true,
		Splash:         3 * time.Second,
		Welcome:        2 * time.Second,
		LoadingTimeout: 8 * time.Second,
		TickInterval:   100 * time.Millisecond,
		VisibleLines:   6,
		ComposeWidth:   28,
		Now:            time.Now,
	}
}

// Input limits.
const (
	MaxQuery   = 50
	MaxCompose = 500
)

const maxErrText = 80

// errKind tags the operation an error came from so it can be cleared by
// the next success of the same kind.
type errKind int

const (
	errNone errKind = iota
	errValidation
	errSync
	errLoad
	errSend
	errReset
	errFault
)

// completions produced by background tasks.
type (
	syncDone struct {
		token  uint64
		status intsync.Status
	}
	chatLoaded struct {
		token uint64
		chat  store.Chat
		msgs  []store.Message
		err   error
	}
	sendDone struct {
		chatID string
		res    intsync.SendResult
		err    error
	}
	resetDone struct {
		err error
	}
	appended struct {
		chatID        string
		before, after int
	}
	taskFailed struct {
		task string
		err  error
	}
)

// Controller is the mode state machine. All exported methods are safe for
// concurrent use.
type Controller struct {
	mu     sync.Mutex
	opts   Options
	syncer Syncer
	store  *store.Store
	bus    *bus.Bus
	logger *zap.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	completions chan any

	mode      Mode
	enteredAt time.Time

	menuIndex   int
	chatIndex   int
	query       []rune
	results     []store.Contact
	resultIndex int
	compose     []rune
	scroll      int

	errText    string
	errKind    errKind
	statusText string

	dataLoaded      bool
	autoSyncPending bool
	syncToken       uint64
	syncing         bool
	loadToken       uint64
	pendingLoad     uint64
	loadFromSearch  bool
	cameFromSearch  bool
	resetting       bool
}

// New creates a controller in opts.StartMode.
func New(syncer Syncer, st *store.Store, b *bus.Bus, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StartMode != Welcome {
		opts.StartMode = Splash
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.VisibleLines <= 0 {
		opts.VisibleLines = 6
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		opts:            opts,
		syncer:          syncer,
		store:           st,
		bus:             b,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		completions:     make(chan any, 64),
		mode:            opts.StartMode,
		enteredAt:       opts.Now(),
		autoSyncPending: opts.AutoSync,
	}
}

// Start drives Tick on a ticker until ctx is done or Stop is called.
// Background tasks started afterwards are bound to ctx.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
	ctx = c.ctx
	if c.mode == Welcome {
		c.enteredAt = c.opts.Now()
	}
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Tick(c.opts.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the tick loop and abandons background task results.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Tick applies finished background work, then time-based transitions.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverFault()

drain:
	for {
		select {
		case comp := <-c.completions:
			c.apply(comp)
		default:
			break drain
		}
	}
	c.timers(now)
}

func (c *Controller) timers(now time.Time) {
	elapsed := now.Sub(c.enteredAt)
	switch c.mode {
	case Splash:
		if elapsed >= c.opts.Splash {
			c.enter(MainMenu)
		}
	case Welcome:
		if elapsed >= c.opts.Welcome {
			c.enterLoading()
		}
	case Loading:
		if elapsed >= c.opts.LoadingTimeout {
			c.setError(errSync, "Connection timeout")
			c.statusText = "WhatsApp (timeout - offline mode)"
			c.enter(MainMenu)
		}
	case MainMenu:
		if c.autoSyncPending && !c.dataLoaded {
			c.autoSyncPending = false
			c.enter(SmartSync)
			c.startSync()
		}
	}
}

func (c *Controller) apply(comp any) {
	switch v := comp.(type) {
	case syncDone:
		c.applySync(v)
	case chatLoaded:
		c.applyChatLoaded(v)
	case sendDone:
		c.applySend(v)
	case resetDone:
		c.applyReset(v)
	case appended:
		c.applyAppended(v)
	case taskFailed:
		c.syncing = false
		c.pendingLoad = 0
		c.resetting = false
		c.fault(fmt.Errorf("%s: %w", v.task, v.err))
	}
}

func (c *Controller) applySync(v syncDone) {
	if v.token != c.syncToken {
		return
	}
	c.syncing = false
	st := v.status
	if st.Connected {
		c.dataLoaded = true
	}
	if st.Err != "" {
		c.setError(errSync, st.Err)
	} else {
		c.clearError(errSync)
	}
	c.statusText = st.Stage
	if c.mode == Loading {
		c.enter(MainMenu)
	}
}

func (c *Controller) applyChatLoaded(v chatLoaded) {
	if v.token != c.pendingLoad {
		// A load the user navigated away from.
		if c.pendingLoad == 0 && c.mode != ChatView && c.mode != Compose {
			if active, ok := c.store.ActiveChat(); ok && active.ID == v.chat.ID {
				c.store.ClearConversation()
			}
		}
		return
	}
	c.pendingLoad = 0
	if v.err != nil {
		c.setError(errLoad, "Failed to load chat: "+backend.Describe(v.err))
		c.store.ClearConversation()
		return
	}
	c.clearError(errLoad)
	if c.mode != ChatList && c.mode != ContactSearch {
		return
	}
	c.cameFromSearch = c.loadFromSearch
	c.scroll = 0
	c.statusText = fmt.Sprintf("Chat: %s - %d messages", v.chat.Name, len(c.store.Conversation()))
	c.enter(ChatView)
}

func (c *Controller) applySend(v sendDone) {
	if v.err != nil {
		msg := backend.Describe(v.err)
		if msg == "" {
			msg = "Failed to send message"
		}
		c.setError(errSend, msg)
		return
	}
	c.clearError(errSend)
	c.statusText = "Message sent!"
	if v.res.Appended {
		c.follow(v.chatID, v.res.Before, v.res.After)
	}
}

func (c *Controller) applyReset(v resetDone) {
	c.resetting = false
	if v.err != nil {
		c.setError(errReset, "Reset failed: "+backend.Describe(v.err))
		return
	}
	c.clearError(errReset)
	c.dataLoaded = false
	c.chatIndex = 0
	c.query = nil
	c.results = nil
	c.statusText = "Account reset"
	if c.mode == MainMenu {
		c.enter(ResetAccountInfo)
	}
}

func (c *Controller) applyAppended(v appended) {
	c.follow(v.chatID, v.before, v.after)
}

// follow advances the scroll offset to the new bottom if it was at the
// bottom before the append.
func (c *Controller) follow(chatID string, before, after int) {
	if c.mode != ChatView && c.mode != Compose {
		return
	}
	if active, ok := c.store.ActiveChat(); !ok || active.ID != chatID {
		return
	}
	if c.scroll >= maxScroll(before, c.opts.VisibleLines) {
		c.scroll = maxScroll(after, c.opts.VisibleLines)
	}
}

func maxScroll(count, visible int) int {
	return max(0, count-visible)
}

// MessagesAppended is called by the poller after it appends to the active
// conversation. The scroll update happens on the next tick.
func (c *Controller) MessagesAppended(chatID string, before, after int) {
	c.send(appended{chatID: chatID, before: before, after: after})
}

// PollTarget returns the chat the poller should fetch: the open chat,
// while a conversation is on screen and the backend is connected.
func (c *Controller) PollTarget() (string, bool) {
	c.mu.Lock()
	mode, pending := c.mode, c.pendingLoad
	c.mu.Unlock()

	if mode != ChatView && mode != Compose || pending != 0 {
		return "", false
	}
	active, ok := c.store.ActiveChat()
	if !ok || !c.syncer.Connected() {
		return "", false
	}
	return active.ID, true
}

// enter moves to mode to, faulting on a transition the table forbids.
func (c *Controller) enter(to Mode) {
	if to != Error && !slices.Contains(validTransitions[c.mode], to) {
		c.fault(fmt.Errorf("invalid transition from %s to %s", c.mode, to))
		return
	}
	from := c.mode
	c.mode = to
	c.enteredAt = c.opts.Now()
	c.logger.Debug("mode changed", zap.Stringer("from", from), zap.Stringer("to", to))
	if c.bus != nil {
		c.bus.Publish(bus.Event{
			Kind:      bus.StateModeChanged,
			Timestamp: time.Now(),
			Payload:   ModeChange{From: from, To: to},
		})
	}
}

// ModeChange is the payload for mode change events.
type ModeChange struct {
	From Mode
	To   Mode
}

func (c *Controller) enterLoading() {
	c.enter(Loading)
	c.statusText = "Connecting..."
	c.startSync()
}

// Fault moves the machine to Error for a failure raised outside its own
// handlers, such as a panic while the host renders a snapshot.
func (c *Controller) Fault(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fault(err)
}

func (c *Controller) fault(err error) {
	c.logger.Error("state machine fault", zap.Stringer("mode", c.mode), zap.Error(err))
	c.setError(errFault, "Internal error: "+err.Error())
	c.enter(Error)
}

func (c *Controller) recoverFault() {
	if r := recover(); r != nil {
		c.fault(fmt.Errorf("%v", r))
	}
}

func (c *Controller) setError(kind errKind, text string) {
	if len([]rune(text)) > maxErrText {
		text = string([]rune(text)[:maxErrText-3]) + "..."
	}
	c.errText = text
	c.errKind = kind
}

func (c *Controller) clearError(kind errKind) {
	if c.errKind == kind {
		c.errText = ""
		c.errKind = errNone
	}
}

// spawn runs task in the background and queues its result for the next
// tick.
func (c *Controller) spawn(name string, task func(ctx context.Context) any) {
	ctx := c.ctx
	go func() {
		var result any
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("background task panicked", zap.String("task", name), zap.Any("panic", r))
					result = taskFailed{task: name, err: fmt.Errorf("%v", r)}
				}
			}()
			result = task(ctx)
		}()
		c.sendCtx(ctx, result)
	}()
}

func (c *Controller) send(comp any) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	c.sendCtx(ctx, comp)
}

func (c *Controller) sendCtx(ctx context.Context, comp any) {
	select {
	case c.completions <- comp:
	case <-ctx.Done():
	}
}

func (c *Controller) startSync() {
	c.syncToken++
	token := c.syncToken
	c.syncing = true
	c.clearError(errSync)
	c.spawn("sync", func(ctx context.Context) any {
		return syncDone{token: token, status: c.syncer.RunFullSync(ctx)}
	})
}

func (c *Controller) openChat(chat store.Chat, fromSearch bool) {
	c.loadToken++
	token := c.loadToken
	c.pendingLoad = token
	c.loadFromSearch = fromSearch
	c.statusText = "Loading chat..."
	c.store.OpenConversation(chat)
	c.spawn("load_chat", func(ctx context.Context) any {
		msgs, err := c.syncer.LoadChatHistory(ctx, chat)
		return chatLoaded{token: token, chat: chat, msgs: msgs, err: err}
	})
}

// abandonLoad forgets a pending chat load and closes its conversation.
func (c *Controller) abandonLoad() {
	if c.pendingLoad != 0 {
		c.pendingLoad = 0
		c.store.ClearConversation()
	}
}
