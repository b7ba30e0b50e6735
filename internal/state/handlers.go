package state

import (
	"context"
	"strings"
	"unicode"

	"github.com/matheus3301/wppbridge/internal/store"
)

// ValidationError is an input that cannot be acted on in the current
// state. It is shown inline and does not change the mode.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// HandleInputEvent applies one input event. It never blocks on the
// network; backend work is started in the background.
func (c *Controller) HandleInputEvent(in Input) (sig Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.recoverFault()

	c.clearError(errValidation)

	var err *ValidationError
	switch c.mode {
	case Splash:
	case Welcome:
		if in.Action == Cancel {
			return Exit
		}
		c.enterLoading()
	case Loading:
		if in.Action == Cancel {
			return Exit
		}
	case MainMenu:
		sig, err = c.handleMainMenu(in)
	case ChatList:
		err = c.handleChatList(in)
	case ContactSearch:
		err = c.handleContactSearch(in)
	case SmartSync:
		c.handleSmartSync(in)
	case ResetAccountInfo:
		if in.Action == Confirm || in.Action == Cancel {
			c.enter(MainMenu)
		}
	case ChatView:
		err = c.handleChatView(in)
	case Compose:
		err = c.handleCompose(in)
	case Error:
		switch in.Action {
		case Cancel:
			return Exit
		case Retry, Confirm:
			c.clearError(errFault)
			c.enterLoading()
		}
	}
	if err != nil {
		c.setError(errValidation, err.Msg)
	}
	return sig
}

func (c *Controller) handleMainMenu(in Input) (Signal, *ValidationError) {
	switch in.Action {
	case NavigateUp:
		c.menuIndex = max(0, c.menuIndex-1)
	case NavigateDown:
		c.menuIndex = min(len(MenuItems)-1, c.menuIndex+1)
	case Cancel:
		return Exit, nil
	case Confirm:
		return None, c.selectMenu()
	}
	return None, nil
}

func (c *Controller) selectMenu() *ValidationError {
	contacts, chats := c.store.Counts()
	switch c.menuIndex {
	case MenuChatList:
		if chats == 0 {
			return &ValidationError{Msg: "No chats available"}
		}
		if !c.dataLoaded {
			return &ValidationError{Msg: "Data not loaded yet"}
		}
		c.chatIndex = 0
		c.enter(ChatList)
	case MenuNewChat:
		if contacts == 0 {
			return &ValidationError{Msg: "No contacts available"}
		}
		if !c.dataLoaded {
			return &ValidationError{Msg: "Data not loaded yet"}
		}
		c.query = nil
		c.results = nil
		c.resultIndex = 0
		c.enter(ContactSearch)
	case MenuSmartSync:
		c.enter(SmartSync)
		c.startSync()
	case MenuResetAccount:
		if c.resetting {
			return nil
		}
		c.resetting = true
		c.statusText = "Resetting account..."
		c.spawn("reset", func(ctx context.Context) any {
			return resetDone{err: c.syncer.ResetAccount(ctx)}
		})
	}
	return nil
}

func (c *Controller) handleChatList(in Input) *ValidationError {
	chats := c.store.Chats()
	switch in.Action {
	case NavigateUp:
		c.chatIndex = max(0, c.chatIndex-1)
	case NavigateDown:
		c.chatIndex = max(0, min(len(chats)-1, c.chatIndex+1))
	case Confirm:
		if len(chats) == 0 {
			return &ValidationError{Msg: "No chats available"}
		}
		c.chatIndex = min(c.chatIndex, len(chats)-1)
		c.openChat(chats[c.chatIndex], false)
	case Refresh:
		c.abandonLoad()
		c.enter(SmartSync)
		c.startSync()
	case Cancel:
		c.abandonLoad()
		c.enter(MainMenu)
	}
	return nil
}

func (c *Controller) handleContactSearch(in Input) *ValidationError {
	switch in.Action {
	case TextInput:
		if unicode.IsPrint(in.Char) && len(c.query) < MaxQuery {
			c.query = append(c.query, in.Char)
			c.search()
		}
	case Backspace:
		if len(c.query) > 0 {
			c.query = c.query[:len(c.query)-1]
			c.search()
		}
	case NavigateUp:
		c.resultIndex = max(0, c.resultIndex-1)
	case NavigateDown:
		c.resultIndex = max(0, min(len(c.results)-1, c.resultIndex+1))
	case Confirm:
		if len(c.results) == 0 {
			return &ValidationError{Msg: "No contact selected"}
		}
		contact := c.results[min(c.resultIndex, len(c.results)-1)]
		c.openChat(c.store.ChatForContact(contact), true)
		c.statusText = "Starting conversation with " + contact.Name
	case Cancel:
		c.abandonLoad()
		c.query = nil
		c.results = nil
		c.resultIndex = 0
		c.enter(MainMenu)
	}
	return nil
}

func (c *Controller) search() {
	c.results = c.store.SearchContacts(string(c.query))
	c.resultIndex = 0
}

func (c *Controller) handleSmartSync(in Input) {
	switch in.Action {
	case Cancel:
		c.enter(MainMenu)
	case Confirm:
		if c.syncing {
			return
		}
		c.statusText = c.syncer.Status().Stage
		c.enter(MainMenu)
	case Retry, Refresh:
		if !c.syncing {
			c.startSync()
		}
	}
}

func (c *Controller) handleChatView(in Input) *ValidationError {
	count := len(c.store.Conversation())
	switch in.Action {
	case NavigateUp:
		c.scroll = max(0, c.scroll-1)
	case NavigateDown:
		c.scroll = min(maxScroll(count, c.opts.VisibleLines), c.scroll+1)
	case Confirm:
		c.compose = nil
		c.enter(Compose)
	case Cancel:
		c.store.ClearConversation()
		c.scroll = 0
		if c.cameFromSearch {
			c.enter(ContactSearch)
		} else {
			c.enter(ChatList)
		}
	}
	return nil
}

func (c *Controller) handleCompose(in Input) *ValidationError {
	switch in.Action {
	case TextInput:
		if unicode.IsPrint(in.Char) && len(c.compose) < MaxCompose {
			c.compose = append(c.compose, in.Char)
		}
	case Backspace:
		if len(c.compose) > 0 {
			c.compose = c.compose[:len(c.compose)-1]
		}
	case Confirm:
		text := strings.TrimSpace(string(c.compose))
		if text == "" {
			return &ValidationError{Msg: "Message is empty"}
		}
		active, ok := c.store.ActiveChat()
		if !ok {
			return &ValidationError{Msg: "No chat selected"}
		}
		c.compose = nil
		c.statusText = "Sending..."
		c.enter(ChatView)
		c.spawnSend(active, text)
	case Cancel:
		c.compose = nil
		c.enter(ChatView)
	}
	return nil
}

func (c *Controller) spawnSend(chat store.Chat, text string) {
	c.spawn("send", func(ctx context.Context) any {
		res, err := c.syncer.Send(ctx, chat.ID, text)
		return sendDone{chatID: chat.ID, res: res, err: err}
	})
}
