// Package state is the top-level controller: it owns the current screen
// mode, turns input events into backend work, and applies the results of
// that work once per tick.
package state

// Mode is the active screen.
type Mode int

const (
	Splash Mode = iota
	Welcome
	Loading
	MainMenu
	ChatList
	ContactSearch
	SmartSync
	ResetAccountInfo
	ChatView
	Compose
	Error
)

var modeNames = map[Mode]string{
	Splash:           "splash",
	Welcome:          "welcome",
	Loading:          "loading",
	MainMenu:         "main_menu",
	ChatList:         "chat_list",
	ContactSearch:    "contact_search",
	SmartSync:        "smart_sync",
	ResetAccountInfo: "reset_account_info",
	ChatView:         "chat_view",
	Compose:          "compose",
	Error:            "error",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// validTransitions defines allowed mode changes. Any mode may move to
// Error.
var validTransitions = map[Mode][]Mode{
	Splash:           {MainMenu},
	Welcome:          {Loading},
	Loading:          {MainMenu},
	MainMenu:         {ChatList, ContactSearch, SmartSync, ResetAccountInfo},
	ChatList:         {MainMenu, ChatView, SmartSync},
	ContactSearch:    {MainMenu, ChatView},
	SmartSync:        {MainMenu},
	ResetAccountInfo: {MainMenu},
	ChatView:         {Compose, ChatList, ContactSearch},
	Compose:          {ChatView},
	Error:            {Loading},
}

// Menu entries on the main menu, in display order.
const (
	MenuChatList = iota
	MenuNewChat
	MenuSmartSync
	MenuResetAccount
)

// MenuItems are the main menu labels.
var MenuItems = []string{"Chat List", "New Chat", "Smart Sync", "Reset Account"}

// Action is an abstract input event.
type Action int

const (
	NavigateUp Action = iota + 1
	NavigateDown
	Confirm
	Cancel
	TextInput
	Backspace
	Refresh
	Retry
)

// Input is one decoded input event. Char is set for TextInput.
type Input struct {
	Action Action
	Char   rune
}

// Key returns a TextInput event for r.
func Key(r rune) Input {
	return Input{Action: TextInput, Char: r}
}

// Signal tells the host what to do after an input event.
type Signal int

const (
	None Signal = iota
	// Exit asks the host to leave the chat module.
	Exit
)
