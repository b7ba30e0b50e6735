// Package views renders state machine snapshots as tview markup.
package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/wppbridge/internal/pairing"
	"github.com/matheus3301/wppbridge/internal/state"
	"github.com/matheus3301/wppbridge/internal/store"
	"github.com/matheus3301/wppbridge/internal/tui/ui"
)

// Screen is one rendered frame.
type Screen struct {
	Title  string
	Body   string
	Footer string
}

// Renderer turns snapshots into screens.
type Renderer struct {
	Theme      *ui.Theme
	BackendURL string
	// ListRows bounds how many chats or search results are shown at once.
	ListRows int
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer(backendURL string) *Renderer {
	return &Renderer{Theme: ui.DefaultTheme(), BackendURL: backendURL, ListRows: 10}
}

// Render draws s.
func (r *Renderer) Render(s state.Snapshot) Screen {
	var sc Screen
	switch s.Mode {
	case state.Splash:
		sc = Screen{Body: "\n\n" + ui.Logo(r.Theme, "WhatsApp Bridge") + "\n\n" + r.dim("Loading...")}
	case state.Welcome:
		sc = Screen{Title: "Welcome", Body: "\n\n" + ui.Logo(r.Theme, "Welcome to WhatsApp") + "\n\n" + r.dim("Press SPACE to start")}
	case state.Loading:
		sc = r.loading(s)
	case state.MainMenu:
		sc = r.mainMenu(s)
	case state.ChatList:
		sc = r.chatList(s)
	case state.ContactSearch:
		sc = r.contactSearch(s)
	case state.SmartSync:
		sc = r.smartSync(s)
	case state.ResetAccountInfo:
		sc = r.resetInfo()
	case state.ChatView:
		sc = r.chatView(s)
	case state.Compose:
		sc = r.compose(s)
	case state.Error:
		sc = Screen{Title: "Error", Body: "\n" + r.color(r.Theme.ErrColor, s.Err) + "\n\n" + r.dim("Press r to retry or ESC to quit")}
	}
	sc.Footer = r.footer(s)
	return sc
}

func (r *Renderer) loading(s state.Snapshot) Screen {
	var sb strings.Builder
	sb.WriteString("\nConnecting to WhatsApp...\n\n")
	if s.Sync.Stage != "" {
		sb.WriteString(tview.Escape(s.Sync.Stage) + "\n")
	}
	sb.WriteString(r.progress(s.Sync.Progress, 24))
	return Screen{Title: "Loading", Body: sb.String()}
}

func (r *Renderer) mainMenu(s state.Snapshot) Screen {
	var sb strings.Builder
	sb.WriteString("\n")
	for i, item := range state.MenuItems {
		sb.WriteString(r.row(item, i == s.MenuIndex))
	}
	_, _ = fmt.Fprintf(&sb, "\n%s", r.dim(fmt.Sprintf("%d contacts, %d chats", s.Contacts, s.ChatCount)))
	return Screen{Title: "WhatsApp", Body: sb.String()}
}

func (r *Renderer) chatList(s state.Snapshot) Screen {
	var sb strings.Builder
	start, end := window(len(s.Chats), s.ChatIndex, r.ListRows)
	for i := start; i < end; i++ {
		c := s.Chats[i]
		label := c.Name
		if c.IsGroup {
			label = "# " + label
		}
		if c.UnreadCount > 0 {
			label = fmt.Sprintf("%s (%d)", label, c.UnreadCount)
		}
		sb.WriteString(r.row(label, i == s.ChatIndex))
	}
	title := fmt.Sprintf("Chats (%d)", len(s.Chats))
	return Screen{Title: title, Body: sb.String()}
}

func (r *Renderer) contactSearch(s state.Snapshot) Screen {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Search: %s%s\n\n", tview.Escape(s.Query), r.color(r.Theme.ComposeCursor, "_"))
	switch {
	case s.Query == "":
		sb.WriteString(r.dim("Type a name or number"))
	case len(s.Results) == 0:
		sb.WriteString(r.dim("No contacts found"))
	default:
		start, end := window(len(s.Results), s.ResultIndex, r.ListRows)
		for i := start; i < end; i++ {
			c := s.Results[i]
			label := c.Name
			if c.Phone != "" && c.Phone != c.Name {
				label += "  " + c.Phone
			}
			sb.WriteString(r.row(label, i == s.ResultIndex))
		}
	}
	return Screen{Title: "New Chat", Body: sb.String()}
}

func (r *Renderer) smartSync(s state.Snapshot) Screen {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "\n%s\n%s\n\n", tview.Escape(s.Sync.Stage), r.progress(s.Sync.Progress, 24))
	if s.Sync.Pairing != "" {
		if qr, err := pairing.Render(s.Sync.Pairing, " "); err == nil {
			sb.WriteString("Scan with WhatsApp > Linked devices:\n\n" + qr + "\n")
		}
	}
	if s.Syncing {
		sb.WriteString(r.dim("Syncing..."))
	} else {
		sb.WriteString(r.dim("Press SPACE to continue or r to sync again"))
	}
	return Screen{Title: "Smart Sync", Body: sb.String()}
}

func (r *Renderer) resetInfo() Screen {
	lines := []string{
		"All synchronized data has been deleted.",
		"",
		"To connect a new WhatsApp account:",
		"",
		"1. Open your web browser",
		"2. Go to: " + strings.TrimRight(r.BackendURL, "/") + "/connect/whatsapp",
		"3. Scan the QR code with WhatsApp",
		"4. Return to this app and use Smart Sync",
		"",
	}
	body := "\n" + tview.Escape(strings.Join(lines, "\n")) + "\n" + r.dim("Press ENTER to return to Main Menu")
	return Screen{Title: "Account Reset", Body: body}
}

func (r *Renderer) chatView(s state.Snapshot) Screen {
	title := "Chat"
	if s.HasChat {
		title = s.Chat.Name
	}
	if s.LoadingChat {
		return Screen{Title: title, Body: "\n" + r.dim("Loading chat...")}
	}

	var sb strings.Builder
	for _, m := range s.VisibleMessages() {
		sb.WriteString(r.message(m, s.Chat.IsGroup) + "\n")
	}
	if n := len(s.Messages); n > s.VisibleLines {
		last := min(n, s.Scroll+s.VisibleLines)
		_, _ = fmt.Fprintf(&sb, "\n%s", r.dim(fmt.Sprintf("[%d-%d/%d]", s.Scroll+1, last, n)))
	}
	return Screen{Title: title, Body: sb.String()}
}

func (r *Renderer) message(m store.Message, group bool) string {
	switch {
	case m.FromMe:
		return r.color(r.Theme.OwnMessage, "You: "+m.Text)
	case group && m.Sender() != "":
		return r.color(r.Theme.PeerMessage, m.Sender()+": "+m.Text)
	case m.Type == "system":
		return r.color(r.Theme.SystemMessage, m.Text)
	default:
		return r.color(r.Theme.PeerMessage, m.Text)
	}
}

func (r *Renderer) compose(s state.Snapshot) Screen {
	title := "Message"
	if s.HasChat {
		title = "To: " + s.Chat.Name
	}
	lines := s.ComposeLines
	if len(lines) > s.VisibleLines {
		lines = lines[len(lines)-s.VisibleLines:]
	}
	var sb strings.Builder
	for i, l := range lines {
		sb.WriteString(tview.Escape(l))
		if i == len(lines)-1 {
			sb.WriteString(r.color(r.Theme.ComposeCursor, "_"))
		}
		sb.WriteString("\n")
	}
	_, _ = fmt.Fprintf(&sb, "\n%s", r.dim(fmt.Sprintf("%d/%d", len([]rune(s.Compose)), state.MaxCompose)))
	return Screen{Title: title, Body: sb.String()}
}

func (r *Renderer) footer(s state.Snapshot) string {
	if s.Err != "" {
		return r.color(r.Theme.ErrColor, s.Err)
	}
	if s.Status != "" {
		return r.color(r.Theme.StatusColor, s.Status)
	}
	return ""
}

func (r *Renderer) row(label string, selected bool) string {
	if selected {
		return fmt.Sprintf("[%s:%s] > %s [-:-]\n", ui.ColorName(r.Theme.CursorFg), ui.ColorName(r.Theme.CursorBg), tview.Escape(label))
	}
	return "   " + tview.Escape(label) + "\n"
}

func (r *Renderer) progress(pct, width int) string {
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s[-] %3d%%", ui.Tag(r.Theme.ProgressColor), bar, pct)
}

func (r *Renderer) dim(text string) string {
	return r.color(r.Theme.PlaceholderFg, text)
}

func (r *Renderer) color(c tcell.Color, text string) string {
	return fmt.Sprintf("[#%06x]%s[-]", c.Hex(), tview.Escape(text))
}

// window returns the slice bounds of a list of n rows, at most size long,
// that keeps cursor visible.
func window(n, cursor, size int) (start, end int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start = max(0, min(cursor-size/2, n-size))
	return start, start + size
}
