package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/wppbridge/internal/state"
	"github.com/matheus3301/wppbridge/internal/tui/keys"
)

// Menu displays the current mode and its keyboard shortcut hints on one
// line.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the hints for mode. Bindings without a label are not
// shown.
func (m *Menu) Update(mode state.Mode, hints []keys.Binding) {
	m.Clear()
	keyColor := ColorName(m.theme.MenuKeyColor)
	_, _ = fmt.Fprintf(m, "[%s::b]%s[-:-:-]  ", ColorName(m.theme.TitleColor), tview.Escape(mode.String()))
	for _, h := range hints {
		if h.Label == "" {
			continue
		}
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %s  ", keyColor, h.Label, h.Description)
	}
}
