// Package keys maps terminal key events to state machine inputs.
package keys

import (
	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/wppbridge/internal/state"
)

// Binding ties a key to a state machine action.
type Binding struct {
	Key         tcell.Key
	Rune        rune
	Action      state.Action
	Label       string
	Description string
	Visible     bool
}

// Matches returns true if the event matches this binding.
func (b *Binding) Matches(ev *tcell.EventKey) bool {
	if b.Key != tcell.KeyRune {
		return ev.Key() == b.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == b.Rune
}

// Registry holds bindings per mode, checked before the global ones.
// In text-entry modes unbound runes become TextInput events.
type Registry struct {
	Global []Binding
	Modes  map[state.Mode][]Binding
	text   map[state.Mode]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Modes: make(map[state.Mode][]Binding),
		text:  make(map[state.Mode]bool),
	}
}

// AddGlobal registers a binding for every mode.
func (r *Registry) AddGlobal(b Binding) {
	r.Global = append(r.Global, b)
}

// AddMode registers a mode-specific binding.
func (r *Registry) AddMode(mode state.Mode, b Binding) {
	r.Modes[mode] = append(r.Modes[mode], b)
}

// SetTextEntry marks mode as accepting typed text.
func (r *Registry) SetTextEntry(mode state.Mode) {
	r.text[mode] = true
}

// Translate converts a key event into an input for mode. ok is false
// when the key means nothing there.
func (r *Registry) Translate(mode state.Mode, ev *tcell.EventKey) (state.Input, bool) {
	for _, b := range r.Modes[mode] {
		if b.Matches(ev) {
			return state.Input{Action: b.Action}, true
		}
	}
	if r.text[mode] && ev.Key() == tcell.KeyRune {
		return state.Key(ev.Rune()), true
	}
	for _, b := range r.Global {
		if b.Matches(ev) {
			return state.Input{Action: b.Action}, true
		}
	}
	return state.Input{}, false
}

// Hints returns the visible bindings for mode. A mode binding hides a
// global one with the same label.
func (r *Registry) Hints(mode state.Mode) []Binding {
	var hints []Binding
	seen := make(map[string]bool)
	for _, b := range r.Modes[mode] {
		if b.Visible {
			hints = append(hints, b)
			seen[b.Label] = true
		}
	}
	for _, b := range r.Global {
		if b.Visible && !seen[b.Label] {
			hints = append(hints, b)
		}
	}
	return hints
}

// Default returns the stock key map.
func Default() *Registry {
	r := NewRegistry()

	r.AddGlobal(Binding{Key: tcell.KeyUp, Action: state.NavigateUp})
	r.AddGlobal(Binding{Key: tcell.KeyDown, Action: state.NavigateDown})
	r.AddGlobal(Binding{Key: tcell.KeyEnter, Action: state.Confirm, Label: "Enter", Description: "Select", Visible: true})
	r.AddGlobal(Binding{Key: tcell.KeyEscape, Action: state.Cancel, Label: "Esc", Description: "Back", Visible: true})

	r.AddMode(state.Welcome, Binding{Key: tcell.KeyRune, Rune: ' ', Action: state.Confirm, Label: "Space", Description: "Start", Visible: true})

	r.AddMode(state.ChatList, Binding{Key: tcell.KeyRune, Rune: 'r', Action: state.Refresh, Label: "r", Description: "Refresh", Visible: true})

	r.AddMode(state.SmartSync, Binding{Key: tcell.KeyRune, Rune: ' ', Action: state.Confirm, Label: "Space", Description: "Continue", Visible: true})
	r.AddMode(state.SmartSync, Binding{Key: tcell.KeyRune, Rune: 'r', Action: state.Retry, Label: "r", Description: "Sync again", Visible: true})

	r.AddMode(state.Error, Binding{Key: tcell.KeyRune, Rune: 'r', Action: state.Retry, Label: "r", Description: "Retry", Visible: true})

	r.AddMode(state.ChatView, Binding{Key: tcell.KeyEnter, Action: state.Confirm, Label: "Enter", Description: "Write", Visible: true})
	r.AddMode(state.ChatView, Binding{Key: tcell.KeyPgUp, Action: state.NavigateUp})
	r.AddMode(state.ChatView, Binding{Key: tcell.KeyPgDn, Action: state.NavigateDown})

	for _, m := range []state.Mode{state.ContactSearch, state.Compose} {
		r.SetTextEntry(m)
		r.AddMode(m, Binding{Key: tcell.KeyBackspace, Action: state.Backspace})
		r.AddMode(m, Binding{Key: tcell.KeyBackspace2, Action: state.Backspace})
	}
	r.AddMode(state.Compose, Binding{Key: tcell.KeyEnter, Action: state.Confirm, Label: "Enter", Description: "Send", Visible: true})
	r.AddMode(state.Compose, Binding{Key: tcell.KeyEscape, Action: state.Cancel, Label: "Esc", Description: "Discard", Visible: true})

	return r
}
