package tui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/state"
	"github.com/matheus3301/wppbridge/internal/store"
)

type fakeController struct {
	snap   state.Snapshot
	inputs []state.Input
	signal state.Signal
	faults []error
}

func (f *fakeController) Fault(err error) {
	f.faults = append(f.faults, err)
	f.snap.Mode = state.Error
	f.snap.Err = "Internal error: " + err.Error()
}

func (f *fakeController) Snapshot() state.Snapshot { return f.snap }

func (f *fakeController) HandleInputEvent(in state.Input) state.Signal {
	f.inputs = append(f.inputs, in)
	if in.Action == state.TextInput {
		f.snap.Query += string(in.Char)
	}
	return f.signal
}

func key(k tcell.Key, r rune) *tcell.EventKey {
	return tcell.NewEventKey(k, r, tcell.ModNone)
}

func TestHandleKeyTranslatesPerMode(t *testing.T) {
	ctrl := &fakeController{snap: state.Snapshot{Mode: state.ContactSearch}}
	a := NewApp(ctrl, nil, "http://localhost:3000", "main", 0, nil)

	a.handleKey(key(tcell.KeyRune, 'a'))
	a.handleKey(key(tcell.KeyRune, 'l'))
	a.handleKey(key(tcell.KeyDown, 0))
	a.handleKey(key(tcell.KeyF9, 0))

	want := []state.Input{state.Key('a'), state.Key('l'), {Action: state.NavigateDown}}
	if len(ctrl.inputs) != len(want) {
		t.Fatalf("inputs = %+v, want %+v", ctrl.inputs, want)
	}
	for i := range want {
		if ctrl.inputs[i] != want[i] {
			t.Errorf("input %d = %+v, want %+v", i, ctrl.inputs[i], want[i])
		}
	}
	if body := a.frame.GetText(true); !strings.Contains(body, "Search: al") {
		t.Errorf("frame not redrawn after input: %q", body)
	}
}

func TestHandleKeyExit(t *testing.T) {
	ctrl := &fakeController{snap: state.Snapshot{Mode: state.MainMenu}, signal: state.Exit}
	a := NewApp(ctrl, nil, "", "main", 0, nil)

	if ev := a.handleKey(key(tcell.KeyEscape, 0)); ev != nil {
		t.Error("key event should be consumed")
	}
	if len(ctrl.inputs) != 1 || ctrl.inputs[0].Action != state.Cancel {
		t.Errorf("inputs = %+v", ctrl.inputs)
	}
}

func TestDrawTitleAndFooter(t *testing.T) {
	ctrl := &fakeController{snap: state.Snapshot{Mode: state.MainMenu, Err: "No chats available"}}
	a := NewApp(ctrl, nil, "", "work", 0, nil)
	a.draw()

	if title := a.frame.GetTitle(); !strings.Contains(title, "WhatsApp") || !strings.Contains(title, "work") {
		t.Errorf("title = %q", title)
	}
	if footer := a.footer.GetText(true); !strings.Contains(footer, "No chats available") {
		t.Errorf("footer = %q", footer)
	}
	if hints := a.menu.GetText(true); !strings.Contains(hints, "Select") || !strings.Contains(hints, state.MainMenu.String()) {
		t.Errorf("hints = %q", hints)
	}
}

func TestDrawRecoversRenderFault(t *testing.T) {
	ctrl := &fakeController{snap: state.Snapshot{
		Mode:         state.ChatView,
		HasChat:      true,
		Scroll:       -1,
		VisibleLines: 6,
		Messages:     []store.Message{{ID: "1", Text: "hi"}},
	}}
	a := NewApp(ctrl, nil, "", "main", 0, nil)

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("draw panicked: %v", r)
			}
		}()
		a.draw()
	}()

	if len(ctrl.faults) != 1 {
		t.Fatalf("faults = %v, want one", ctrl.faults)
	}
	if !strings.Contains(ctrl.faults[0].Error(), "chat_view") {
		t.Errorf("fault = %v", ctrl.faults[0])
	}
	if body := a.frame.GetText(true); !strings.Contains(body, "Internal error") {
		t.Errorf("frame = %q", body)
	}

	// The next draw shows the Error screen from the controller.
	a.draw()
	if len(ctrl.faults) != 1 {
		t.Errorf("faults after redraw = %d, want 1", len(ctrl.faults))
	}
	if title := a.frame.GetTitle(); !strings.Contains(title, "main") {
		t.Errorf("title = %q", title)
	}
}

func TestBusDroppedLogsGrowth(t *testing.T) {
	b := bus.New()
	_, unsub := b.Subscribe(bus.NamespaceSync, 1)
	defer unsub()
	for range 3 {
		b.Publish(bus.Event{Kind: bus.SyncProgress})
	}

	core, logs := observer.New(zapcore.WarnLevel)
	a := NewApp(&fakeController{}, b, "", "main", 0, zap.New(core))

	if got := a.busDropped(0); got != 2 {
		t.Fatalf("busDropped(0) = %d, want 2", got)
	}
	entries := logs.FilterMessage("bus deliveries dropped").All()
	if len(entries) != 1 || entries[0].ContextMap()["dropped"] != uint64(2) {
		t.Fatalf("entries = %+v", entries)
	}

	if got := a.busDropped(2); got != 2 {
		t.Errorf("busDropped(2) = %d, want 2", got)
	}
	if n := logs.Len(); n != 1 {
		t.Errorf("log entries = %d, want 1 after no new drops", n)
	}
}
