// Package tui is the terminal host: it feeds key events to the state
// machine and draws its snapshots.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/state"
	"github.com/matheus3301/wppbridge/internal/tui/keys"
	"github.com/matheus3301/wppbridge/internal/tui/ui"
	"github.com/matheus3301/wppbridge/internal/tui/views"
)

// Controller is the state machine surface the host drives.
type Controller interface {
	Snapshot() state.Snapshot
	HandleInputEvent(in state.Input) state.Signal
	Fault(err error)
}

// App is the main terminal application shell.
type App struct {
	app      *tview.Application
	ctrl     Controller
	bus      *bus.Bus
	registry *keys.Registry
	renderer *views.Renderer
	logger   *zap.Logger

	frame  *tview.TextView
	footer *tview.TextView
	menu   *ui.Menu

	refresh time.Duration
	profile string
}

// NewApp creates the terminal application.
func NewApp(ctrl Controller, b *bus.Bus, backendURL, profileName string, refresh time.Duration, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}
	renderer := views.NewRenderer(backendURL)
	theme := renderer.Theme

	frame := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)
	frame.SetBorder(true)
	frame.SetBorderColor(theme.BorderColor)
	frame.SetBackgroundColor(theme.BgColor)
	frame.SetTextColor(theme.FgColor)
	frame.SetTitleColor(theme.TitleColor)

	footer := tview.NewTextView().SetDynamicColors(true)
	footer.SetBackgroundColor(theme.BgColor)

	a := &App{
		app:      tview.NewApplication(),
		ctrl:     ctrl,
		bus:      b,
		registry: keys.Default(),
		renderer: renderer,
		logger:   logger,
		frame:    frame,
		footer:   footer,
		menu:     ui.NewMenu(theme),
		refresh:  refresh,
		profile:  profileName,
	}
	a.setupLayout()
	return a
}

func (a *App) setupLayout() {
	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.frame, 0, 1, true).
		AddItem(a.footer, 1, 0, false).
		AddItem(a.menu, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		a.app.Stop()
		return nil
	}
	mode := a.ctrl.Snapshot().Mode
	in, ok := a.registry.Translate(mode, event)
	if !ok {
		return nil
	}
	if a.ctrl.HandleInputEvent(in) == state.Exit {
		a.logger.Info("exit requested", zap.Stringer("mode", mode))
		a.app.Stop()
		return nil
	}
	a.draw()
	return nil
}

// draw renders the current snapshot. Must run on the UI goroutine.
func (a *App) draw() {
	s := a.ctrl.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			a.renderFault(s.Mode, fmt.Errorf("render %s: %v", s.Mode, r))
		}
	}()
	sc := a.renderer.Render(s)

	title := " " + a.profile + " "
	if sc.Title != "" {
		title = " " + sc.Title + " | " + a.profile + " "
	}
	a.frame.SetTitle(title)
	a.frame.SetText(sc.Body)
	a.footer.SetText(" " + sc.Footer)
	a.menu.Update(s.Mode, a.registry.Hints(s.Mode))
}

// renderFault reports a rendering panic to the state machine and shows a
// bare error frame in place of the screen that failed.
func (a *App) renderFault(mode state.Mode, err error) {
	a.logger.Error("render fault", zap.Stringer("mode", mode), zap.Error(err))
	if mode != state.Error {
		a.ctrl.Fault(err)
	}
	a.frame.SetTitle(" Error | " + a.profile + " ")
	a.frame.SetText(tview.Escape("Internal error: " + err.Error()))
	a.footer.SetText("")
	a.menu.Update(state.Error, a.registry.Hints(state.Error))
}

// Run draws until the user exits or ctx is cancelled. Bus events and a
// refresh ticker trigger redraws so timers and background work show up
// without a key press.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var events <-chan bus.Event
	if a.bus != nil {
		ch, unsub := a.bus.Subscribe("", 64)
		defer unsub()
		events = ch
	}

	go func() {
		ticker := time.NewTicker(a.refresh)
		defer ticker.Stop()
		var dropped uint64
		for {
			select {
			case <-ticker.C:
				dropped = a.busDropped(dropped)
				a.app.QueueUpdateDraw(a.draw)
			case evt := <-events:
				a.logger.Debug("redraw", zap.String("event", evt.Kind))
				a.app.QueueUpdateDraw(a.draw)
			case <-ctx.Done():
				a.app.Stop()
				return
			}
		}
	}()

	a.draw()
	return a.app.Run()
}

// busDropped logs deliveries the bus skipped since the total last and
// returns the new total.
func (a *App) busDropped(last uint64) uint64 {
	if a.bus == nil {
		return last
	}
	n := a.bus.Dropped()
	if n > last {
		a.logger.Warn("bus deliveries dropped", zap.Uint64("dropped", n-last), zap.Uint64("total", n))
	}
	return n
}

// Stop gracefully shuts down the terminal application.
func (a *App) Stop() {
	a.app.Stop()
}
