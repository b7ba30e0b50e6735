package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/wppbridge/internal/backend"
	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/config"
	"github.com/matheus3301/wppbridge/internal/host"
	"github.com/matheus3301/wppbridge/internal/lock"
	"github.com/matheus3301/wppbridge/internal/pairing"
	"github.com/matheus3301/wppbridge/internal/profile"
	"github.com/matheus3301/wppbridge/internal/store"
	intsync "github.com/matheus3301/wppbridge/internal/sync"
)

// deps are the components a command may use.
type deps struct {
	cfg  *config.Config
	gw   *backend.Client
	st   *store.Store
	orch *intsync.Orchestrator
	bus  *bus.Bus
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default: the profile's config.toml)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "init" {
		cmdInit(name, *configFlag, args[1:])
		return
	}

	var d deps
	app := fx.New(
		host.Core(host.Params{Profile: name, ConfigPath: *configFlag, LogPath: profile.CtlLogPath(name)}),
		fx.WithLogger(host.FxLogger),
		fx.Populate(&d.cfg, &d.gw, &d.st, &d.orch, &d.bus),
	)
	if err := app.Err(); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args[0] {
	case "status":
		cmdStatus(ctx, d, name, *jsonFlag)
	case "sync":
		cmdSync(ctx, d, *jsonFlag)
	case "contacts":
		cmdContacts(ctx, d, strings.Join(args[1:], " "), *jsonFlag)
	case "chats":
		cmdChats(ctx, d, *jsonFlag)
	case "history":
		if len(args) < 2 {
			usageError("usage: wppbctl history <chat-id>")
		}
		cmdHistory(ctx, d, args[1], *jsonFlag)
	case "send":
		if len(args) < 3 {
			usageError("usage: wppbctl send <chat-id> <text>")
		}
		cmdSend(ctx, d, args[1], strings.Join(args[2:], " "), *jsonFlag)
	case "reset":
		cmdReset(ctx, d, *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wppbctl [--profile <name>] [--config <path>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  init [backend-url]     Write a default profile config")
	fmt.Fprintln(os.Stderr, "  status                 Show backend readiness (QR when pairing is needed)")
	fmt.Fprintln(os.Stderr, "  sync                   Run a full sync and show progress")
	fmt.Fprintln(os.Stderr, "  contacts [query]       List or search contacts")
	fmt.Fprintln(os.Stderr, "  chats                  List chats")
	fmt.Fprintln(os.Stderr, "  history <chat-id>      Show a chat's messages")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <text>  Send a text message")
	fmt.Fprintln(os.Stderr, "  reset                  Unlink the WhatsApp account")
}

func cmdInit(name, path string, args []string) {
	if path == "" {
		path = profile.ConfigPath(name)
	}
	if _, err := os.Stat(path); err == nil {
		fatal(fmt.Errorf("%s already exists", path))
	}
	cfg := config.Default()
	if len(args) > 0 {
		cfg.BackendURL = args[0]
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	if err := config.Save(path, &cfg); err != nil {
		fatal(err)
	}
	fmt.Printf("Wrote %s\n", path)
}

type statusOutput struct {
	Profile     string `json:"profile"`
	Backend     string `json:"backend"`
	Ready       bool   `json:"ready"`
	Status      string `json:"status"`
	HasQR       bool   `json:"has_qr"`
	QR          string `json:"qr,omitempty"`
	HostRunning bool   `json:"host_running"`
	HostPID     int    `json:"host_pid,omitempty"`
	Error       string `json:"error,omitempty"`
}

func cmdStatus(ctx context.Context, d deps, name string, jsonOut bool) {
	out := statusOutput{Profile: name, Backend: d.gw.BaseURL()}
	if h, ok, err := lock.Inspect(profile.Dir(name)); err == nil && ok {
		out.HostRunning = true
		out.HostPID = h.PID
	}

	srv, err := d.gw.Status(ctx)
	if err != nil {
		out.Error = backend.Describe(err)
	} else {
		out.Ready, out.Status, out.HasQR, out.QR = srv.Ready, srv.Status, srv.HasQR, srv.QR
	}

	if jsonOut {
		outputJSON(out)
	} else {
		fmt.Printf("Profile: %s\n", out.Profile)
		fmt.Printf("Backend: %s\n", out.Backend)
		if out.HostRunning {
			fmt.Printf("Host:    running (PID %d)\n", out.HostPID)
		}
		switch {
		case out.Error != "":
			fmt.Printf("Status:  %s\n", out.Error)
		case out.Ready:
			fmt.Printf("Status:  ready (%s)\n", out.Status)
		default:
			fmt.Printf("Status:  not ready (%s)\n", out.Status)
			if out.QR != "" {
				if qr, err := pairing.Render(out.QR, "  "); err == nil {
					fmt.Printf("\n  Scan this QR code with WhatsApp:\n\n%s\n", qr)
				}
			}
		}
	}
	if out.Error != "" {
		os.Exit(1)
	}
}

// runSync runs a full sync, printing progress unless quiet.
func runSync(ctx context.Context, d deps, quiet bool) intsync.Status {
	events, unsub := d.bus.Subscribe(bus.NamespaceSync, 32)
	defer unsub()

	done := make(chan intsync.Status, 1)
	go func() { done <- d.orch.RunFullSync(ctx) }()

	for {
		select {
		case evt := <-events:
			if s, ok := evt.Payload.(intsync.Status); ok && !quiet {
				fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", s.Progress, s.Stage)
			}
		case st := <-done:
			return st
		}
	}
}

func cmdSync(ctx context.Context, d deps, jsonOut bool) {
	st := runSync(ctx, d, jsonOut)
	contacts, chats := d.st.Counts()
	if jsonOut {
		outputJSON(map[string]any{
			"stage":     st.Stage,
			"progress":  st.Progress,
			"connected": st.Connected,
			"error":     st.Err,
			"contacts":  contacts,
			"chats":     chats,
		})
	} else {
		fmt.Println(st.Stage)
	}
	if st.Err != "" {
		os.Exit(1)
	}
}

func requireSync(ctx context.Context, d deps) {
	if st := runSync(ctx, d, true); !st.Connected {
		msg := st.Err
		if msg == "" {
			msg = st.Stage
		}
		fatal(fmt.Errorf("sync failed: %s", msg))
	}
}

func cmdContacts(ctx context.Context, d deps, query string, jsonOut bool) {
	requireSync(ctx, d)
	contacts := d.st.Contacts()
	if query != "" {
		contacts = d.st.SearchContacts(query)
	}
	if jsonOut {
		outputJSON(contacts)
		return
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts found.")
		return
	}
	for _, c := range contacts {
		fmt.Printf("%-30s %-18s %s\n", c.Name, c.Phone, c.ID)
	}
}

func cmdChats(ctx context.Context, d deps, jsonOut bool) {
	requireSync(ctx, d)
	chats := d.st.Chats()
	if jsonOut {
		outputJSON(chats)
		return
	}
	if len(chats) == 0 {
		fmt.Println("No chats found.")
		return
	}
	for _, c := range chats {
		kind := "direct"
		if c.IsGroup {
			kind = "group"
		}
		fmt.Printf("%-30s %-6s %3d unread  %s\n", c.Name, kind, c.UnreadCount, c.ID)
	}
}

func cmdHistory(ctx context.Context, d deps, chatID string, jsonOut bool) {
	chat := store.Chat{ID: chatID, Name: chatID}
	d.st.OpenConversation(chat)
	msgs, err := d.orch.LoadChatHistory(ctx, chat)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		who := m.Sender()
		if m.FromMe {
			who = "me"
		}
		ts := ""
		if m.Timestamp > 0 {
			ts = time.UnixMilli(m.Timestamp).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-16s %-20s %s\n", ts, who, m.Text)
	}
}

func cmdSend(ctx context.Context, d deps, chatID, text string, jsonOut bool) {
	res, err := d.orch.Send(ctx, chatID, text)
	if err != nil {
		fatal(fmt.Errorf("%s", backend.Describe(err)))
	}
	if jsonOut {
		outputJSON(map[string]string{"chat_id": chatID, "message_id": res.Message.ID})
		return
	}
	fmt.Printf("Message sent! (%s)\n", res.Message.ID)
}

func cmdReset(ctx context.Context, d deps, jsonOut bool) {
	if err := d.orch.ResetAccount(ctx); err != nil {
		fatal(fmt.Errorf("reset failed: %s", backend.Describe(err)))
	}
	if jsonOut {
		outputJSON(map[string]bool{"reset": true})
		return
	}
	fmt.Println("Account reset. Scan a new QR code to link another account.")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func usageError(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
