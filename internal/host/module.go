// Package host wires the bridge components into fx applications.
package host

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/wppbridge/internal/backend"
	"github.com/matheus3301/wppbridge/internal/bus"
	"github.com/matheus3301/wppbridge/internal/config"
	"github.com/matheus3301/wppbridge/internal/lock"
	"github.com/matheus3301/wppbridge/internal/logging"
	"github.com/matheus3301/wppbridge/internal/poller"
	"github.com/matheus3301/wppbridge/internal/profile"
	"github.com/matheus3301/wppbridge/internal/state"
	"github.com/matheus3301/wppbridge/internal/store"
	intsync "github.com/matheus3301/wppbridge/internal/sync"
	"github.com/matheus3301/wppbridge/internal/tui"
)

// Params holds the resolved profile settings passed to the fx modules.
type Params struct {
	Profile    string
	ConfigPath string // optional override; empty = profile config
	LogPath    string // optional override; empty = profile log
	Console    bool   // also log to stderr
}

// Core returns the components shared by every binary: config, logger,
// bus, store, backend gateway and sync orchestrator.
func Core(p Params) fx.Option {
	return fx.Module("core",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStore,
			provideGateway,
			provideOrchestrator,
		),
	)
}

// FxLogger routes fx's own events to the profile log. Pass it to
// fx.WithLogger so startup messages do not land on the terminal.
func FxLogger(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
}

// Module returns the terminal host: Core plus the profile lock, state
// machine, realtime poller and tview application.
func Module(p Params) fx.Option {
	return fx.Options(
		Core(p),
		fx.Module("host",
			fx.Provide(
				provideLock,
				provideController,
				providePoller,
				provideApp,
			),
			fx.Invoke(registerLifecycle),
		),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = profile.ConfigPath(p.Profile)
	}
	return config.Load(path)
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	path := p.LogPath
	if path == "" {
		path = profile.LogPath(p.Profile)
	}
	return logging.New(path, cfg.LogLevel, p.Profile, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(logger *zap.Logger) *store.Store {
	return store.New(logger.Named("store"))
}

func provideGateway(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.New(cfg.BackendURL, backend.Timeouts{
		Status:  config.Ms(cfg.StatusTimeoutMS),
		Fetch:   config.Ms(cfg.FetchTimeoutMS),
		History: config.Ms(cfg.HistoryTimeoutMS),
		Send:    config.Ms(cfg.SendTimeoutMS),
		Reset:   config.Ms(cfg.ResetTimeoutMS),
	}, logger.Named("backend"))
}

func provideOrchestrator(gw *backend.Client, st *store.Store, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *intsync.Orchestrator {
	return intsync.New(gw, st, b, cfg.BackendURL, logger.Named("sync"))
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("profile", p.Profile))
	return l, nil
}

// ControllerOptions maps config onto state machine options.
func ControllerOptions(cfg *config.Config) state.Options {
	opts := state.DefaultOptions()
	if cfg.StartScreen == config.StartWelcome {
		opts.StartMode = state.Welcome
	}
	opts.AutoSync = cfg.AutoSync
	opts.Splash = config.Ms(cfg.SplashMS)
	opts.Welcome = config.Ms(cfg.WelcomeMS)
	opts.LoadingTimeout = config.Ms(cfg.LoadingTimeoutMS)
	opts.TickInterval = config.Ms(cfg.TickMS)
	opts.VisibleLines = cfg.VisibleLines
	opts.ComposeWidth = cfg.ComposeWidth
	return opts
}

func provideController(orch *intsync.Orchestrator, st *store.Store, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *state.Controller {
	return state.New(orch, st, b, ControllerOptions(cfg), logger.Named("state"))
}

func providePoller(gw *backend.Client, ctrl *state.Controller, st *store.Store, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *poller.Poller {
	return poller.New(gw, ctrl, ctrl, st, b,
		config.Ms(cfg.PollIntervalMS), config.Ms(cfg.PollTimeoutMS), logger.Named("poller"))
}

func provideApp(p Params, ctrl *state.Controller, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *tui.App {
	return tui.NewApp(ctrl, b, cfg.BackendURL, p.Profile, 0, logger.Named("tui"))
}

func registerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, app *tui.App, ctrl *state.Controller, pl *poller.Poller, lk *lock.Lock, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctrl.Start(ctx)
			pl.Start(ctx)
			go func() {
				if err := app.Run(ctx); err != nil {
					logger.Error("terminal host error", zap.Error(err))
				}
				_ = sd.Shutdown()
			}()
			logger.Info("bridge started")
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			app.Stop()
			pl.Stop()
			ctrl.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("bridge stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
