package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. WPPB_BACKEND_URL.
const EnvPrefix = "WPPB"

// Config is a profile's config.toml.
type Config struct {
	BackendURL  string `toml:"backend_url"`
	StartScreen string `toml:"start_screen"`
	AutoSync    bool   `toml:"auto_sync"`
	LogLevel    string `toml:"log_level"`

	SplashMS         int `toml:"splash_ms"`
	WelcomeMS        int `toml:"welcome_ms"`
	LoadingTimeoutMS int `toml:"loading_timeout_ms"`
	TickMS           int `toml:"tick_ms"`

	PollIntervalMS int `toml:"poll_interval_ms"`
	PollTimeoutMS  int `toml:"poll_timeout_ms"`

	StatusTimeoutMS  int `toml:"status_timeout_ms"`
	FetchTimeoutMS   int `toml:"fetch_timeout_ms"`
	HistoryTimeoutMS int `toml:"history_timeout_ms"`
	SendTimeoutMS    int `toml:"send_timeout_ms"`
	ResetTimeoutMS   int `toml:"reset_timeout_ms"`

	VisibleLines int `toml:"visible_lines"`
	ComposeWidth int `toml:"compose_width"`
}

// Start screens.
const (
	StartSplash  = "splash"
	StartWelcome = "welcome"
)

// Default returns the stock configuration.
func Default() Config {
	return Config{
		BackendURL:       "http://localhost:3000",
		StartScreen:      StartSplash,
		AutoSync:         true,
		LogLevel:         "info",
		SplashMS:         3000,
		WelcomeMS:        2000,
		LoadingTimeoutMS: 8000,
		TickMS:           100,
		PollIntervalMS:   1000,
		PollTimeoutMS:    5000,
		StatusTimeoutMS:  3000,
		FetchTimeoutMS:   15000,
		HistoryTimeoutMS: 5000,
		SendTimeoutMS:    10000,
		ResetTimeoutMS:   10000,
		VisibleLines:     6,
		ComposeWidth:     28,
	}
}

// Load reads config from path. A missing file yields the defaults;
// WPPB_* environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	defaults := map[string]any{
		"backend_url":        def.BackendURL,
		"start_screen":       def.StartScreen,
		"auto_sync":          def.AutoSync,
		"log_level":          def.LogLevel,
		"splash_ms":          def.SplashMS,
		"welcome_ms":         def.WelcomeMS,
		"loading_timeout_ms": def.LoadingTimeoutMS,
		"tick_ms":            def.TickMS,
		"poll_interval_ms":   def.PollIntervalMS,
		"poll_timeout_ms":    def.PollTimeoutMS,
		"status_timeout_ms":  def.StatusTimeoutMS,
		"fetch_timeout_ms":   def.FetchTimeoutMS,
		"history_timeout_ms": def.HistoryTimeoutMS,
		"send_timeout_ms":    def.SendTimeoutMS,
		"reset_timeout_ms":   def.ResetTimeoutMS,
		"visible_lines":      def.VisibleLines,
		"compose_width":      def.ComposeWidth,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := &Config{
		BackendURL:       v.GetString("backend_url"),
		StartScreen:      v.GetString("start_screen"),
		AutoSync:         v.GetBool("auto_sync"),
		LogLevel:         v.GetString("log_level"),
		SplashMS:         v.GetInt("splash_ms"),
		WelcomeMS:        v.GetInt("welcome_ms"),
		LoadingTimeoutMS: v.GetInt("loading_timeout_ms"),
		TickMS:           v.GetInt("tick_ms"),
		PollIntervalMS:   v.GetInt("poll_interval_ms"),
		PollTimeoutMS:    v.GetInt("poll_timeout_ms"),
		StatusTimeoutMS:  v.GetInt("status_timeout_ms"),
		FetchTimeoutMS:   v.GetInt("fetch_timeout_ms"),
		HistoryTimeoutMS: v.GetInt("history_timeout_ms"),
		SendTimeoutMS:    v.GetInt("send_timeout_ms"),
		ResetTimeoutMS:   v.GetInt("reset_timeout_ms"),
		VisibleLines:     v.GetInt("visible_lines"),
		ComposeWidth:     v.GetInt("compose_width"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend URL and that every bound is positive.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend_url %q: must be an http(s) URL", c.BackendURL)
	}
	if c.StartScreen != StartSplash && c.StartScreen != StartWelcome {
		return fmt.Errorf("invalid start_screen %q: must be %q or %q", c.StartScreen, StartSplash, StartWelcome)
	}
	bounds := []struct {
		key string
		val int
	}{
		{"splash_ms", c.SplashMS},
		{"welcome_ms", c.WelcomeMS},
		{"loading_timeout_ms", c.LoadingTimeoutMS},
		{"tick_ms", c.TickMS},
		{"poll_interval_ms", c.PollIntervalMS},
		{"poll_timeout_ms", c.PollTimeoutMS},
		{"status_timeout_ms", c.StatusTimeoutMS},
		{"fetch_timeout_ms", c.FetchTimeoutMS},
		{"history_timeout_ms", c.HistoryTimeoutMS},
		{"send_timeout_ms", c.SendTimeoutMS},
		{"reset_timeout_ms", c.ResetTimeoutMS},
		{"visible_lines", c.VisibleLines},
		{"compose_width", c.ComposeWidth},
	}
	for _, b := range bounds {
		if b.val <= 0 {
			return fmt.Errorf("invalid %s %d: must be positive", b.key, b.val)
		}
	}
	return nil
}

// Ms converts a millisecond setting to a duration.
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	return writeTOML(path, cfg)
}

func writeTOML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
