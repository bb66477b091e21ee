// Package config loads fbsbot's YAML configuration and the users allow-list.
package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database

	"gopkg.in/yaml.v3"

	"github.com/entrhq/fbsbot/pkg/browser"
	"github.com/entrhq/fbsbot/pkg/catalog"
	"github.com/entrhq/fbsbot/pkg/credentials"
	"github.com/entrhq/fbsbot/pkg/logging"
	"github.com/entrhq/fbsbot/pkg/portal"
)

// Environment variables that override file values.
const (
	EnvBotToken = "FBS_BOT_TOKEN"
	EnvTimezone = "TIMEZONE"
	EnvSealKey  = "FBSBOT_SEAL_KEY"
)

// Config represents the configuration of the bot and the booking engine
type Config struct {
	// Telegram transport
	Telegram TelegramConfig `yaml:"telegram"`

	// Portal script settings
	Portal PortalConfig `yaml:"portal"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser"`

	// Concurrency limits
	Concurrency ConcurrencyConfig `yaml:"concurrency"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `yaml:"metrics"`

	// Timezone commands are written in (IANA name)
	Timezone string `yaml:"timezone"`

	// UsersFile is the allow-list mapping chat users to portal logins
	UsersFile string `yaml:"users_file"`

	// CatalogFile optionally replaces the built-in venue catalog
	CatalogFile string `yaml:"catalog_file"`

	// SealKey is the base64 key for sealed passwords in the users file
	SealKey string `yaml:"seal_key"`

	// ConfigFilePath is where the configuration was read from, if anywhere
	ConfigFilePath string `yaml:"-"`
}

// TelegramConfig configures the Bot API client
type TelegramConfig struct {
	Token       string        `yaml:"token"`
	APIURL      string        `yaml:"api_url"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

// PortalConfig configures the booking engine
type PortalConfig struct {
	LoginURL       string         `yaml:"login_url"`
	Timings        portal.Timings `yaml:"timings"`
	FrameTimeout   time.Duration  `yaml:"frame_timeout"`
	ResultTimeout  time.Duration  `yaml:"result_timeout"`
	PollInterval   time.Duration  `yaml:"poll_interval"`
	BookingTimeout time.Duration  `yaml:"booking_timeout"`
	UsageType      string         `yaml:"usage_type"`
	Attendees      int            `yaml:"attendees"`
}

// BrowserConfig configures Chromium sessions
type BrowserConfig struct {
	Headless bool             `yaml:"headless"`
	Viewport browser.Viewport `yaml:"viewport"`
	Timeout  time.Duration    `yaml:"timeout"`
}

// ConcurrencyConfig bounds parallel booking attempts
type ConcurrencyConfig struct {
	MaxSessions int `yaml:"max_sessions"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// MetricsConfig configures the Prometheus endpoint; an empty Addr disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a configuration that talks to the live portal
func DefaultConfig() *Config {
	p := portal.DefaultOptions()
	return &Config{
		Telegram: TelegramConfig{
			APIURL:      "https://api.telegram.org",
			PollTimeout: 30 * time.Second,
		},
		Portal: PortalConfig{
			LoginURL:       p.LoginURL,
			Timings:        p.Timings,
			FrameTimeout:   p.FrameTimeout,
			ResultTimeout:  p.ResultTimeout,
			PollInterval:   p.PollInterval,
			BookingTimeout: 3 * time.Minute,
			UsageType:      catalog.DefaultUsageType,
			Attendees:      2,
		},
		Browser: BrowserConfig{
			Headless: true,
			Viewport: browser.Viewport{
				Width:  browser.DefaultViewportWidth,
				Height: browser.DefaultViewportHeight,
			},
			Timeout: browser.DefaultTimeout,
		},
		Concurrency: ConcurrencyConfig{
			MaxSessions: 1,
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
		Timezone:  "Asia/Singapore",
		UsersFile: "credentials.json",
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ConfigFilePath = path
	return config, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBotToken); v != "" {
		c.Telegram.Token = v
	}
	if v := getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := getenv(EnvSealKey); v != "" {
		c.SealKey = v
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Portal.LoginURL == "" {
		return fmt.Errorf("portal.login_url is required")
	}
	if c.Portal.Attendees < 1 {
		return fmt.Errorf("portal.attendees must be at least 1")
	}
	if c.Portal.UsageType == "" {
		return fmt.Errorf("portal.usage_type is required")
	}
	if c.Portal.BookingTimeout < 0 || c.Portal.FrameTimeout < 0 || c.Portal.ResultTimeout < 0 {
		return fmt.Errorf("portal timeouts cannot be negative")
	}
	if c.Portal.PollInterval < 0 {
		return fmt.Errorf("portal.poll_interval cannot be negative")
	}
	if c.Concurrency.MaxSessions < 1 {
		return fmt.Errorf("concurrency.max_sessions must be at least 1")
	}
	if c.Browser.Viewport.Width <= 0 || c.Browser.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport must be positive")
	}
	if c.Telegram.PollTimeout < 0 {
		return fmt.Errorf("telegram.poll_timeout cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.SealKey != "" {
		if _, err := credentials.ParseKey(c.SealKey); err != nil {
			return fmt.Errorf("invalid seal key: %w", err)
		}
	}
	if c.UsersFile == "" {
		return fmt.Errorf("users_file is required")
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Sealer returns the sealer for the configured key, or nil when no key is set.
func (c *Config) Sealer() (*credentials.Sealer, error) {
	if c.SealKey == "" {
		return nil, nil
	}
	key, err := credentials.ParseKey(c.SealKey)
	if err != nil {
		return nil, err
	}
	return credentials.NewSealer(key)
}

// PortalOptions converts the portal section into engine options.
func (c *Config) PortalOptions() portal.Options {
	return portal.Options{
		LoginURL:      c.Portal.LoginURL,
		Timings:       c.Portal.Timings,
		FrameTimeout:  c.Portal.FrameTimeout,
		ResultTimeout: c.Portal.ResultTimeout,
		PollInterval:  c.Portal.PollInterval,
	}
}

// SessionOptions converts the browser section into session options.
func (c *Config) SessionOptions() browser.SessionOptions {
	viewport := c.Browser.Viewport
	return browser.SessionOptions{
		Headless: c.Browser.Headless,
		Viewport: &viewport,
		Timeout:  c.Browser.Timeout,
	}
}

// Catalog returns the configured catalog, built-in unless CatalogFile is set.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if c.CatalogFile == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(c.CatalogFile)
}
