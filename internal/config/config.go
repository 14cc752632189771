// Package config loads loom.yaml, the per-project configuration for
// window defaults, the engine endpoint, and the debug server.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loomui/loom/internal/errors"
	"github.com/loomui/loom/pkg/protocol"
)

const (
	// FileName is the name of the configuration file.
	FileName = "loom.yaml"

	// DefaultEndpoint is the engine transport endpoint used when none is
	// configured.
	DefaultEndpoint = "ws://127.0.0.1:7933/loom"

	// DefaultDebugAddr is the default debug server listen address.
	DefaultDebugAddr = "127.0.0.1:7934"

	// DefaultWindowWidth and DefaultWindowHeight size new windows when
	// the config leaves them unset.
	DefaultWindowWidth  = 1024
	DefaultWindowHeight = 768
)

// Config is the parsed loom.yaml.
type Config struct {
	// Window holds defaults applied to every window the process opens.
	Window WindowConfig `yaml:"window,omitempty"`

	// Host configures the connection to the native engine.
	Host HostConfig `yaml:"host,omitempty"`

	// Debug configures the local inspection server.
	Debug DebugConfig `yaml:"debug,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`

	path string
}

// WindowConfig holds window creation defaults.
type WindowConfig struct {
	Width     uint32 `yaml:"width,omitempty"`
	Height    uint32 `yaml:"height,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Resizable *bool  `yaml:"resizable,omitempty"`
}

// HostConfig configures the engine connection.
type HostConfig struct {
	// Endpoint is the websocket URL of the engine.
	Endpoint string `yaml:"endpoint,omitempty"`

	// ReadyDeadline bounds the readiness wait after window creation.
	ReadyDeadline Duration `yaml:"ready_deadline,omitempty"`

	// PollInterval is the event poll cadence.
	PollInterval Duration `yaml:"poll_interval,omitempty"`
}

// Duration lets durations be written as "8ms" or "2s" in loom.yaml.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DebugConfig configures the inspection server.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty"`
}

// New returns a config populated with defaults.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads loom.yaml from dir. A missing file yields the defaults, not
// an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := New()
		c.path = path
		return c, nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates a config file at an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			Messagef("read %s", path).Wrap(err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			Messagef("parse %s", path).Wrap(err)
	}
	c.path = path
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns where the config was loaded from.
func (c *Config) Path() string { return c.path }

func (c *Config) applyDefaults() {
	if c.Window.Width == 0 {
		c.Window.Width = DefaultWindowWidth
	}
	if c.Window.Height == 0 {
		c.Window.Height = DefaultWindowHeight
	}
	if c.Window.Resizable == nil {
		t := true
		c.Window.Resizable = &t
	}
	if c.Host.Endpoint == "" {
		c.Host.Endpoint = DefaultEndpoint
	}
	if c.Debug.Addr == "" {
		c.Debug.Addr = DefaultDebugAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects configs that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Host.PollInterval < 0 {
		return errors.New(errors.CodeConfigInvalid).
			Messagef("host.poll_interval must not be negative")
	}
	if c.Host.ReadyDeadline < 0 {
		return errors.New(errors.CodeConfigInvalid).
			Messagef("host.ready_deadline must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.CodeConfigInvalid).
			Messagef("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// WindowDefaults maps the configured window section onto the wire config
// sent at window creation.
func (c *Config) WindowDefaults() protocol.WindowConfig {
	resizable := true
	if c.Window.Resizable != nil {
		resizable = *c.Window.Resizable
	}
	return protocol.WindowConfig{
		Width:     c.Window.Width,
		Height:    c.Window.Height,
		Title:     c.Window.Title,
		Resizable: resizable,
	}
}

// SlogLevel maps the configured log level onto slog's scale.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Exists reports whether dir carries a loom.yaml.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}
