package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loomui/loom/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Host.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q, want %q", c.Host.Endpoint, DefaultEndpoint)
	}
	if c.Window.Width != DefaultWindowWidth || c.Window.Height != DefaultWindowHeight {
		t.Errorf("window = %dx%d, want defaults", c.Window.Width, c.Window.Height)
	}
	if c.LogLevel != "info" {
		t.Errorf("log level = %q, want info", c.LogLevel)
	}
}

func TestLoadParsesAndFillsDefaults(t *testing.T) {
	dir := writeConfig(t, `
window:
  width: 320
  title: demo
  resizable: false
host:
  endpoint: ws://engine:9000/loom
  poll_interval: 8ms
debug:
  enabled: true
log_level: debug
`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Window.Width != 320 {
		t.Errorf("width = %d, want 320", c.Window.Width)
	}
	// Unset height falls back.
	if c.Window.Height != DefaultWindowHeight {
		t.Errorf("height = %d, want default", c.Window.Height)
	}
	if c.Host.Endpoint != "ws://engine:9000/loom" {
		t.Errorf("endpoint = %q", c.Host.Endpoint)
	}
	if c.Host.PollInterval.Std() != 8*time.Millisecond {
		t.Errorf("poll interval = %v, want 8ms", c.Host.PollInterval)
	}
	if !c.Debug.Enabled {
		t.Error("debug not enabled")
	}
	if c.Debug.Addr != DefaultDebugAddr {
		t.Errorf("debug addr = %q, want default", c.Debug.Addr)
	}

	w := c.WindowDefaults()
	if w.Resizable {
		t.Error("resizable should stay false")
	}
	if w.Title != "demo" {
		t.Errorf("title = %q, want demo", w.Title)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := writeConfig(t, "window: [not a mapping")
	_, err := Load(dir)
	if !errors.Is(err, errors.CodeConfigInvalid) {
		t.Fatalf("err = %v, want config invalid", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative poll interval", "host:\n  poll_interval: -5ms\n"},
		{"negative ready deadline", "host:\n  ready_deadline: -1s\n"},
		{"unknown log level", "log_level: loud\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeConfig(t, tc.body)
			_, err := Load(dir)
			if !errors.Is(err, errors.CodeConfigInvalid) {
				t.Fatalf("err = %v, want config invalid", err)
			}
		})
	}
}

func TestExists(t *testing.T) {
	dir := writeConfig(t, "log_level: info\n")
	if !Exists(dir) {
		t.Error("Exists = false for present config")
	}
	if Exists(t.TempDir()) {
		t.Error("Exists = true for empty dir")
	}
}
