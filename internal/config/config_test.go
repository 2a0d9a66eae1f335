package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("UIBRIDGE_URL", "")
	t.Setenv("UIBRIDGE_RECONNECT_DELAY", "")
	t.Setenv("UIBRIDGE_LANGUAGES", "")
	t.Setenv("UIBRIDGE_DARK", "")
	t.Setenv("LANG", "de_DE.UTF-8")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d, err := cfg.Delay()
	if err != nil || d != 10*time.Second {
		t.Fatalf("delay = %v, %v", d, err)
	}
	if cfg.Environment.Languages != "de-DE" {
		t.Fatalf("languages = %q", cfg.Environment.Languages)
	}
	if cfg.Environment.Direction != "ltr" || cfg.Environment.PixelRatio != 1 {
		t.Fatalf("environment = %+v", cfg.Environment)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("UIBRIDGE_URL", "")
	t.Setenv("UIBRIDGE_RECONNECT_DELAY", "")
	t.Setenv("UIBRIDGE_LANGUAGES", "")
	t.Setenv("UIBRIDGE_DARK", "")

	dir := t.TempDir()
	data := `url = "https://app.example.com/ui/"
reconnect_delay = "3s"
journal = "-"

[environment]
touch = true
direction = "rtl"
languages = "ar,en"
dark = true
pixel_ratio = 2.5
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "https://app.example.com/ui/" {
		t.Fatalf("url = %q", cfg.URL)
	}
	if d, _ := cfg.Delay(); d != 3*time.Second {
		t.Fatalf("delay = %v", d)
	}
	env := cfg.Environment
	if !env.Touch || env.Direction != "rtl" || env.Languages != "ar,en" || !env.Dark || env.PixelRatio != 2.5 {
		t.Fatalf("environment = %+v", env)
	}
	if cfg.JournalPath(dir) != "" {
		t.Fatalf("journal path = %q", cfg.JournalPath(dir))
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`url = "http://a.test/"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UIBRIDGE_URL", "http://b.test/")
	t.Setenv("UIBRIDGE_RECONNECT_DELAY", "250ms")
	t.Setenv("UIBRIDGE_LANGUAGES", "fr")
	t.Setenv("UIBRIDGE_DARK", "true")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://b.test/" || cfg.Environment.Languages != "fr" || !cfg.Environment.Dark {
		t.Fatalf("config = %+v", cfg)
	}
	if d, _ := cfg.Delay(); d != 250*time.Millisecond {
		t.Fatalf("delay = %v", d)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.URL = "ftp://x/" }},
		{"no host", func(c *Config) { c.URL = "http:///x" }},
		{"bad delay", func(c *Config) { c.ReconnectDelay = "soon" }},
		{"zero delay", func(c *Config) { c.ReconnectDelay = "0s" }},
		{"direction", func(c *Config) { c.Environment.Direction = "up" }},
		{"pixel ratio", func(c *Config) { c.Environment.PixelRatio = -1 }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mod(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestInvalidDarkEnv(t *testing.T) {
	t.Setenv("UIBRIDGE_DARK", "maybe")
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("UIBRIDGE_URL", "")
	t.Setenv("UIBRIDGE_RECONNECT_DELAY", "")
	t.Setenv("UIBRIDGE_LANGUAGES", "")
	t.Setenv("UIBRIDGE_DARK", "")

	dir := filepath.Join(t.TempDir(), "nested")
	cfg := Default()
	cfg.URL = "https://example.com/"
	cfg.Environment.Languages = "en-GB"
	if err := cfg.Save(dir); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != cfg.URL || got.Environment.Languages != "en-GB" {
		t.Fatalf("loaded = %+v", got)
	}
	if got.JournalPath(dir) != filepath.Join(dir, DefaultJournal) {
		t.Fatalf("journal path = %q", got.JournalPath(dir))
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("UIBRIDGE_DIR", "/tmp/ub")
	if DataDir() != "/tmp/ub" {
		t.Fatalf("data dir = %q", DataDir())
	}
}
