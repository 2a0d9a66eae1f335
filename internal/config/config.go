package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration loaded from config.toml.
type Config struct {
	// Page URL the channel endpoint is derived from (e.g.
	// "https://app.example.com/"). Empty means it must be given on the
	// command line.
	URL string `toml:"url,omitempty"`
	// Delay before re-dialing a lost channel, as a Go duration ("10s").
	ReconnectDelay string `toml:"reconnect_delay,omitempty"`
	// Journal file name inside the data dir. "-" disables the journal.
	Journal     string            `toml:"journal,omitempty"`
	Environment EnvironmentConfig `toml:"environment"`
}

// EnvironmentConfig is announced to the controller in the handshake.
type EnvironmentConfig struct {
	Touch      bool    `toml:"touch"`
	Direction  string  `toml:"direction"`
	Languages  string  `toml:"languages"`
	Dark       bool    `toml:"dark"`
	PixelRatio float64 `toml:"pixel_ratio"`
}

const (
	DefaultReconnectDelay = 10 * time.Second
	DefaultJournal        = "journal.jsonl"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ReconnectDelay: DefaultReconnectDelay.String(),
		Journal:        DefaultJournal,
		Environment: EnvironmentConfig{
			Direction:  "ltr",
			Languages:  defaultLanguages(),
			PixelRatio: 1,
		},
	}
}

// defaultLanguages derives a preference list from LANG, e.g.
// "de_DE.UTF-8" becomes "de-DE". Falls back to "en".
func defaultLanguages() string {
	lang := os.Getenv("LANG")
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" || lang == "C" || lang == "POSIX" {
		return "en"
	}
	return strings.ReplaceAll(lang, "_", "-")
}

// DataDir returns UIBRIDGE_DIR, or ~/.uibridge.
func DataDir() string {
	if dir := os.Getenv("UIBRIDGE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".uibridge"
	}
	return filepath.Join(home, ".uibridge")
}

// LoadConfig reads config.toml from dataDir, applies environment variable
// overrides, and validates the result.
func LoadConfig(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, "config.toml")

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if u := os.Getenv("UIBRIDGE_URL"); u != "" {
		cfg.URL = u
	}
	if d := os.Getenv("UIBRIDGE_RECONNECT_DELAY"); d != "" {
		cfg.ReconnectDelay = d
	}
	if l := os.Getenv("UIBRIDGE_LANGUAGES"); l != "" {
		cfg.Environment.Languages = l
	}
	if d := os.Getenv("UIBRIDGE_DARK"); d != "" {
		dark, err := strconv.ParseBool(d)
		if err != nil {
			return nil, fmt.Errorf("UIBRIDGE_DARK: %w", err)
		}
		cfg.Environment.Dark = dark
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the URL, the reconnect delay and the environment.
func (c *Config) Validate() error {
	if c.URL != "" {
		if err := ValidateURL(c.URL); err != nil {
			return err
		}
	}
	if _, err := c.Delay(); err != nil {
		return err
	}
	switch c.Environment.Direction {
	case "", "ltr", "rtl":
	default:
		return fmt.Errorf("environment.direction must be ltr or rtl, got: %q", c.Environment.Direction)
	}
	if c.Environment.PixelRatio < 0 {
		return fmt.Errorf("environment.pixel_ratio must not be negative, got: %g", c.Environment.PixelRatio)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) page URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("url must be http or https, got: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host: %q", raw)
	}
	return nil
}

// Delay parses ReconnectDelay. Empty means the default.
func (c *Config) Delay() (time.Duration, error) {
	if c.ReconnectDelay == "" {
		return DefaultReconnectDelay, nil
	}
	d, err := time.ParseDuration(c.ReconnectDelay)
	if err != nil {
		return 0, fmt.Errorf("reconnect_delay: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("reconnect_delay must be positive, got: %s", d)
	}
	return d, nil
}

// JournalPath returns the journal file path, or "" when journaling is off.
func (c *Config) JournalPath(dataDir string) string {
	switch c.Journal {
	case "-":
		return ""
	case "":
		return filepath.Join(dataDir, DefaultJournal)
	}
	if filepath.IsAbs(c.Journal) {
		return c.Journal
	}
	return filepath.Join(dataDir, c.Journal)
}

// Save writes the configuration to config.toml inside dataDir, creating
// the directory if necessary.
func (c *Config) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, "config.toml")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encoding config.toml: %w", err)
	}
	return nil
}
