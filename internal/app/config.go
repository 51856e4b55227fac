package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls runtime behavior for the TUI client. Flags populate it
// first; environment variables override unset flag defaults via FromEnv.
type Config struct {
	BaseURL      string        `env:"HEXACTF_BASE_URL"`
	Timeout      time.Duration `env:"HEXACTF_TIMEOUT"`
	PollInterval time.Duration `env:"HEXACTF_POLL_INTERVAL"`
	DataDir      string        `env:"HEXACTF_DATA_DIR"`
	LogPath      string        `env:"HEXACTF_LOG_PATH"`
	ASCIIOnly    bool          `env:"HEXACTF_ASCII"`
	Debug        bool          `env:"HEXACTF_DEBUG"`
	Demo         bool          `env:"HEXACTF_DEMO"`
	UI           UIConfig
}

type UIConfig struct {
	StyleVariant string `env:"HEXACTF_STYLE"`
	MotionLevel  string `env:"HEXACTF_MOTION"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8080",
		Timeout:      5 * time.Second,
		PollInterval: 15 * time.Second,
		UI: UIConfig{
			StyleVariant: "hex_dark",
			MotionLevel:  "full",
		},
	}
}

// FromEnv overlays HEXACTF_* environment variables onto c.
func FromEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base url %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("invalid poll interval %v", c.PollInterval)
	}

	switch c.UI.StyleVariant {
	case "", "hex_dark", "paper_light", "terminal_green":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "hex_dark"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "hexactf")
	}

	return nil
}
