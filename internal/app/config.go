package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"wut/internal/logging"
)

const (
	DefaultTopic        = "wut-lobby"
	DefaultRelayURL     = "http://127.0.0.1:8080"
	DefaultBio          = "Web 3.0 Enthusiast"
	DefaultPeerRefresh  = 5 * time.Second
	DefaultPollInterval = time.Second
	ConfigFileName      = "config.toml"
)

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds runtime options for building the app.
type Config struct {
	Home         string   `toml:"-"` // application home, e.g. $HOME/.wut
	Handle       string   // announced handle; empty means the transport peer id
	Bio          string   // announced bio
	RelayURL     string   // relay base URL, e.g. http://127.0.0.1:8080
	Topic        string   // pub/sub topic to join
	PeerRefresh  Duration // how often the peer list is re-polled
	PollInterval Duration // how often the relay inbox is polled
	LogLevel     string   // debug, info, warn or error
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Bio:          DefaultBio,
		RelayURL:     DefaultRelayURL,
		Topic:        DefaultTopic,
		PeerRefresh:  Duration{DefaultPeerRefresh},
		PollInterval: Duration{DefaultPollInterval},
		LogLevel:     "info",
	}
}

// DefaultHome is ~/.wut.
func DefaultHome() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".wut"), nil
}

// Load parses b over the defaults and validates the result.
func Load(b []byte) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: undecoded keys in config file: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and validates f. A missing file yields the defaults.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg, err := Load(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the app cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("config: Topic is not set")
	}
	if c.PeerRefresh.Duration <= 0 {
		return errors.New("config: PeerRefresh must be positive")
	}
	if c.PollInterval.Duration <= 0 {
		return errors.New("config: PollInterval must be positive")
	}
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return fmt.Errorf("config: RelayURL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: RelayURL %q is not an http(s) URL", c.RelayURL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
