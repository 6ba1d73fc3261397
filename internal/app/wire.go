package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"wut/internal/relay"
	"wut/internal/services/identity"
	"wut/internal/store"
)

// Wire bundles the stores, services and clients the CLI needs.
type Wire struct {
	Config   *Config
	Log      zerolog.Logger
	Keys     *store.KeyFileStore
	Identity *identity.Service
	HTTP     *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *Config, log zerolog.Logger, httpClient *http.Client) *Wire {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	keys := store.NewKeyFileStore(cfg.Home)
	return &Wire{
		Config:   cfg,
		Log:      log,
		Keys:     keys,
		Identity: identity.New(keys, log),
		HTTP:     httpClient,
	}
}

// Relay returns a relay client for the configured topic. It has not joined
// yet.
func (w *Wire) Relay() *relay.Client {
	c := relay.NewClient(w.Config.RelayURL, w.Config.Topic, w.Log)
	c.HTTP = w.HTTP
	c.PollInterval = w.Config.PollInterval.Duration
	return c
}
