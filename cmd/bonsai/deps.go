package main

import (
	"log/slog"

	"github.com/mhkc/bonsai-libs/client"
	"github.com/mhkc/bonsai-libs/config"
	"github.com/mhkc/bonsai-libs/logger"
)

// newCoreClient builds a core client for the given base URL from the
// loaded profile, attaching the stored token when present.
func newCoreClient(cfg *config.Config, baseURL string, log *slog.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithRetry(cfg.MaxRetries(), 0, 0),
		client.WithLogger(log),
	}
	if cfg.Token != "" {
		opts = append(opts, client.WithAuth(client.BearerToken{Token: cfg.Token}))
	}
	return client.New(baseURL, opts...)
}

// loadConfig reads the profile honoring the global --config flag.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New("bonsai-cli", logger.ParseLevel(cfg.LogLevel))
	return cfg, log, nil
}
