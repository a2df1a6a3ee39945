package handlers

import (
	"fmt"

	"newswire/internal/config"
	"newswire/internal/persistence"
)

// setup loads and fully validates configuration, then opens the store.
// Used by the subcommands that need the LLM provider.
func setup(cfgFile string) (*config.Config, *persistence.PostgresStore, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

// setupStore is the lighter path for subcommands that only touch the
// database and do not need LLM credentials.
func setupStore(cfgFile string) (*config.Config, *persistence.PostgresStore, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Connection == "" {
		return nil, nil, fmt.Errorf("STORE_CONNECTION is required")
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func openStore(cfg *config.Config) (*persistence.PostgresStore, error) {
	store, err := persistence.NewPostgresStore(cfg.Store.Connection, cfg.Store.OpTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}
