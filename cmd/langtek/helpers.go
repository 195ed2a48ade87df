package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/langtek/internal/config"
	"github.com/at-ishikawa/langtek/internal/database"
	"github.com/at-ishikawa/langtek/internal/dictionary"
	"github.com/at-ishikawa/langtek/internal/provider"
	"github.com/at-ishikawa/langtek/internal/ratelimit"
	"github.com/at-ishikawa/langtek/internal/translation"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// openStore opens the database, applies migrations and returns the repository on top of it.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, *dictionary.DBRepository, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open > %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database.Migrate > %w", err)
	}
	return db, dictionary.NewDBRepository(db), nil
}

// app is everything a lookup needs, wired from the configuration.
type app struct {
	db      *sqlx.DB
	store   *dictionary.DBRepository
	chain   *provider.Chain
	service *translation.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	chain, err := provider.Build(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("provider.Build > %w", err)
	}

	service := translation.NewService(store, chain,
		translation.WithLanguages(cfg.Languages.From, cfg.Languages.To),
		translation.WithPlaceholder(cfg.Translation.Placeholder),
		translation.WithNotFoundText(cfg.Translation.NotFoundText),
		translation.WithQueueSize(cfg.Translation.QueueSize),
		translation.WithGlobalWindow(ratelimit.NewWindow(cfg.Translation.GlobalPerMinute)),
	)
	service.Start(ctx)

	return &app{
		db:      db,
		store:   store,
		chain:   chain,
		service: service,
	}, nil
}

// Close waits for deferred lookups to finish before releasing the providers and the database.
func (a *app) Close() error {
	a.service.Close()
	return errors.Join(a.chain.Close(), a.db.Close())
}
