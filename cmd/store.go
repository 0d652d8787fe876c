package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bizmatch/match-cli/internal/classify"
	"github.com/bizmatch/match-cli/internal/matcher"
	"github.com/bizmatch/match-cli/internal/store"
)

// initStore opens the configured backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return st, nil
}

// initMatcher builds the scorer from config, loading the classifier keyword
// policy override when one is configured.
func initMatcher() (*matcher.Matcher, error) {
	policy := classify.DefaultPolicy()
	if cfg.Classify.PolicyPath != "" {
		p, err := classify.LoadPolicy(cfg.Classify.PolicyPath)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	return matcher.New(cfg.Matcher.Rubric, classify.New(policy)), nil
}
