package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/jobtrail/jobtrail-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("database URL is required (JOBTRAIL_STORE_DATABASE_URL)")
	}
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
}
