package demotions

import (
	"context"
	"fmt"

	"demote-bot/demotion"
	"demote-bot/model"
)

// Open connects to the backend selected in cfg and makes sure the schema exists.
func Open(ctx context.Context, cfg model.DatabaseConfig) (demotion.Store, error) {
	switch cfg.Driver {
	case model.DriverSQLite, "":
		store, err := Init(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case model.DriverPostgres:
		store, err := InitPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
