package kvstore

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pricelist/pkg/config"
	"github.com/angelmondragon/pricelist/pkg/db"
	pkgerrors "github.com/angelmondragon/pricelist/pkg/errors"
	"github.com/angelmondragon/pricelist/pkg/logger"
	"github.com/angelmondragon/pricelist/pkg/migrate"
	"github.com/angelmondragon/pricelist/pkg/redis"
)

// Open builds the Store selected by cfg.Storage.Backend, applying schema
// migrations for the SQL backends. The returned close function releases the
// underlying connection.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return NewMemory(), noop, nil
	case config.StorageSQLite, config.StoragePostgres:
		client, err := db.New(ctx, cfg.Storage.Backend, cfg.DB, logg)
		if err != nil {
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open database")
		}
		if err := migrate.Apply(ctx, cfg.Storage.Backend, client, logg); err != nil {
			_ = client.Close()
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "migrate database")
		}
		store, err := NewGorm(client)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil
	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, noop, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open redis")
		}
		store, err := NewRedis(client)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
