package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewBookStorage opens the connection to the configured storage driver and
// returns the matching BookStorage. Callers own it and must Close it.
func NewBookStorage(ctx context.Context, logger *zap.Logger, config *Config) (BookStorage, error) {
	switch config.Storage.Driver {
	case PostgresDriver:
		pool, err := GetPostgresPool(ctx, &config.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres server: %s", err)
		}
		if config.Postgres.AutoMigrate {
			if err = MigratePostgres(ctx, pool, config.Postgres.Table); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to migrate postgres schema: %s", err)
			}
		}
		return NewPostgresBookStorage(logger, pool, config.Postgres.Table), nil

	case BoltDriver:
		client, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
		}
		return NewBoltBookStorage(logger, &config.BoltDB, client), nil

	case RedisDriver:
		client, err := GetRedisClient(&config.Redis)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		return NewRedisBookStorage(logger, client, config.Redis.HashKey), nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
}
