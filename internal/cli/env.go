package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfhub/internal/platform/config"
	"perfhub/internal/platform/db"
	"perfhub/internal/platform/logger"
)

// loadConfig reads and validates configuration and installs the process logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	logger.Setup(cfg)
	return cfg, nil
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}
