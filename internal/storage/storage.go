// Package storage picks the hotel repository backend at startup.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_search/internal/domain"
	"hotel_search/internal/shared"
	"hotel_search/internal/storage/memory"
	mysqlrepo "hotel_search/internal/storage/mysql"
)

// Open returns the configured repository and a close func that releases it.
func Open(ctx context.Context, cfg shared.Config) (domain.HotelRepository, func(), error) {
	switch cfg.StorageBackend {
	case shared.BackendMemory:
		log.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")
		return memory.New(), func() {}, nil

	case shared.BackendMySQL:
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN, mysqlrepo.PoolConfig{
			MaxOpenConns:    cfg.MySQLMaxOpenConns,
			MaxIdleConns:    cfg.MySQLMaxIdleConns,
			ConnMaxLifetime: cfg.MySQLConnMaxLifetime,
			PingAttempts:    10,
			PingInterval:    time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := mysqlrepo.New(db, mysqlrepo.WithRetry(mysqlrepo.RetryPolicy{
			MaxAttempts: cfg.StoreMaxRetries,
			MaxDelay:    cfg.StoreRetryMaxDelay,
		}))
		log.Info().Str("backend", cfg.StorageBackend).Int("max_retries", cfg.StoreMaxRetries).Msg("storage ready")
		return repo, func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
