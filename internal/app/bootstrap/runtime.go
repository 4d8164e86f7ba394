// Package bootstrap wires external infrastructure from configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/curaflow/appointment-platform/internal/config"
	"github.com/curaflow/appointment-platform/internal/schedule"
	"github.com/curaflow/appointment-platform/internal/teleconsult"
	"github.com/curaflow/appointment-platform/pkg/logging"
)

// BuildPool opens a pgx connection pool and verifies it with a ping.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildRoomProvider wires the video rooms client, wrapped with the Redis
// link cache when a client is available.
func BuildRoomProvider(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) teleconsult.RoomProvider {
	client := teleconsult.NewRoomsClient(cfg.VideoAPIBaseURL, cfg.VideoAPIKey, cfg.VideoJoinBase, logger)
	if redisClient == nil {
		return client
	}
	store := teleconsult.NewRedisRoomStore(redisClient, cfg.RoomLinkTTL)
	return teleconsult.NewCachingProvider(store, client, logger)
}

// BuildComposer resolves the scheduling timezone. Unknown names fall back
// to UTC with a warning rather than failing startup.
func BuildComposer(cfg *appconfig.Config, logger *logging.Logger) *schedule.Composer {
	if logger == nil {
		logger = logging.Default()
	}
	loc, err := time.LoadLocation(cfg.SchedulingTimezone)
	if err != nil {
		logger.Warn("unknown scheduling timezone, using UTC", "timezone", cfg.SchedulingTimezone)
		loc = time.UTC
	}
	return schedule.NewComposer(loc)
}
