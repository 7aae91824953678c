package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/rivohq/rivo/internal/config"
	"github.com/rivohq/rivo/internal/database"
	"github.com/rivohq/rivo/internal/events"
	"github.com/rivohq/rivo/internal/locking"
	"github.com/rivohq/rivo/pkg/logging"
)

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
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLocker serializes lead upserts across replicas through Redis, or
// within this process when Redis is unavailable.
func BuildLocker(redisClient *redis.Client, logger *logging.Logger) locking.Locker {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Info("using in-process lead locks")
		return locking.NewLocalLocker()
	}
	return locking.NewRedisLocker(redisClient, locking.DefaultLockTTL)
}

// BuildDeduper returns the processed-event store when message dedupe is on.
func BuildDeduper(cfg *appconfig.Config, db database.Querier) events.Deduper {
	if cfg == nil || !cfg.WhatsAppDedupe {
		return nil
	}
	if db == nil {
		return events.NewMemoryStore()
	}
	return events.NewProcessedStore(db)
}
