// Package cache holds the optional Redis side of the service. Every caller
// must cope with a nil client: Redis speeds things up but is never required.
package cache

import (
	"context"
	"time"

	"tapearn/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Connect returns a ready client, or nil when addr is empty or Redis does
// not answer a ping within two seconds.
func Connect(addr, password string, db int) *redis.Client {
	if addr == "" {
		logger.Info("redis disabled, REDIS_ADDR is empty")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without it", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}

	logger.Info("redis connected", "addr", addr)
	return client
}
