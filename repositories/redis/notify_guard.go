package redis

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
)

// NotifyGuard hands out one dispatch token per reference across every process that
// shares the redis instance.
type NotifyGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewNotifyGuard(client *redis.Client, ttl time.Duration) *NotifyGuard {
	return &NotifyGuard{client: client, prefix: "notified:", ttl: ttl}
}

// Acquire returns true for exactly one caller per reference until the key expires.
func (g *NotifyGuard) Acquire(ctx context.Context, reference string) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+reference, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
}
