// Package store opens the Postgres and Redis connections attendview reads
// from and caches in.
package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the shared client used by the report cache, job queue and QR
// token store.
type Redis struct {
	Client *redis.Client
}

// NewRedis creates a client with short timeouts. Blocking queue reads get
// their own deadline from go-redis.
func NewRedis(addr string) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})}
}

// Healthy pings redis, giving up after a second.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
