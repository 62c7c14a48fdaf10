// Package redis wraps the shared go-redis client.
package redis

import (
	"context"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// DB is a wrapper for go-redis
type DB struct {
	db *redis.Client
}

// NewDB creates a new DB instance and checks the connection
func NewDB(ctx context.Context, opt *redis.Options) (*DB, error) {
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "ping redis %s", opt.Addr)
	}

	return &DB{db: rdb}, nil
}

// Client returns the underlying client
func (d *DB) Client() *redis.Client {
	return d.db
}

// Close closes the connection pool
func (d *DB) Close() error {
	return d.db.Close()
}
