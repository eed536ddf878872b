// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper is a Redis-backed Deduper for multi-node deployments.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the Redis deduper.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys (e.g., "bts:")
	Prefix string

	// TTL is how long a message id stays marked as seen.
	TTL time.Duration
}

// NewRedisDeduper creates a Redis deduper and verifies the connection.
func NewRedisDeduper(opts RedisOptions) (*RedisDeduper, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisDeduper{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
	}, nil
}

// Seen implements Deduper using SET NX so concurrent deliveries of the same
// message race for a single claim.
func (d *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	claimed, err := d.client.SetNX(ctx, d.prefix+"seen:"+id, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Close releases the Redis connection.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
