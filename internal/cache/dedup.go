// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the seen-message store used to drop redelivered
// vendor notifications. A memory store serves single-node deployments; a
// Redis store serves deployments behind a load balancer.
package cache

import "context"

// Deduper remembers message ids for a bounded time. Best effort: a dropped
// entry only means a redelivered notification is reprocessed, which is safe
// because merges are last-write-wins.
type Deduper interface {
	// Seen marks id as processed and reports whether it had already been
	// marked within the TTL window.
	Seen(ctx context.Context, id string) (bool, error)

	// Close releases the store's resources.
	Close() error
}
