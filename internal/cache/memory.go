// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryDeduper is a thread-safe in-memory Deduper with TTL support.
type MemoryDeduper struct {
	data    sync.Map
	ttl     time.Duration
	stopCh  chan struct{}
	stopped atomic.Bool
}

// NewMemoryDeduper creates a memory deduper whose entries expire after ttl.
// A background sweep removes expired entries every ttl/4 (minimum 1 minute).
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	d := &MemoryDeduper{
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	go d.sweep(interval)

	return d
}

// Seen implements Deduper.
func (d *MemoryDeduper) Seen(_ context.Context, id string) (bool, error) {
	now := time.Now()
	if v, loaded := d.data.LoadOrStore(id, now.Add(d.ttl)); loaded {
		expiresAt := v.(time.Time)
		if now.Before(expiresAt) {
			return true, nil
		}
		// Expired entry: claim the slot again.
		d.data.Store(id, now.Add(d.ttl))
	}
	return false, nil
}

// Close stops the background sweep.
func (d *MemoryDeduper) Close() error {
	if d.stopped.CompareAndSwap(false, true) {
		close(d.stopCh)
	}
	return nil
}

func (d *MemoryDeduper) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			d.data.Range(func(key, value any) bool {
				if now.After(value.(time.Time)) {
					d.data.Delete(key)
				}
				return true
			})
		case <-d.stopCh:
			return
		}
	}
}
