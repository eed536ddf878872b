// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic deadline sweep over items that are
// still out for translation.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/store"
)

// Scheduler handles scheduled tasks like the overdue-translation sweep.
type Scheduler struct {
	db     *sql.DB
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins the scheduler with a job that checks for overdue translations
// every minute.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.SweepOverdue(context.Background()); err != nil {
			s.logger.Error("failed to sweep overdue translations", "error", err,
				"category", model.EventCategoryScheduler)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// SweepOverdue finds items still sent-to-translation past their vendor
// deadline and records one event per item. The sweep never changes item
// state; only a returned translation does that.
func (s *Scheduler) SweepOverdue(ctx context.Context) error {
	queries := store.New(s.db)

	now := time.Now()
	items, err := queries.ListOverdueItems(ctx, now)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}

	s.logger.Warn("translations overdue", "count", len(items),
		"category", model.EventCategoryScheduler)

	for _, item := range items {
		metadata := map[string]any{
			"item_id":    item.ID,
			"title":      item.Title,
			"request_id": item.RequestID,
			"deadline":   item.Deadline.Time.Format(time.RFC3339),
		}
		metadataJSON, _ := json.Marshal(metadata)

		_, err := queries.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategoryScheduler,
			Message:   "Translation overdue: " + item.Title,
			Metadata:  string(metadataJSON),
			CreatedAt: now,
		})
		if err != nil {
			s.logger.Warn("failed to log overdue translation event", "error", err,
				"item_id", item.ID, "category", model.EventCategoryScheduler)
		}
	}

	return nil
}
