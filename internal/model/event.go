// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event log levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event log categories
const (
	EventCategoryInbound   = "inbound"
	EventCategoryOutbound  = "outbound"
	EventCategoryMerge     = "merge"
	EventCategoryScheduler = "scheduler"
	EventCategorySystem    = "system"
)

// Event is one entry of the audit event log.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
