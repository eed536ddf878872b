// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Item types
const (
	ItemTypeArticle = "article"
	ItemTypePage    = "page"
)

// ContentItem is one per-language copy of an editorial item, with its custom
// field tree resolved against the field definitions of its item type.
type ContentItem struct {
	ID              int64        `json:"id"`
	LanguageID      int64        `json:"language_id"`
	Language        string       `json:"language"`
	ItemType        string       `json:"item_type"`
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	Body            string       `json:"body"`
	InternalComment string       `json:"internal_comment,omitempty"`
	State           string       `json:"state"`
	RequestID       string       `json:"request_id,omitempty"`
	Deadline        sql.NullTime `json:"deadline,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Fields []FieldNode `json:"-"`
}

// Media represents an uploaded asset referenced by image and file fields.
type Media struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	MediumURL string    `json:"medium_url"`
	CreatedAt time.Time `json:"created_at"`
}
