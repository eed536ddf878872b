// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package merge applies a decoded vendor document back onto the target
// language's copy of a content item.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/util"
	"github.com/dwarfdk/willow-bts/internal/xliff"
)

// ErrFieldWrite is returned when the store rejects a field or title write.
// The affected language's merge is abandoned; sibling languages continue.
var ErrFieldWrite = errors.New("field write failed")

// internalCommentKey is the field key applied to the item's fixed metadata
// slot, bypassing the custom-field system.
const internalCommentKey = "internal_comment"

// skippedTypes are field types never overwritten from a translation, even
// when the vendor echoes them back.
var skippedTypes = map[string]bool{
	model.FieldTypeImage:    true,
	model.FieldTypeURL:      true,
	model.FieldTypeFile:     true,
	model.FieldTypeTaxonomy: true,
}

// Store is the slice of the content store the engine writes through.
type Store interface {
	UpdateContent(ctx context.Context, id int64, title, slug, body, itemType string) error
	SetInternalComment(ctx context.Context, id int64, comment string) error
	SetFieldValue(ctx context.Context, itemID int64, path, value string) error
	UniqueSlug(ctx context.Context, base string, excludeID int64) (string, error)
}

// Engine merges decoded trans-units into content items.
type Engine struct {
	store    Store
	sanitize *bluemonday.Policy
	logger   *slog.Logger
}

// New creates a merge engine writing through the given store.
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store: store,
		// Vendor-returned rich text is untrusted input.
		sanitize: bluemonday.UGCPolicy(),
		logger:   logger,
	}
}

// Apply routes every unit to its field on the target item, then rewrites
// the item's title, slug, body, and type in one final write. The slug is
// regenerated from the translated title; the item type follows the source.
func (e *Engine) Apply(ctx context.Context, source, target *model.ContentItem, units []xliff.Unit) error {
	title := target.Title
	body := target.Body
	rowCounts := map[string]int{}

	for _, u := range units {
		switch {
		case u.FieldKey == model.PathTitle:
			title = u.Content
			continue
		case u.FieldKey == model.PathBody:
			body = e.sanitize.Sanitize(u.Content)
			continue
		case u.FieldKey == internalCommentKey:
			if err := e.store.SetInternalComment(ctx, target.ID, u.Content); err != nil {
				return fmt.Errorf("%w: internal comment on item %d: %v", ErrFieldWrite, target.ID, err)
			}
			continue
		}

		path := u.Path
		if path == "" {
			path = u.FieldKey
		}

		if u.IsSubfield {
			parsed, err := model.ParsePath(path)
			if err != nil {
				e.logger.Warn("skipping unit with unresolvable path",
					"path", path, "field_key", u.FieldKey, "item_id", target.ID)
				continue
			}
			path = parsed.String()
			noteRows(rowCounts, parsed)
		}

		// Protected types are never overwritten, but their row index above
		// still counts toward the enclosing repeater's row total.
		if skippedTypes[u.FieldType] {
			continue
		}

		content := u.Content
		if u.FieldType == model.FieldTypeRichText {
			content = e.sanitize.Sanitize(content)
		}

		if err := e.store.SetFieldValue(ctx, target.ID, path, content); err != nil {
			return fmt.Errorf("%w: field %q on item %d: %v", ErrFieldWrite, path, target.ID, err)
		}
	}

	// A copy created on first delivery has no structural values, so each
	// repeater's row count is rebuilt from the row indexes the document
	// addressed. Without it the resolved field tree enumerates zero rows.
	for container, rows := range rowCounts {
		if err := e.store.SetFieldValue(ctx, target.ID, container, strconv.Itoa(rows)); err != nil {
			return fmt.Errorf("%w: rows of %q on item %d: %v", ErrFieldWrite, container, target.ID, err)
		}
	}

	slug, err := e.store.UniqueSlug(ctx, util.Slugify(title), target.ID)
	if err != nil {
		return fmt.Errorf("%w: slug for item %d: %v", ErrFieldWrite, target.ID, err)
	}

	if err := e.store.UpdateContent(ctx, target.ID, title, slug, body, source.ItemType); err != nil {
		return fmt.Errorf("%w: content of item %d: %v", ErrFieldWrite, target.ID, err)
	}

	return nil
}

// noteRows records the highest row index a path addresses for each enclosing
// repeater, keyed by the repeater's own path.
func noteRows(counts map[string]int, p model.Path) {
	for i, step := range p {
		if step.Row == 0 {
			continue
		}
		container := p[:i].String()
		if step.Row > counts[container] {
			counts[container] = step.Row
		}
	}
}
