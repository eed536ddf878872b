// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dwarfdk/willow-bts/internal/model"
)

// ErrItemNotFound is returned when an item id does not exist in the store.
var ErrItemNotFound = errors.New("item not found")

// ContentStore exposes the content operations the exchange engine needs,
// layered over Queries. Repeater row counts are stored as the value at the
// repeater's own path, so rows are enumerable without a schema per repeater.
type ContentStore struct {
	q *Queries
}

// NewContentStore creates a ContentStore over the given database.
func NewContentStore(db DBTX) *ContentStore {
	return &ContentStore{q: New(db)}
}

// Queries exposes the underlying query layer.
func (s *ContentStore) Queries() *Queries {
	return s.q
}

// LoadItem fetches an item with its language code and resolved field tree.
func (s *ContentStore) LoadItem(ctx context.Context, id int64) (*model.ContentItem, error) {
	item, err := s.q.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("loading item %d: %w", id, err)
	}

	lang, err := s.q.GetLanguageByID(ctx, item.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("loading language %d: %w", item.LanguageID, err)
	}
	item.Language = lang.Code

	defs, err := s.FieldDefinitions(ctx, item.ItemType)
	if err != nil {
		return nil, err
	}

	values, err := s.q.ListFieldValues(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading field values for item %d: %w", id, err)
	}

	item.Fields = buildFieldNodes(defs, nil, values)
	return &item, nil
}

// FieldDefinitions returns the field definition tree for an item type.
func (s *ContentStore) FieldDefinitions(ctx context.Context, itemType string) ([]model.FieldDefinition, error) {
	rows, err := s.q.ListFieldDefs(ctx, itemType)
	if err != nil {
		return nil, fmt.Errorf("loading field definitions for %q: %w", itemType, err)
	}

	children := make(map[int64][]FieldDefRow)
	var roots []FieldDefRow
	for _, row := range rows {
		if row.ParentID.Valid {
			children[row.ParentID.Int64] = append(children[row.ParentID.Int64], row)
		} else {
			roots = append(roots, row)
		}
	}

	var build func(rows []FieldDefRow) []model.FieldDefinition
	build = func(rows []FieldDefRow) []model.FieldDefinition {
		defs := make([]model.FieldDefinition, 0, len(rows))
		for _, row := range rows {
			def := model.FieldDefinition{
				ID:       row.ID,
				ItemType: row.ItemType,
				Key:      row.Key,
				Name:     row.Name,
				Type:     row.Type,
				Position: row.Position,
			}
			if kids, ok := children[row.ID]; ok {
				def.Children = build(kids)
			}
			defs = append(defs, def)
		}
		return defs
	}

	return build(roots), nil
}

// buildFieldNodes resolves a definition tree against the stored values.
// base is the path of the enclosing row ("" for top level).
func buildFieldNodes(defs []model.FieldDefinition, base model.Path, values map[string]string) []model.FieldNode {
	nodes := make([]model.FieldNode, 0, len(defs))
	for _, def := range defs {
		node := model.FieldNode{Def: def}
		path := base.Child(def.Key, 0)

		switch def.Type {
		case model.FieldTypeRepeater:
			// The repeater's own value is its row count; children are
			// addressed as <repeater>.<row>.<child>.
			count, _ := strconv.Atoi(values[path.String()])
			for row := 1; row <= count; row++ {
				node.Rows = append(node.Rows, buildRowNodes(def.Children, path, row, values))
			}
		case model.FieldTypeGroup:
			node.Rows = [][]model.FieldNode{buildFieldNodes(def.Children, path, values)}
		default:
			node.Value = values[path.String()]
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// buildRowNodes resolves one repeater row: each child key carries the row index.
func buildRowNodes(defs []model.FieldDefinition, parent model.Path, row int, values map[string]string) []model.FieldNode {
	nodes := make([]model.FieldNode, 0, len(defs))
	for _, def := range defs {
		node := model.FieldNode{Def: def}
		path := parent.Child(def.Key, row)

		switch def.Type {
		case model.FieldTypeRepeater:
			count, _ := strconv.Atoi(values[path.String()])
			for r := 1; r <= count; r++ {
				node.Rows = append(node.Rows, buildRowNodes(def.Children, path, r, values))
			}
		case model.FieldTypeGroup:
			node.Rows = [][]model.FieldNode{buildFieldNodes(def.Children, path, values)}
		default:
			node.Value = values[path.String()]
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// LanguageStatuses builds the read-model rows for an item's translation
// group: the item's own language first, then every linked sibling copy in
// language display order.
func (s *ContentStore) LanguageStatuses(ctx context.Context, item *model.ContentItem) ([]model.LanguageStatus, error) {
	languages, err := s.q.ListActiveLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}

	statuses := make([]model.LanguageStatus, 0, len(languages))
	for _, lang := range languages {
		var copyItem model.ContentItem
		switch {
		case lang.ID == item.LanguageID:
			copyItem = *item
		default:
			link, err := s.q.GetTranslationLink(ctx, item.ID, lang.ID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("loading link for language %s: %w", lang.Code, err)
			}
			copyItem, err = s.q.GetItemByID(ctx, link.TranslationID)
			if err != nil {
				return nil, fmt.Errorf("loading copy %d: %w", link.TranslationID, err)
			}
		}

		statuses = append(statuses, model.LanguageStatus{
			ID:         copyItem.ID,
			Title:      copyItem.Title,
			Slug:       copyItem.Slug,
			Code:       lang.Code,
			Name:       lang.Name,
			State:      copyItem.State,
			StateLabel: model.StateLabel(copyItem.State),
		})
	}
	return statuses, nil
}

// UpdateContent rewrites an item's title, slug, body, and type.
func (s *ContentStore) UpdateContent(ctx context.Context, id int64, title, slug, body, itemType string) error {
	return s.q.UpdateItemContent(ctx, UpdateItemContentParams{
		Title:     title,
		Slug:      slug,
		Body:      body,
		ItemType:  itemType,
		UpdatedAt: time.Now(),
		ID:        id,
	})
}

// SetInternalComment writes the internal comment metadata slot.
func (s *ContentStore) SetInternalComment(ctx context.Context, id int64, comment string) error {
	return s.q.SetItemInternalComment(ctx, SetItemInternalCommentParams{
		InternalComment: comment,
		UpdatedAt:       time.Now(),
		ID:              id,
	})
}

// SetFieldValue upserts one field value on an item.
func (s *ContentStore) SetFieldValue(ctx context.Context, itemID int64, path, value string) error {
	return s.q.SetFieldValue(ctx, itemID, path, value)
}

// MediaURL resolves a media id to its URL for the given variant ("medium"
// returns the medium-size rendition, anything else the original file URL).
// Empty and non-numeric values resolve to "".
func (s *ContentStore) MediaURL(ctx context.Context, value, variant string) (string, error) {
	if value == "" || value == "0" || value == "false" {
		return "", nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "", nil
	}

	media, err := s.q.GetMediaByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("resolving media %d: %w", id, err)
	}

	if variant == "medium" && media.MediumURL != "" {
		return media.MediumURL, nil
	}
	return media.URL, nil
}

// UniqueSlug returns base if free, otherwise base-2, base-3, ... skipping
// the item with excludeID so an item keeps its own slug on update.
func (s *ContentStore) UniqueSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	if base == "" {
		base = "untitled"
	}

	slug := base
	for i := 2; ; i++ {
		existing, err := s.q.GetItemBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if existing.ID == excludeID {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
