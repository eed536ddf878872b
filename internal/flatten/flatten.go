// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package flatten walks a content item's field tree into the ordered list
// of translatable units shipped to the vendor.
package flatten

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dwarfdk/willow-bts/internal/model"
)

// excludedTypes are field types never sent for translation.
var excludedTypes = map[string]bool{
	model.FieldTypeSelect:   true,
	model.FieldTypeBoolean:  true,
	model.FieldTypeRadio:    true,
	model.FieldTypeCheckbox: true,
	model.FieldTypeUser:     true,
	model.FieldTypeEmbed:    true,
	model.FieldTypeCode:     true,
}

// excludedKeys are field keys never sent for translation regardless of type.
var excludedKeys = map[string]bool{
	"embed_url":            true,
	"code":                 true,
	"translation_deadline": true,
	"canonical_url":        true,
	"internal_comment":     true,
}

// MediaResolver resolves an image or file field value to a URL.
// The "medium" variant returns the medium-size image rendition.
type MediaResolver interface {
	MediaURL(ctx context.Context, value, variant string) (string, error)
}

// Flattener turns content items into translatable-unit lists.
type Flattener struct {
	media MediaResolver
}

// New creates a Flattener using the given media resolver.
func New(media MediaResolver) *Flattener {
	return &Flattener{media: media}
}

// Flatten returns the item's translatable units in deterministic order:
// the synthetic title and body units first, then every non-excluded custom
// field in declaration order, repeater rows in row order.
func (f *Flattener) Flatten(ctx context.Context, item *model.ContentItem) ([]model.TranslatableUnit, error) {
	units := []model.TranslatableUnit{
		{
			FieldKey:  model.PathTitle,
			FieldName: "Title",
			FieldType: model.FieldTypeText,
			Content:   item.Title,
		},
		{
			FieldKey:  model.PathBody,
			FieldName: "Content",
			FieldType: model.FieldTypeRichText,
			Content:   item.Body,
		},
	}

	fieldUnits, err := f.walk(ctx, item.Fields, nil, 0)
	if err != nil {
		return nil, err
	}
	return append(units, fieldUnits...), nil
}

// walk recurses the field node tree. base is the enclosing path and row the
// enclosing repeater row index (0 at top level).
func (f *Flattener) walk(ctx context.Context, nodes []model.FieldNode, base model.Path, row int) ([]model.TranslatableUnit, error) {
	var units []model.TranslatableUnit
	for _, node := range nodes {
		def := node.Def
		if excludedTypes[def.Type] || excludedKeys[def.Key] {
			continue
		}

		path := base.Child(def.Key, row)

		switch def.Type {
		case model.FieldTypeRepeater:
			for i, rowNodes := range node.Rows {
				rowUnits, err := f.walk(ctx, rowNodes, path, i+1)
				if err != nil {
					return nil, err
				}
				units = append(units, rowUnits...)
			}
		case model.FieldTypeGroup:
			for _, groupNodes := range node.Rows {
				groupUnits, err := f.walk(ctx, groupNodes, path, 0)
				if err != nil {
					return nil, err
				}
				units = append(units, groupUnits...)
			}
		default:
			content, ok, err := f.resolveContent(ctx, def, node.Value)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			units = append(units, model.TranslatableUnit{
				Path:            path,
				FieldKey:        def.Key,
				FieldName:       def.Name,
				FieldType:       def.Type,
				Content:         content,
				IsSubfield:      path.IsNested(),
				Position:        row,
				FromCustomField: true,
			})
		}
	}
	return units, nil
}

// resolveContent produces the unit content for a leaf field. The second
// return value is false when the field must be dropped.
func (f *Flattener) resolveContent(ctx context.Context, def model.FieldDefinition, value string) (string, bool, error) {
	switch def.Type {
	case model.FieldTypeImage:
		url, err := f.media.MediaURL(ctx, value, "medium")
		return url, err == nil, err
	case model.FieldTypeFile:
		url, err := f.media.MediaURL(ctx, value, "file")
		return url, err == nil, err
	}

	// Only opaque text content may be transmitted; structured values
	// (serialized arrays/objects) are dropped.
	if !isTextShaped(value) {
		return "", false, nil
	}
	return value, true, nil
}

// isTextShaped reports whether a stored value is plain text rather than a
// serialized array or object.
func isTextShaped(value string) bool {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		return true
	}
	var structured any
	if err := json.Unmarshal([]byte(trimmed), &structured); err != nil {
		return true
	}
	switch structured.(type) {
	case []any, map[string]any:
		return false
	}
	return true
}
