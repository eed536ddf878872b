// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Field types as stored in the field definition table.
const (
	FieldTypeText     = "text"
	FieldTypeRichText = "richtext"
	FieldTypeImage    = "image"
	FieldTypeFile     = "file"
	FieldTypeURL      = "url"
	FieldTypeSelect   = "select"
	FieldTypeBoolean  = "boolean"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
	FieldTypeUser     = "user"
	FieldTypeEmbed    = "embed"
	FieldTypeCode     = "code"
	FieldTypeRepeater = "repeater"
	FieldTypeGroup    = "group"
	FieldTypeTaxonomy = "taxonomy"
)

// FieldDefinition describes one custom field attached to an item type.
// Repeater and group definitions own an ordered list of child definitions.
type FieldDefinition struct {
	ID       int64             `json:"id"`
	ItemType string            `json:"item_type"`
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Position int               `json:"position"`
	Children []FieldDefinition `json:"children,omitempty"`
}

// FieldNode is one field instance on a concrete content item: the definition
// plus its stored value, or its resolved rows for repeaters and groups.
type FieldNode struct {
	Def   FieldDefinition
	Value string
	// Rows holds the child instances for each repeater row, in row order.
	// For group fields there is exactly one row.
	Rows [][]FieldNode
}
