// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// TranslatableUnit is one addressable piece of content subject to
// translation: the title, the body, or a single field/subfield value.
type TranslatableUnit struct {
	// Path uniquely addresses the leaf field instance. Empty for the two
	// synthetic title/body units, whose FieldKey carries the fixed path.
	Path Path

	FieldKey   string
	FieldName  string
	FieldType  string
	Content    string
	IsSubfield bool

	// Position is the 1-based repeater row index the unit came from, or 0
	// for top-level fields and the synthetic units.
	Position int

	// FromCustomField is false only for the synthetic title/body units.
	FromCustomField bool
}

// PathString returns the serialized path written into the exchange document.
func (u TranslatableUnit) PathString() string {
	if !u.FromCustomField {
		return u.FieldKey
	}
	return u.Path.String()
}
