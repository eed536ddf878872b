// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package xliff

import (
	"errors"
	"strings"
	"testing"

	"github.com/dwarfdk/willow-bts/internal/model"
)

func sampleUnits() []model.TranslatableUnit {
	return []model.TranslatableUnit{
		{FieldKey: model.PathTitle, FieldName: "Title", FieldType: model.FieldTypeText, Content: "En overskrift"},
		{FieldKey: model.PathBody, FieldName: "Content", FieldType: model.FieldTypeRichText, Content: "Line one\nLine two\r\nLine three"},
		{
			Path:            model.Path{{Key: "gallery"}, {Key: "caption", Row: 2}},
			FieldKey:        "caption",
			FieldName:       "Caption",
			FieldType:       model.FieldTypeText,
			Content:         "Second caption",
			IsSubfield:      true,
			Position:        2,
			FromCustomField: true,
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data, err := Encode(sampleUnits(), "da")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	lang, units, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if lang != "da" {
		t.Errorf("source language = %q, want %q", lang, "da")
	}
	if len(units) != 3 {
		t.Fatalf("len(units) = %d, want 3", len(units))
	}

	// Order is preserved.
	if units[0].FieldKey != model.PathTitle || units[1].FieldKey != model.PathBody {
		t.Errorf("unit order not preserved: %q, %q", units[0].FieldKey, units[1].FieldKey)
	}

	// Line breaks survive the token escaping.
	if units[1].Content != "Line one\nLine two\r\nLine three" {
		t.Errorf("body content = %q", units[1].Content)
	}

	// Attributes round-trip.
	u := units[2]
	if u.Path != "gallery.2.caption" {
		t.Errorf("path = %q, want %q", u.Path, "gallery.2.caption")
	}
	if !u.IsSubfield || !u.FromCustomField {
		t.Errorf("flags = subfield:%v acf:%v, want both true", u.IsSubfield, u.FromCustomField)
	}
	if u.FieldType != model.FieldTypeText {
		t.Errorf("field type = %q", u.FieldType)
	}
}

func TestEncodeEscapesLineBreaks(t *testing.T) {
	data, err := Encode(sampleUnits(), "da")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	doc := string(data)
	if !strings.Contains(doc, "Line one{{LF}}Line two{{CRLF}}Line three") {
		t.Errorf("encoded document does not carry escape tokens:\n%s", doc)
	}
}

func TestDecodeNamespacedDocument(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:1.2" version="1.2">
  <file source-language="da">
    <body>
      <trans-unit field_key="post-title" field_name="Title" field_type="text" path="post-title" is_subfield="false" acf="false">
        <source>Oversat titel</source>
      </trans-unit>
    </body>
  </file>
</xliff>`

	lang, units, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if lang != "da" {
		t.Errorf("source language = %q", lang)
	}
	if len(units) != 1 || units[0].Content != "Oversat titel" {
		t.Fatalf("units = %+v", units)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not xml"},
		{"truncated", "<xliff><file source-language=\"da\">"},
		{"wrong root", "<resources></resources>"},
		{"wrong namespace", `<xliff xmlns="urn:example:other" version="1.2"></xliff>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tc.doc))
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedDocument", tc.name, err)
			}
		})
	}
}

func TestLineBreakIdempotence(t *testing.T) {
	inputs := []string{
		"",
		"no breaks",
		"\n",
		"\r",
		"\r\n",
		"a\nb\rc\r\nd",
		"\r\n\r\n",
		"\n\r", // LF then CR, not a CRLF pair
		"trailing break\n",
	}

	for _, s := range inputs {
		if got := DecodeLineBreaks(EncodeLineBreaks(s)); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}
