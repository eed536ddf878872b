// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package xliff encodes translatable units into the bilingual XLIFF 1.2
// exchange document shipped to the translation vendor, and decodes the
// documents the vendor returns.
package xliff

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"

	"github.com/dwarfdk/willow-bts/internal/model"
)

// Namespace is the XLIFF 1.2 document namespace.
const Namespace = "urn:oasis:names:tc:xliff:document:1.2"

// Version is the XLIFF version written on encode.
const Version = "1.2"

// ErrMalformedDocument is returned when a vendor document is not well-formed
// XML or does not carry the expected root element and namespace.
var ErrMalformedDocument = errors.New("malformed exchange document")

// Unit is one trans-unit as decoded from a vendor document.
type Unit struct {
	FieldKey        string
	FieldName       string
	FieldType       string
	Path            string
	IsSubfield      bool
	FromCustomField bool
	Content         string
}

type document struct {
	XMLName xml.Name `xml:"xliff"`
	Version string   `xml:"version,attr"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	File    file     `xml:"file"`
}

type file struct {
	SourceLanguage string `xml:"source-language,attr"`
	Body           body   `xml:"body"`
}

type body struct {
	Units []transUnit `xml:"trans-unit"`
}

type transUnit struct {
	FieldKey   string `xml:"field_key,attr"`
	FieldName  string `xml:"field_name,attr"`
	FieldType  string `xml:"field_type,attr"`
	Path       string `xml:"path,attr"`
	IsSubfield string `xml:"is_subfield,attr"`
	ACF        string `xml:"acf,attr"`
	Source     string `xml:"source"`
}

// Encode serializes the units into an XLIFF document. Line breaks in unit
// content are replaced with the vendor's escape tokens because the vendor's
// document pipeline mangles literal breaks.
func Encode(units []model.TranslatableUnit, sourceLanguage string) ([]byte, error) {
	doc := document{
		Version: Version,
		Xmlns:   Namespace,
		File: file{
			SourceLanguage: sourceLanguage,
		},
	}

	for _, u := range units {
		doc.File.Body.Units = append(doc.File.Body.Units, transUnit{
			FieldKey:   u.FieldKey,
			FieldName:  u.FieldName,
			FieldType:  u.FieldType,
			Path:       u.PathString(),
			IsSubfield: strconv.FormatBool(u.IsSubfield),
			ACF:        strconv.FormatBool(u.FromCustomField),
			Source:     EncodeLineBreaks(u.Content),
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding exchange document: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Decode parses a vendor document into its source language and ordered
// trans-unit records, undoing the line-break escaping on every unit.
// It tolerates documents with or without the default XLIFF namespace but
// rejects documents claiming a different namespace.
func Decode(data []byte) (string, []Unit, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	if doc.XMLName.Local != "xliff" {
		return "", nil, fmt.Errorf("%w: unexpected root element %q", ErrMalformedDocument, doc.XMLName.Local)
	}
	if doc.XMLName.Space != "" && doc.XMLName.Space != Namespace {
		return "", nil, fmt.Errorf("%w: unexpected namespace %q", ErrMalformedDocument, doc.XMLName.Space)
	}

	units := make([]Unit, 0, len(doc.File.Body.Units))
	for _, tu := range doc.File.Body.Units {
		units = append(units, Unit{
			FieldKey:        tu.FieldKey,
			FieldName:       tu.FieldName,
			FieldType:       tu.FieldType,
			Path:            tu.Path,
			IsSubfield:      tu.IsSubfield == "true",
			FromCustomField: tu.ACF == "true",
			Content:         DecodeLineBreaks(tu.Source),
		})
	}

	return doc.File.SourceLanguage, units, nil
}
