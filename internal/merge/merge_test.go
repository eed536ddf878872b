// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/xliff"
)

// fakeStore records writes and can fail on demand.
type fakeStore struct {
	fields    map[string]string
	comment   string
	title     string
	slug      string
	body      string
	itemType  string
	failField string // path that fails on write
	failAll   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{fields: make(map[string]string)}
}

func (s *fakeStore) UpdateContent(_ context.Context, _ int64, title, slug, body, itemType string) error {
	if s.failAll {
		return errors.New("store down")
	}
	s.title, s.slug, s.body, s.itemType = title, slug, body, itemType
	return nil
}

func (s *fakeStore) SetInternalComment(_ context.Context, _ int64, comment string) error {
	s.comment = comment
	return nil
}

func (s *fakeStore) SetFieldValue(_ context.Context, _ int64, path, value string) error {
	if s.failAll || path == s.failField {
		return errors.New("store down")
	}
	s.fields[path] = value
	return nil
}

func (s *fakeStore) UniqueSlug(_ context.Context, base string, _ int64) (string, error) {
	return base, nil
}

func baseItems() (*model.ContentItem, *model.ContentItem) {
	source := &model.ContentItem{ID: 1, Language: "da", ItemType: model.ItemTypeArticle}
	target := &model.ContentItem{ID: 2, Language: "sv", Title: "Gammal titel", Body: "<p>old</p>"}
	return source, target
}

func TestApplyTitleBodyAndFields(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: model.PathTitle, FieldType: model.FieldTypeText, Content: "Ny titel"},
		{FieldKey: model.PathBody, FieldType: model.FieldTypeRichText, Content: "<p>En rad\nEn till</p>"},
		{FieldKey: "teaser", FieldType: model.FieldTypeText, Path: "teaser", Content: "Kort text", FromCustomField: true},
		{FieldKey: "caption", FieldType: model.FieldTypeText, Path: "gallery.2.caption", IsSubfield: true, Content: "Bildtext", FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))

	assert.Equal(t, "Ny titel", store.title)
	assert.Equal(t, "ny-titel", store.slug, "slug regenerated from translated title")
	assert.Contains(t, store.body, "En rad\nEn till")
	assert.Equal(t, model.ItemTypeArticle, store.itemType, "item type follows the source")
	assert.Equal(t, "Kort text", store.fields["teaser"])
	assert.Equal(t, "Bildtext", store.fields["gallery.2.caption"])
	assert.Equal(t, "2", store.fields["gallery"], "repeater row count follows the highest row written")
}

// Subfield units rebuild their repeater's row-count value, including rows
// whose own content is protected and never written.
func TestApplyRebuildsRepeaterRowCounts(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: "caption", FieldType: model.FieldTypeText, Path: "gallery.1.caption", IsSubfield: true, Content: "Första", FromCustomField: true},
		{FieldKey: "caption", FieldType: model.FieldTypeText, Path: "gallery.2.caption", IsSubfield: true, Content: "Andra", FromCustomField: true},
		{FieldKey: "photo", FieldType: model.FieldTypeImage, Path: "gallery.3.photo", IsSubfield: true, Content: "https://cdn.example/c.jpg", FromCustomField: true},
		{FieldKey: "label", FieldType: model.FieldTypeText, Path: "blocks.2.items.4.label", IsSubfield: true, Content: "Djup", FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))

	assert.Equal(t, "3", store.fields["gallery"], "protected row 3 still counts")
	assert.Equal(t, "2", store.fields["blocks"])
	assert.Equal(t, "4", store.fields["blocks.2.items"], "nested repeater counted under its row path")
	assert.NotContains(t, store.fields, "gallery.3.photo", "protected content itself is not written")
}

func TestApplySkipsProtectedTypes(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: model.PathTitle, FieldType: model.FieldTypeText, Content: "T"},
		{FieldKey: "hero", FieldType: model.FieldTypeImage, Path: "hero", Content: "https://evil.example/x.jpg", FromCustomField: true},
		{FieldKey: "download", FieldType: model.FieldTypeFile, Path: "download", Content: "https://evil.example/x.pdf", FromCustomField: true},
		{FieldKey: "link", FieldType: model.FieldTypeURL, Path: "link", Content: "https://evil.example", FromCustomField: true},
		{FieldKey: "section", FieldType: model.FieldTypeTaxonomy, Path: "section", Content: "News", FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))
	assert.Empty(t, store.fields, "protected field types must never be overwritten")
}

func TestApplyInternalComment(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: "internal_comment", FieldType: model.FieldTypeText, Path: "internal_comment", Content: "til redaktionen", FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))
	assert.Equal(t, "til redaktionen", store.comment)
	assert.Empty(t, store.fields, "internal comment bypasses the custom-field system")
}

func TestApplySanitizesRichText(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: model.PathBody, FieldType: model.FieldTypeRichText, Content: `<p>ok</p><script>alert(1)</script>`},
		{FieldKey: "box", FieldType: model.FieldTypeRichText, Path: "box", Content: `<b>fin</b><script>x()</script>`, FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))
	assert.NotContains(t, store.body, "<script>")
	assert.Contains(t, store.body, "<p>ok</p>")
	assert.NotContains(t, store.fields["box"], "<script>")
	assert.Contains(t, store.fields["box"], "<b>fin</b>")
}

func TestApplyFieldWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.failField = "teaser"
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: "teaser", FieldType: model.FieldTypeText, Path: "teaser", Content: "x", FromCustomField: true},
	}

	err := engine.Apply(context.Background(), source, target, units)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldWrite)
	assert.Empty(t, store.title, "content write must not happen after a field failure")
}

func TestApplyUnresolvablePathSkipped(t *testing.T) {
	store := newFakeStore()
	engine := New(store, nil)
	source, target := baseItems()

	units := []xliff.Unit{
		{FieldKey: "caption", FieldType: model.FieldTypeText, Path: "gallery..caption", IsSubfield: true, Content: "x", FromCustomField: true},
		{FieldKey: "teaser", FieldType: model.FieldTypeText, Path: "teaser", Content: "ok", FromCustomField: true},
	}

	require.NoError(t, engine.Apply(context.Background(), source, target, units))
	assert.Equal(t, map[string]string{"teaser": "ok"}, store.fields)
}
