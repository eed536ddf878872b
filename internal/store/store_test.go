// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/store"
	"github.com/dwarfdk/willow-bts/internal/testutil"
)

// seedItem creates a Danish article with a teaser field, an image field,
// and a two-row gallery repeater.
func seedItem(t *testing.T, cs *store.ContentStore) *model.ContentItem {
	t.Helper()
	ctx := context.Background()
	q := cs.Queries()

	da, err := q.GetLanguageByCode(ctx, "da")
	require.NoError(t, err)

	now := time.Now()
	item, err := q.CreateItem(ctx, store.CreateItemParams{
		LanguageID: da.ID,
		ItemType:   model.ItemTypeArticle,
		Title:      "Grøn æblegrød",
		Slug:       "gron-aeblegrod",
		Body:       "Brødtekst",
		State:      model.StateReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	_, err = q.CreateFieldDef(ctx, store.CreateFieldDefParams{
		ItemType: model.ItemTypeArticle, Key: "teaser", Name: "Teaser", Type: model.FieldTypeText, Position: 1,
	})
	require.NoError(t, err)
	_, err = q.CreateFieldDef(ctx, store.CreateFieldDefParams{
		ItemType: model.ItemTypeArticle, Key: "hero", Name: "Hero image", Type: model.FieldTypeImage, Position: 2,
	})
	require.NoError(t, err)
	galleryID, err := q.CreateFieldDef(ctx, store.CreateFieldDefParams{
		ItemType: model.ItemTypeArticle, Key: "gallery", Name: "Gallery", Type: model.FieldTypeRepeater, Position: 3,
	})
	require.NoError(t, err)
	_, err = q.CreateFieldDef(ctx, store.CreateFieldDefParams{
		ItemType: model.ItemTypeArticle, ParentID: sql.NullInt64{Int64: galleryID, Valid: true},
		Key: "caption", Name: "Caption", Type: model.FieldTypeText, Position: 1,
	})
	require.NoError(t, err)

	mediaID, err := q.CreateMedia(ctx, store.CreateMediaParams{
		Filename:  "hero.jpg",
		URL:       "https://cdn.example.com/hero.jpg",
		MediumURL: "https://cdn.example.com/hero-medium.jpg",
		CreatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, q.SetFieldValue(ctx, item.ID, "teaser", "En kort tekst"))
	require.NoError(t, q.SetFieldValue(ctx, item.ID, "hero", "1"))
	require.NoError(t, q.SetFieldValue(ctx, item.ID, "gallery", "2"))
	require.NoError(t, q.SetFieldValue(ctx, item.ID, "gallery.1.caption", "Første billede"))
	require.NoError(t, q.SetFieldValue(ctx, item.ID, "gallery.2.caption", "Andet billede"))
	_ = mediaID

	loaded, err := cs.LoadItem(ctx, item.ID)
	require.NoError(t, err)
	return loaded
}

func TestLoadItemFieldTree(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)

	item := seedItem(t, cs)

	assert.Equal(t, "da", item.Language)
	require.Len(t, item.Fields, 3)

	assert.Equal(t, "teaser", item.Fields[0].Def.Key)
	assert.Equal(t, "En kort tekst", item.Fields[0].Value)

	gallery := item.Fields[2]
	assert.Equal(t, model.FieldTypeRepeater, gallery.Def.Type)
	require.Len(t, gallery.Rows, 2)
	assert.Equal(t, "Første billede", gallery.Rows[0][0].Value)
	assert.Equal(t, "Andet billede", gallery.Rows[1][0].Value)
}

func TestLoadItemNotFound(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)

	_, err := cs.LoadItem(context.Background(), 9999)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestMediaURL(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)
	seedItem(t, cs)
	ctx := context.Background()

	url, err := cs.MediaURL(ctx, "1", "medium")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hero-medium.jpg", url)

	url, err = cs.MediaURL(ctx, "1", "file")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hero.jpg", url)

	for _, empty := range []string{"", "0", "false", "not-a-number", "4242"} {
		url, err = cs.MediaURL(ctx, empty, "medium")
		require.NoError(t, err)
		assert.Empty(t, url, "value %q should resolve empty", empty)
	}
}

func TestUniqueSlug(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)
	item := seedItem(t, cs)
	ctx := context.Background()

	slug, err := cs.UniqueSlug(ctx, "gron-aeblegrod", 0)
	require.NoError(t, err)
	assert.Equal(t, "gron-aeblegrod-2", slug, "taken slug gets a numeric suffix")

	slug, err = cs.UniqueSlug(ctx, "gron-aeblegrod", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "gron-aeblegrod", slug, "item keeps its own slug")

	slug, err = cs.UniqueSlug(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "untitled", slug)
}

func TestTranslationLinks(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)
	item := seedItem(t, cs)
	ctx := context.Background()
	q := cs.Queries()

	sv, err := q.GetLanguageByCode(ctx, "sv")
	require.NoError(t, err)

	now := time.Now()
	copyItem, err := q.CreateItem(ctx, store.CreateItemParams{
		LanguageID: sv.ID, ItemType: model.ItemTypeArticle,
		Title: "Grön äppelmos", Slug: "gron-appelmos", State: model.StateReady,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, q.UpsertTranslationLink(ctx, store.UpsertTranslationLinkParams{
		ItemID: item.ID, LanguageID: sv.ID, TranslationID: copyItem.ID, CreatedAt: now,
	}))

	link, err := q.GetTranslationLink(ctx, item.ID, sv.ID)
	require.NoError(t, err)
	assert.Equal(t, copyItem.ID, link.TranslationID)

	// Upsert replaces rather than duplicates.
	other, err := q.CreateItem(ctx, store.CreateItemParams{
		LanguageID: sv.ID, ItemType: model.ItemTypeArticle,
		Title: "Annan", Slug: "annan", State: model.StateReady, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, q.UpsertTranslationLink(ctx, store.UpsertTranslationLinkParams{
		ItemID: item.ID, LanguageID: sv.ID, TranslationID: other.ID, CreatedAt: now,
	}))

	links, err := q.ListTranslationLinks(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, other.ID, links[0].TranslationID)
}

func TestListOverdueItems(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	cs := store.NewContentStore(db)
	item := seedItem(t, cs)
	ctx := context.Background()
	q := cs.Queries()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, q.SetItemState(ctx, store.SetItemStateParams{
		State:     model.StateSent,
		RequestID: "req-1",
		Deadline:  sql.NullTime{Time: past, Valid: true},
		UpdatedAt: time.Now(),
		ID:        item.ID,
	}))

	overdue, err := q.ListOverdueItems(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, item.ID, overdue[0].ID)

	// Translated items are never overdue.
	require.NoError(t, q.SetItemState(ctx, store.SetItemStateParams{
		State: model.StateTranslated, UpdatedAt: time.Now(), ID: item.ID,
	}))
	overdue, err = q.ListOverdueItems(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

// Writes issued through a transaction-bound Queries vanish on rollback.
func TestWithTxRollback(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	q := store.New(db)

	da, err := q.GetLanguageByCode(ctx, "da")
	require.NoError(t, err)

	tx, err := db.Begin()
	require.NoError(t, err)

	now := time.Now()
	item, err := q.WithTx(tx).CreateItem(ctx, store.CreateItemParams{
		LanguageID: da.ID,
		ItemType:   model.ItemTypeArticle,
		Title:      "Flygtig kladde",
		Slug:       "flygtig-kladde",
		State:      model.StateReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = q.GetItemByID(ctx, item.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
