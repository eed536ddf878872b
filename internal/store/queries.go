// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/dwarfdk/willow-bts/internal/model"
)

// DBTX is the subset of *sql.DB / *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries provides typed access to the content store tables.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const itemColumns = `id, language_id, item_type, title, slug, body, internal_comment, state, request_id, deadline, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (model.ContentItem, error) {
	var it model.ContentItem
	err := row.Scan(&it.ID, &it.LanguageID, &it.ItemType, &it.Title, &it.Slug, &it.Body,
		&it.InternalComment, &it.State, &it.RequestID, &it.Deadline, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// GetItemByID fetches one item row by id.
func (q *Queries) GetItemByID(ctx context.Context, id int64) (model.ContentItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	return scanItem(row)
}

// GetItemBySlug fetches one item row by slug.
func (q *Queries) GetItemBySlug(ctx context.Context, slug string) (model.ContentItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE slug = ?`, slug)
	return scanItem(row)
}

// CreateItemParams holds the columns for a new item row.
type CreateItemParams struct {
	LanguageID int64
	ItemType   string
	Title      string
	Slug       string
	Body       string
	State      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateItem inserts a new item and returns it with its assigned id.
func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (model.ContentItem, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO items (language_id, item_type, title, slug, body, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.LanguageID, arg.ItemType, arg.Title, arg.Slug, arg.Body, arg.State, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.ContentItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ContentItem{}, err
	}
	return q.GetItemByID(ctx, id)
}

// UpdateItemContentParams holds the columns rewritten after a merge.
type UpdateItemContentParams struct {
	Title     string
	Slug      string
	Body      string
	ItemType  string
	UpdatedAt time.Time
	ID        int64
}

// UpdateItemContent rewrites an item's title, slug, body, and type.
func (q *Queries) UpdateItemContent(ctx context.Context, arg UpdateItemContentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE items SET title = ?, slug = ?, body = ?, item_type = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Slug, arg.Body, arg.ItemType, arg.UpdatedAt, arg.ID)
	return err
}

// SetItemInternalCommentParams holds the metadata-slot write.
type SetItemInternalCommentParams struct {
	InternalComment string
	UpdatedAt       time.Time
	ID              int64
}

// SetItemInternalComment writes the internal comment metadata slot.
func (q *Queries) SetItemInternalComment(ctx context.Context, arg SetItemInternalCommentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE items SET internal_comment = ?, updated_at = ? WHERE id = ?`,
		arg.InternalComment, arg.UpdatedAt, arg.ID)
	return err
}

// SetItemStateParams holds a translation-state transition.
type SetItemStateParams struct {
	State     string
	RequestID string
	Deadline  sql.NullTime
	UpdatedAt time.Time
	ID        int64
}

// SetItemState advances an item's translation state, recording the request
// id and vendor deadline when the state is sent-to-translation.
func (q *Queries) SetItemState(ctx context.Context, arg SetItemStateParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE items SET state = ?, request_id = ?, deadline = ?, updated_at = ? WHERE id = ?`,
		arg.State, arg.RequestID, arg.Deadline, arg.UpdatedAt, arg.ID)
	return err
}

// ListOverdueItems returns items still sent-to-translation past their deadline.
func (q *Queries) ListOverdueItems(ctx context.Context, now time.Time) ([]model.ContentItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE state = ? AND deadline IS NOT NULL AND deadline < ?
		 ORDER BY deadline`, model.StateSent, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.ContentItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetLanguageByID fetches one language by id.
func (q *Queries) GetLanguageByID(ctx context.Context, id int64) (model.Language, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, code, name, is_default, is_active, position, created_at, updated_at
		 FROM languages WHERE id = ?`, id)
	return scanLanguage(row)
}

// GetLanguageByCode fetches one language by its ISO code.
func (q *Queries) GetLanguageByCode(ctx context.Context, code string) (model.Language, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, code, name, is_default, is_active, position, created_at, updated_at
		 FROM languages WHERE code = ?`, code)
	return scanLanguage(row)
}

// ListActiveLanguages returns all active languages in display order.
func (q *Queries) ListActiveLanguages(ctx context.Context) ([]model.Language, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, code, name, is_default, is_active, position, created_at, updated_at
		 FROM languages WHERE is_active = 1 ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var langs []model.Language
	for rows.Next() {
		l, err := scanLanguage(rows)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

func scanLanguage(row interface{ Scan(...any) error }) (model.Language, error) {
	var l model.Language
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.IsDefault, &l.IsActive, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// ListFieldDefs returns every field definition for an item type, parents
// and children alike, ordered for tree assembly.
func (q *Queries) ListFieldDefs(ctx context.Context, itemType string) ([]FieldDefRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, item_type, parent_id, field_key, name, field_type, position
		 FROM field_defs WHERE item_type = ? ORDER BY IFNULL(parent_id, 0), position`, itemType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var defs []FieldDefRow
	for rows.Next() {
		var d FieldDefRow
		if err := rows.Scan(&d.ID, &d.ItemType, &d.ParentID, &d.Key, &d.Name, &d.Type, &d.Position); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// FieldDefRow is a field definition row before tree assembly.
type FieldDefRow struct {
	ID       int64
	ItemType string
	ParentID sql.NullInt64
	Key      string
	Name     string
	Type     string
	Position int
}

// CreateFieldDefParams holds the columns for a new field definition.
type CreateFieldDefParams struct {
	ItemType string
	ParentID sql.NullInt64
	Key      string
	Name     string
	Type     string
	Position int
}

// CreateFieldDef inserts a field definition and returns its id.
func (q *Queries) CreateFieldDef(ctx context.Context, arg CreateFieldDefParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO field_defs (item_type, parent_id, field_key, name, field_type, position)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ItemType, arg.ParentID, arg.Key, arg.Name, arg.Type, arg.Position)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetFieldValue reads one field value by path. Missing values read as "".
func (q *Queries) GetFieldValue(ctx context.Context, itemID int64, path string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx,
		`SELECT value FROM field_values WHERE item_id = ? AND path = ?`, itemID, path).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetFieldValue upserts one field value by path.
func (q *Queries) SetFieldValue(ctx context.Context, itemID int64, path, value string) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO field_values (item_id, path, value) VALUES (?, ?, ?)
		 ON CONFLICT(item_id, path) DO UPDATE SET value = excluded.value`,
		itemID, path, value)
	return err
}

// ListFieldValues returns every stored field value of an item keyed by path.
func (q *Queries) ListFieldValues(ctx context.Context, itemID int64) (map[string]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT path, value FROM field_values WHERE item_id = ?`, itemID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var path, value string
		if err := rows.Scan(&path, &value); err != nil {
			return nil, err
		}
		values[path] = value
	}
	return values, rows.Err()
}

// GetTranslationLink fetches the link for one language of an item's group.
func (q *Queries) GetTranslationLink(ctx context.Context, itemID, languageID int64) (model.TranslationLink, error) {
	var l model.TranslationLink
	err := q.db.QueryRowContext(ctx,
		`SELECT id, item_id, language_id, translation_id, created_at
		 FROM translation_links WHERE item_id = ? AND language_id = ?`, itemID, languageID).
		Scan(&l.ID, &l.ItemID, &l.LanguageID, &l.TranslationID, &l.CreatedAt)
	return l, err
}

// UpsertTranslationLinkParams holds one link of a translation group.
type UpsertTranslationLinkParams struct {
	ItemID        int64
	LanguageID    int64
	TranslationID int64
	CreatedAt     time.Time
}

// UpsertTranslationLink records that languageID's copy of itemID is
// translationID. Each language maps to at most one copy per group.
func (q *Queries) UpsertTranslationLink(ctx context.Context, arg UpsertTranslationLinkParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO translation_links (item_id, language_id, translation_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(item_id, language_id) DO UPDATE SET translation_id = excluded.translation_id`,
		arg.ItemID, arg.LanguageID, arg.TranslationID, arg.CreatedAt)
	return err
}

// ListTranslationLinks returns every link in an item's translation group.
func (q *Queries) ListTranslationLinks(ctx context.Context, itemID int64) ([]model.TranslationLink, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, item_id, language_id, translation_id, created_at
		 FROM translation_links WHERE item_id = ? ORDER BY language_id`, itemID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var links []model.TranslationLink
	for rows.Next() {
		var l model.TranslationLink
		if err := rows.Scan(&l.ID, &l.ItemID, &l.LanguageID, &l.TranslationID, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetMediaByID fetches one media row.
func (q *Queries) GetMediaByID(ctx context.Context, id int64) (model.Media, error) {
	var m model.Media
	err := q.db.QueryRowContext(ctx,
		`SELECT id, filename, url, medium_url, created_at FROM media WHERE id = ?`, id).
		Scan(&m.ID, &m.Filename, &m.URL, &m.MediumURL, &m.CreatedAt)
	return m, err
}

// CreateMediaParams holds the columns for a new media row.
type CreateMediaParams struct {
	Filename  string
	URL       string
	MediumURL string
	CreatedAt time.Time
}

// CreateMedia inserts a media row and returns its id.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO media (filename, url, medium_url, created_at) VALUES (?, ?, ?, ?)`,
		arg.Filename, arg.URL, arg.MediumURL, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CreateEventParams holds one event-log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRecentEvents returns the newest event-log entries, most recent first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, level, category, message, metadata, created_at
		 FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountEventsByCategory returns the number of logged events per category.
func (q *Queries) CountEventsByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE category = ?`, category).Scan(&n)
	return n, err
}
