// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package exchange

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dwarfdk/willow-bts/internal/config"
	"github.com/dwarfdk/willow-bts/internal/flatten"
	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/store"
	"github.com/dwarfdk/willow-bts/internal/util"
	"github.com/dwarfdk/willow-bts/internal/xliff"
)

// SendOptions carries the editor's per-request choices.
type SendOptions struct {
	Fast     bool
	Comment  string
	Deadline time.Time // zero means no deadline
}

// SendReceipt reports an accepted outbound request.
type SendReceipt struct {
	RequestID  string
	ExternalID string
	Languages  []string
}

// Sender flattens and encodes an item and publishes the translation
// request, then marks every requested language as sent.
type Sender struct {
	cfg       *config.Config
	cs        *store.ContentStore
	flattener *flatten.Flattener
	publisher Publisher
	logger    *slog.Logger
}

// NewSender creates a sender publishing through the given publisher.
func NewSender(cfg *config.Config, cs *store.ContentStore, publisher Publisher, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		cfg:       cfg,
		cs:        cs,
		flattener: flatten.New(cs),
		publisher: publisher,
		logger:    logger,
	}
}

// Send publishes a translation request for the item to the given target
// language codes. A publish failure surfaces immediately and no state is
// changed; the editor action must see it.
func (s *Sender) Send(ctx context.Context, itemID int64, languages []string, opts SendOptions) (*SendReceipt, error) {
	if len(languages) == 0 {
		return nil, fmt.Errorf("no target languages requested")
	}

	source, err := s.cs.LoadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	// Validate targets up front so a typo never publishes.
	targets := make([]model.Language, 0, len(languages))
	for _, code := range languages {
		lang, err := s.cs.Queries().GetLanguageByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unknown target language %q", code)
		}
		if lang.ID == source.LanguageID {
			return nil, fmt.Errorf("target language %q is the item's own language", code)
		}
		targets = append(targets, lang)
	}

	units, err := s.flattener.Flatten(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("flattening item %d: %w", itemID, err)
	}

	doc, err := xliff.Encode(units, source.Language)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req := &PublishRequest{
		Title:            source.Title,
		Content:          string(doc),
		Language:         RequestLanguage{From: source.Language},
		ExternalID:       s.cfg.ExternalID(source.ID),
		Fast:             opts.Fast,
		Comment:          opts.Comment,
		InvoicingAccount: s.cfg.InvoicingAccount,
		APIKey:           s.cfg.APIKey,
		ServiceID:        s.cfg.ServiceID,
		WorkArea:         s.cfg.WorkArea,
		Terminology:      s.cfg.Terminology,
	}
	for _, lang := range targets {
		req.Language.To = append(req.Language.To, lang.Code)
	}
	if !opts.Deadline.IsZero() {
		req.Deadline = opts.Deadline.Format(time.RFC3339)
	}

	if err := s.publisher.Publish(ctx, req); err != nil {
		return nil, err
	}

	receipt := &SendReceipt{
		RequestID:  requestID,
		ExternalID: req.ExternalID,
		Languages:  make([]string, 0, len(targets)),
	}

	for _, lang := range targets {
		receipt.Languages = append(receipt.Languages, lang.Code)
		if err := s.markSent(ctx, source, lang, requestID, opts.Deadline); err != nil {
			// The request is already on the wire; record the miss and
			// keep marking the other languages.
			s.logger.Error("failed to mark language as sent",
				"item_id", source.ID, "language", lang.Code, "error", err,
				"category", model.EventCategoryOutbound)
		}
	}

	s.logger.Info("translation request published",
		"item_id", source.ID, "request_id", requestID,
		"languages", receipt.Languages, "category", model.EventCategoryOutbound)

	return receipt, nil
}

// markSent sets a target language's copy to sent-to-translation, creating
// the copy and its link when the language has none yet.
func (s *Sender) markSent(ctx context.Context, source *model.ContentItem, lang model.Language, requestID string, deadline time.Time) error {
	var deadlineVal sql.NullTime
	if !deadline.IsZero() {
		deadlineVal = sql.NullTime{Time: deadline, Valid: true}
	}

	now := time.Now()
	targetID, err := s.targetCopyID(ctx, source, lang, now)
	if err != nil {
		return err
	}

	return s.cs.Queries().SetItemState(ctx, store.SetItemStateParams{
		State:     model.StateSent,
		RequestID: requestID,
		Deadline:  deadlineVal,
		UpdatedAt: now,
		ID:        targetID,
	})
}

// targetCopyID returns the id of the language's copy, creating a
// placeholder copy and linking it if missing.
func (s *Sender) targetCopyID(ctx context.Context, source *model.ContentItem, lang model.Language, now time.Time) (int64, error) {
	link, err := s.cs.Queries().GetTranslationLink(ctx, source.ID, lang.ID)
	if err == nil {
		return link.TranslationID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	slug, err := s.cs.UniqueSlug(ctx, util.Slugify(source.Title), 0)
	if err != nil {
		return 0, err
	}

	item, err := s.cs.Queries().CreateItem(ctx, store.CreateItemParams{
		LanguageID: lang.ID,
		ItemType:   source.ItemType,
		Title:      source.Title,
		Slug:       slug,
		State:      model.StateReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return 0, err
	}

	err = s.cs.Queries().UpsertTranslationLink(ctx, store.UpsertTranslationLinkParams{
		ItemID:        source.ID,
		LanguageID:    lang.ID,
		TranslationID: item.ID,
		CreatedAt:     now,
	})
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}
