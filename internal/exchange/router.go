// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package exchange

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwarfdk/willow-bts/internal/cache"
	"github.com/dwarfdk/willow-bts/internal/config"
	"github.com/dwarfdk/willow-bts/internal/i18n"
	"github.com/dwarfdk/willow-bts/internal/merge"
	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/store"
	"github.com/dwarfdk/willow-bts/internal/util"
	"github.com/dwarfdk/willow-bts/internal/xliff"
)

// confirmTimeout bounds the subscription-confirmation fetch.
const confirmTimeout = 10 * time.Second

// Receipt reports what an inbound call did.
type Receipt struct {
	SubscriptionConfirmed bool
	Duplicate             bool
	ItemID                int64
	Merged                []string // language codes merged and marked translated
	Skipped               []string // language codes skipped after a failure
}

// Router validates inbound vendor callbacks, scopes them to this site, and
// dispatches one merge per target language.
type Router struct {
	cfg     *config.Config
	cs      *store.ContentStore
	engine  *merge.Engine
	dedup   cache.Deduper
	confirm *http.Client
	logger  *slog.Logger
}

// NewRouter creates a router. dedup may be nil to disable redelivery
// suppression.
func NewRouter(cfg *config.Config, cs *store.ContentStore, engine *merge.Engine, dedup cache.Deduper, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:     cfg,
		cs:      cs,
		engine:  engine,
		dedup:   dedup,
		confirm: &http.Client{Timeout: confirmTimeout},
		logger:  logger,
	}
}

// Route handles one raw inbound webhook body.
func (r *Router) Route(ctx context.Context, raw []byte) (*Receipt, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}

	if env.IsSubscriptionConfirmation() {
		if err := r.confirmSubscription(ctx, env.SubscribeURL); err != nil {
			return nil, err
		}
		r.logger.Info("subscription confirmed", "category", model.EventCategoryInbound)
		return &Receipt{SubscriptionConfirmed: true}, nil
	}

	// The message id is claimed before processing so concurrent deliveries
	// of the same message cannot both merge. The cost: a delivery that
	// fails mid-merge is not reprocessed within the TTL and needs a re-send.
	if r.dedup != nil && env.MessageID != "" {
		seen, err := r.dedup.Seen(ctx, env.MessageID)
		if err != nil {
			// Dedup is best effort; a broken dedup store must not block
			// deliveries.
			r.logger.Warn("dedup store unavailable", "error", err, "category", model.EventCategoryInbound)
		} else if seen {
			r.logger.Info("dropping redelivered message", "message_id", env.MessageID, "category", model.EventCategoryInbound)
			return &Receipt{Duplicate: true}, nil
		}
	}

	notif, err := env.DecodeNotification()
	if err != nil {
		r.logger.Warn("rejecting malformed notification", "error", err, "category", model.EventCategoryInbound)
		return nil, err
	}

	itemID, err := ParseExternalID(notif.ExternalID, r.cfg.ExternalIDPrefix())
	if err != nil {
		r.logger.Warn("rejecting message for another site",
			"external_id", notif.ExternalID, "category", model.EventCategoryInbound)
		return nil, err
	}

	source, err := r.cs.LoadItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			r.logger.Warn("rejecting message for unknown item",
				"external_id", notif.ExternalID, "item_id", itemID, "category", model.EventCategoryInbound)
			return nil, itemNotFound(notif.ExternalID)
		}
		return nil, fmt.Errorf("loading source item %d: %w", itemID, err)
	}

	receipt := &Receipt{ItemID: itemID}

	// Per-language merges are independent: one failing language never
	// aborts its siblings.
	type mergedLink struct {
		languageID int64
		targetID   int64
	}
	var links []mergedLink

	for _, result := range notif.Translations {
		code := i18n.NormalizeCode(result.Language)
		if merged, link := r.mergeLanguage(ctx, source, code, result); merged {
			receipt.Merged = append(receipt.Merged, code)
			links = append(links, mergedLink{languageID: link.LanguageID, targetID: link.TranslationID})
		} else {
			receipt.Skipped = append(receipt.Skipped, code)
		}
	}

	// The link update runs last so a mid-loop failure still preserves the
	// links of every language that succeeded.
	now := time.Now()
	for _, l := range links {
		err := r.cs.Queries().UpsertTranslationLink(ctx, store.UpsertTranslationLinkParams{
			ItemID:        source.ID,
			LanguageID:    l.languageID,
			TranslationID: l.targetID,
			CreatedAt:     now,
		})
		if err != nil {
			r.logger.Error("failed to record translation link",
				"item_id", source.ID, "language_id", l.languageID, "error", err,
				"category", model.EventCategoryMerge)
		}
	}

	return receipt, nil
}

// mergeLanguage merges one language's result. It reports success and, on
// success, the link row to record.
func (r *Router) mergeLanguage(ctx context.Context, source *model.ContentItem, code string, result TranslationResult) (bool, model.TranslationLink) {
	logger := r.logger.With("item_id", source.ID, "language", code)

	lang, err := r.cs.Queries().GetLanguageByCode(ctx, code)
	if err != nil {
		logger.Warn("skipping unknown target language", "error", err, "category", model.EventCategoryMerge)
		return false, model.TranslationLink{}
	}

	_, units, err := xliff.Decode([]byte(result.Content))
	if err != nil {
		logger.Warn("skipping language with malformed document", "error", err, "category", model.EventCategoryMerge)
		return false, model.TranslationLink{}
	}

	target, err := r.targetItem(ctx, source, lang, result)
	if err != nil {
		logger.Warn("skipping language without target item", "error", err, "category", model.EventCategoryMerge)
		return false, model.TranslationLink{}
	}

	if err := r.engine.Apply(ctx, source, target, units); err != nil {
		// Abandoned and logged. The message id is already claimed, so a
		// redelivery within the dedup TTL is dropped; recovery is a re-send.
		logger.Warn("abandoning failed merge", "target_id", target.ID, "error", err, "category", model.EventCategoryMerge)
		return false, model.TranslationLink{}
	}

	err = r.cs.Queries().SetItemState(ctx, store.SetItemStateParams{
		State:     model.StateTranslated,
		RequestID: target.RequestID,
		Deadline:  target.Deadline,
		UpdatedAt: time.Now(),
		ID:        target.ID,
	})
	if err != nil {
		logger.Error("merged but failed to advance state", "target_id", target.ID, "error", err,
			"category", model.EventCategoryMerge)
	}

	logger.Info("merged translation", "target_id", target.ID, "category", model.EventCategoryMerge)
	return true, model.TranslationLink{LanguageID: lang.ID, TranslationID: target.ID}
}

// targetItem resolves the per-language copy to merge into, creating one
// when the language has no copy in the group yet.
func (r *Router) targetItem(ctx context.Context, source *model.ContentItem, lang model.Language, result TranslationResult) (*model.ContentItem, error) {
	link, err := r.cs.Queries().GetTranslationLink(ctx, source.ID, lang.ID)
	if err == nil {
		return r.cs.LoadItem(ctx, link.TranslationID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up translation link: %w", err)
	}

	title := result.Title
	if title == "" {
		title = source.Title
	}
	slug, err := r.cs.UniqueSlug(ctx, util.Slugify(title), 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item, err := r.cs.Queries().CreateItem(ctx, store.CreateItemParams{
		LanguageID: lang.ID,
		ItemType:   source.ItemType,
		Title:      title,
		Slug:       slug,
		State:      model.StateReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s copy: %w", lang.Code, err)
	}
	item.Language = lang.Code
	return &item, nil
}

// confirmSubscription issues the one-time GET acknowledging a topic
// subscription.
func (r *Router) confirmSubscription(ctx context.Context, url string) error {
	if url == "" {
		return malformedEnvelope(fmt.Errorf("subscription confirmation without URL"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return transportFailure("building confirmation request", err)
	}

	resp, err := r.confirm.Do(req)
	if err != nil {
		return transportFailure("fetching confirmation URL", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return transportFailure(fmt.Sprintf("confirmation URL returned %d", resp.StatusCode), nil)
	}
	return nil
}
