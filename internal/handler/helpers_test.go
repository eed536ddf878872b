// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwarfdk/willow-bts/internal/config"
	"github.com/dwarfdk/willow-bts/internal/exchange"
	"github.com/dwarfdk/willow-bts/internal/merge"
	"github.com/dwarfdk/willow-bts/internal/model"
	"github.com/dwarfdk/willow-bts/internal/store"
	"github.com/dwarfdk/willow-bts/internal/testutil"
)

// fakePublisher records publish requests; a non-nil err makes it fail.
type fakePublisher struct {
	requests []*exchange.PublishRequest
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, req *exchange.PublishRequest) error {
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, req)
	return nil
}

// testEnv wires the full HTTP surface over a temp database.
type testEnv struct {
	cfg       *config.Config
	cs        *store.ContentStore
	publisher *fakePublisher
	mux       *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	cfg := &config.Config{SiteHandle: "acme"}
	cs := store.NewContentStore(db)
	logger := testutil.TestLoggerSilent()

	engine := merge.New(cs, logger)
	router := exchange.NewRouter(cfg, cs, engine, nil, logger)
	publisher := &fakePublisher{}
	sender := exchange.NewSender(cfg, cs, publisher, logger)

	webhookHandler := NewWebhookHandler(router, logger)
	articlesHandler := NewArticlesHandler(cfg, cs, sender, logger)
	healthHandler := NewHealthHandler(db)

	mux := chi.NewRouter()
	mux.Route("/bts/v1", func(r chi.Router) {
		r.Post("/aws/sns", webhookHandler.Receive)
		r.Put("/aws/sns", webhookHandler.Receive)
		r.Patch("/aws/sns", webhookHandler.Receive)
		r.Get("/articles/{id}", articlesHandler.Get)
		r.Post("/articles/{id}/send", articlesHandler.Send)
	})
	mux.Get("/healthz", healthHandler.Health)
	mux.Get("/healthz/live", healthHandler.Liveness)
	mux.Get("/healthz/ready", healthHandler.Readiness)

	return &testEnv{cfg: cfg, cs: cs, publisher: publisher, mux: mux}
}

// seedArticle creates a Danish article with a teaser text field.
func (e *testEnv) seedArticle(t *testing.T) *model.ContentItem {
	t.Helper()
	ctx := context.Background()
	q := e.cs.Queries()

	lang, err := q.GetLanguageByCode(ctx, "da")
	if err != nil {
		t.Fatalf("GetLanguageByCode: %v", err)
	}

	now := time.Now()
	item, err := q.CreateItem(ctx, store.CreateItemParams{
		LanguageID: lang.ID,
		ItemType:   model.ItemTypeArticle,
		Title:      "Vindmøller til havs",
		Slug:       "vindmoller-til-havs",
		Body:       "<p>Dansk brødtekst</p>",
		State:      model.StateReady,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	_, err = q.CreateFieldDef(ctx, store.CreateFieldDefParams{
		ItemType: model.ItemTypeArticle, Key: "teaser", Name: "Teaser", Type: model.FieldTypeText, Position: 1,
	})
	if err != nil {
		t.Fatalf("CreateFieldDef: %v", err)
	}
	if err := q.SetFieldValue(ctx, item.ID, "teaser", "Dansk teaser"); err != nil {
		t.Fatalf("SetFieldValue: %v", err)
	}

	loaded, err := e.cs.LoadItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("LoadItem: %v", err)
	}
	return loaded
}
