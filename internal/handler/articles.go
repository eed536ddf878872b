// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwarfdk/willow-bts/internal/config"
	"github.com/dwarfdk/willow-bts/internal/exchange"
	"github.com/dwarfdk/willow-bts/internal/store"
)

// ArticlesHandler serves the per-item translation read model and accepts
// outbound send requests.
type ArticlesHandler struct {
	cfg    *config.Config
	cs     *store.ContentStore
	sender *exchange.Sender
	logger *slog.Logger
}

// NewArticlesHandler creates an articles handler. sender may be nil when
// outbound publishing is not configured.
func NewArticlesHandler(cfg *config.Config, cs *store.ContentStore, sender *exchange.Sender, logger *slog.Logger) *ArticlesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticlesHandler{cfg: cfg, cs: cs, sender: sender, logger: logger}
}

// Get handles GET /bts/v1/articles/{id}: the item's translation state plus
// the state of every sibling copy in its group.
func (h *ArticlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.cs.LoadItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			writeJSONError(w, http.StatusNotFound, "article not found")
			return
		}
		h.logger.Error("failed to load article", "item_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	statuses, err := h.cs.LanguageStatuses(r.Context(), item)
	if err != nil {
		h.logger.Error("failed to assemble language statuses", "item_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fields, err := h.cs.Queries().ListFieldValues(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load custom fields", "item_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var deadline any
	if item.Deadline.Valid {
		deadline = item.Deadline.Time.Format(time.RFC3339)
	}

	writeJSONSuccess(w, map[string]any{
		"item_id":       item.ID,
		"external_id":   h.cfg.ExternalID(item.ID),
		"title":         item.Title,
		"slug":          item.Slug,
		"language":      item.Language,
		"state":         item.State,
		"request_id":    item.RequestID,
		"deadline":      deadline,
		"languages":     statuses,
		"custom_fields": fields,
	})
}

// sendRequest is the POST /bts/v1/articles/{id}/send body.
type sendRequest struct {
	Languages []string `json:"languages"`
	Fast      bool     `json:"fast"`
	Comment   string   `json:"comment"`
	Deadline  string   `json:"deadline"` // RFC3339, optional
}

// Send handles POST /bts/v1/articles/{id}/send: publish a translation
// request for the item to the given target languages.
func (h *ArticlesHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if h.sender == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "outbound publishing is not configured")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := exchange.SendOptions{Fast: req.Fast, Comment: req.Comment}
	if req.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "deadline must be RFC3339")
			return
		}
		opts.Deadline = deadline
	}

	receipt, err := h.sender.Send(r.Context(), id, req.Languages, opts)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			writeJSONError(w, http.StatusNotFound, "article not found")
		case errors.Is(err, exchange.ErrTransportFailure):
			h.logger.Error("publish failed", "item_id", id, "error", err)
			writeJSONError(w, http.StatusBadGateway, "failed to publish translation request")
		default:
			writeJSONError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSONSuccess(w, map[string]any{
		"request_id":  receipt.RequestID,
		"external_id": receipt.ExternalID,
		"languages":   receipt.Languages,
	})
}

// itemID parses the {id} route parameter, writing a 400 on garbage.
func (h *ArticlesHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid article id")
		return 0, false
	}
	return id, true
}
