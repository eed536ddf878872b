// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dwarfdk/willow-bts/internal/exchange"
	"github.com/dwarfdk/willow-bts/internal/model"
)

// maxWebhookBody bounds the webhook body read. SNS caps messages at 256 KB,
// so 1 MB leaves ample headroom for envelope overhead.
const maxWebhookBody = 1 << 20

// WebhookHandler handles inbound vendor notifications on the shared topic.
type WebhookHandler struct {
	router *exchange.Router
	logger *slog.Logger
}

// NewWebhookHandler creates a webhook handler routing through the given router.
func NewWebhookHandler(router *exchange.Router, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{router: router, logger: logger}
}

// Receive handles POST|PUT|PATCH /bts/v1/aws/sns. The vendor's delivery
// pipeline is not consistent about the method, so all three land here.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	receipt, err := h.router.Route(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrMalformedEnvelope):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, exchange.ErrNotForThisSite):
			writeJSONError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, exchange.ErrItemNotFound):
			writeJSONError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, exchange.ErrTransportFailure):
			writeJSONError(w, http.StatusBadGateway, err.Error())
		default:
			h.logger.Error("webhook processing failed", "error", err,
				"category", model.EventCategoryInbound)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if receipt.SubscriptionConfirmed {
		writeJSONSuccess(w, map[string]any{"subscription_confirmed": true})
		return
	}
	if receipt.Duplicate {
		writeJSONSuccess(w, map[string]any{"duplicate": true})
		return
	}

	writeJSONSuccess(w, map[string]any{
		"item_id": receipt.ItemID,
		"merged":  receipt.Merged,
		"skipped": receipt.Skipped,
	})
}
