// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dwarfdk/willow-bts/internal/config"
)

// envelopeTypeSubscription is the Type discriminator of a subscription
// confirmation callback.
const envelopeTypeSubscription = "SubscriptionConfirmation"

// Envelope is the outer SNS message wrapper.
type Envelope struct {
	Type         string `json:"Type"`
	MessageID    string `json:"MessageId"`
	Message      string `json:"Message"`
	SubscribeURL string `json:"SubscribeURL"`
}

// IsSubscriptionConfirmation reports whether the envelope is a one-time
// subscription confirmation rather than a delivery notification.
func (e *Envelope) IsSubscriptionConfirmation() bool {
	return e.Type == envelopeTypeSubscription
}

// Notification is the inner message of a delivery notification.
type Notification struct {
	ExternalID   string              `json:"external_id"`
	Translations []TranslationResult `json:"translations"`
}

// TranslationResult is one target language's translated document.
type TranslationResult struct {
	Language string `json:"language"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"` // nested exchange-document XML
}

// ParseEnvelope parses the raw webhook body into the outer envelope.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformedEnvelope(err)
	}
	return &env, nil
}

// DecodeNotification decodes the envelope's nested message. The message is
// JSON encoded a second time inside the envelope, so this is the single
// place that double decode can fail.
func (e *Envelope) DecodeNotification() (*Notification, error) {
	if e.Message == "" {
		return nil, malformedEnvelope(fmt.Errorf("envelope has no message"))
	}
	var n Notification
	if err := json.Unmarshal([]byte(e.Message), &n); err != nil {
		return nil, malformedEnvelope(err)
	}
	if n.ExternalID == "" {
		return nil, malformedEnvelope(fmt.Errorf("notification has no external id"))
	}
	return &n, nil
}

// ParseExternalID validates that an external id belongs to this deployment
// and extracts the item id. The id must be "<prefix><separator><numeric id>"
// where prefix is the site's own external-id prefix.
func ParseExternalID(externalID, sitePrefix string) (int64, error) {
	rest, ok := strings.CutPrefix(externalID, sitePrefix+config.ExternalIDSeparator)
	if !ok {
		return 0, notForThisSite(externalID)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, notForThisSite(externalID)
	}
	return id, nil
}
