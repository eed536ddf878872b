// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Translation states for a per-language copy. The lifecycle is
// ready -> sent -> translated, with a back-edge translated -> sent when a
// new request is issued before the previous round is reviewed.
const (
	StateReady      = "ready-for-translation"
	StateSent       = "sent-to-translation"
	StateTranslated = "translated"
)

// stateLabels maps a state to the label shown by the editor widget.
var stateLabels = map[string]string{
	StateReady:      "Ready for translation",
	StateSent:       "Sent to translation",
	StateTranslated: "Translated",
}

// StateLabel returns the human label for a translation state. Unknown
// states are returned unchanged so stale data still renders.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}

// TranslationLink maps one language of a logical item group to the item
// holding that language's copy. All links of a group share the source item.
type TranslationLink struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item_id"`        // source item of the group
	LanguageID    int64     `json:"language_id"`    // language of the copy
	TranslationID int64     `json:"translation_id"` // the per-language copy
	CreatedAt     time.Time `json:"created_at"`
}

// LanguageStatus is the read-model row returned by the article endpoint:
// one sibling language plus its copy's translation state.
type LanguageStatus struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	State      string `json:"state"`
	StateLabel string `json:"state_label"`
}
