// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n maps the translation vendor's language codes onto the codes
// used by the local content store.
package i18n

import "strings"

// vendorCodes maps a vendor language code (lowercased) to the internal
// ISO 639-1 code. Codes without an entry pass through unchanged.
var vendorCodes = map[string]string{
	"en":    "en",
	"sv":    "sv",
	"se":    "sv",
	"sv-se": "sv",
	"no":    "nb",
	"nb":    "nb",
	"fi":    "fi",
	"da":    "da",
}

// NormalizeCode converts a vendor language code to the internal code.
// Unrecognized codes are returned unchanged, minus surrounding whitespace.
func NormalizeCode(vendor string) string {
	code := strings.TrimSpace(vendor)
	if internal, ok := vendorCodes[strings.ToLower(code)]; ok {
		return internal
	}
	return code
}
