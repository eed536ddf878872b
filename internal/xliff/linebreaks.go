// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package xliff

import "strings"

// Line-break escape tokens. The vendor's document pipeline mangles literal
// breaks, so each flavor travels as its own token and is restored on decode.
const (
	tokenCRLF = "{{CRLF}}"
	tokenCR   = "{{CR}}"
	tokenLF   = "{{LF}}"
)

// EncodeLineBreaks replaces literal line breaks with the escape tokens.
// CRLF is replaced first so its halves are not claimed by the CR and LF
// replacements.
func EncodeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", tokenCRLF)
	s = strings.ReplaceAll(s, "\r", tokenCR)
	s = strings.ReplaceAll(s, "\n", tokenLF)
	return s
}

// DecodeLineBreaks restores literal line breaks from the escape tokens.
func DecodeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, tokenCRLF, "\r\n")
	s = strings.ReplaceAll(s, tokenCR, "\r")
	s = strings.ReplaceAll(s, tokenLF, "\n")
	return s
}
