// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"unicode/utf8"
)

const (
	// snippetTarget is the total length budget the margin is derived from.
	snippetTarget = 80
	// snippetMinMargin is the minimum context kept on each side.
	snippetMinMargin = 8
	// snippetHardCap bounds the stored snippet in bytes.
	snippetHardCap = 256
)

// buildSnippet extracts the bounded context stored with a finding: the
// match plus a margin of (80 - matchLen)/2 on each side, at least 8, with
// line breaks collapsed to spaces and a 256-byte UTF-8-safe cap.
func buildSnippet(text string, start, end int) string {
	margin := (snippetTarget - (end - start)) / 2
	if margin < snippetMinMargin {
		margin = snippetMinMargin
	}

	lo := start - margin
	if lo < 0 {
		lo = 0
	}
	hi := end + margin
	if hi > len(text) {
		hi = len(text)
	}

	// Don't split a multi-byte rune at either edge.
	for lo > 0 && lo < len(text) && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}

	snippet := text[lo:hi]
	snippet = strings.ReplaceAll(snippet, "\r", " ")
	snippet = strings.ReplaceAll(snippet, "\n", " ")

	for len(snippet) > snippetHardCap {
		_, size := utf8.DecodeLastRuneInString(snippet)
		snippet = snippet[:len(snippet)-size]
	}
	return snippet
}
