// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// CaseNumber detects legal case and docket numbers: the federal PACER
// format (1:21-cv-01234), state-style year formats (2021-CR-001234), and
// numbers introduced by a "Case No." label.
type CaseNumber struct {
	federal  *regexp.Regexp
	state    *regexp.Regexp
	labelled *regexp.Regexp
}

// NewCaseNumber returns a recognizer for CASE_NUMBER.
func NewCaseNumber() *CaseNumber {
	return &CaseNumber{
		federal:  regexp.MustCompile(`\b\d{1,2}:\d{2}-[A-Za-z]{2}-\d{3,6}(?:-[A-Za-z]{2,4})?\b`),
		state:    regexp.MustCompile(`\b(?:19|20)\d{2}-[A-Za-z]{1,4}-\d{3,8}\b`),
		labelled: regexp.MustCompile(`(?i)\b(?:case|docket|cause)\s*(?:no\.?|number|#)[:.]?\s*([A-Za-z0-9][A-Za-z0-9:\-/]{3,20})`),
	}
}

func (r *CaseNumber) Name() string { return "case_number" }

func (r *CaseNumber) Analyze(text string) []Span {
	var spans []Span
	seen := make(map[int]bool)

	emit := func(start, end int, conf float64) {
		if seen[start] {
			return
		}
		seen[start] = true
		spans = append(spans, Span{
			PIIType:    pii.TypeCaseNumber,
			Start:      start,
			End:        end,
			Confidence: conf,
		})
	}

	for _, loc := range r.federal.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], 0.9)
	}
	for _, loc := range r.state.FindAllStringIndex(text, -1) {
		emit(loc[0], loc[1], 0.85)
	}
	// Labelled form: the span covers the number, not the label.
	for _, m := range r.labelled.FindAllStringSubmatchIndex(text, -1) {
		emit(m[2], m[3], 0.85)
	}
	return spans
}
