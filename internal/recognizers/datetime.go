// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// DateTime detects written dates: 01/02/2003, 2003-01-02, and
// "January 2, 2003" forms. Dates are low severity; they matter in
// redaction review mostly as birth dates, which context boosts.
type DateTime struct {
	patterns []*regexp.Regexp
}

// NewDateTime returns a recognizer for DATE_TIME.
func NewDateTime() *DateTime {
	month := `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`
	return &DateTime{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
			regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
			regexp.MustCompile(`\b` + month + `\.? \d{1,2},? \d{4}\b`),
			regexp.MustCompile(`\b\d{1,2} ` + month + ` \d{4}\b`),
		},
	}
}

func (r *DateTime) Name() string { return "datetime" }

func (r *DateTime) Analyze(text string) []Span {
	var spans []Span
	seen := make(map[int]bool)
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if seen[loc[0]] {
				continue
			}
			seen[loc[0]] = true
			spans = append(spans, Span{
				PIIType:    pii.TypeDateTime,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.6,
			})
		}
	}
	return spans
}
