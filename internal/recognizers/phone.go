// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// Phone detects North American phone numbers in the common written forms:
// (555) 123-4567, 555-123-4567, 555.123.4567, +1 555 123 4567.
type Phone struct {
	patterns []*regexp.Regexp
}

// NewPhone returns a recognizer for PHONE_NUMBER.
func NewPhone() *Phone {
	return &Phone{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\(\d{3}\) ?\d{3}[-.]?\d{4}\b`),
			regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
			regexp.MustCompile(`\+1[ \-.]?\(?\d{3}\)?[ \-.]?\d{3}[ \-.]?\d{4}\b`),
		},
	}
}

func (r *Phone) Name() string { return "phone" }

func (r *Phone) Analyze(text string) []Span {
	var spans []Span
	seen := make(map[int]bool)
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if seen[loc[0]] {
				continue
			}
			if !validNANP(stripPhone(text[loc[0]:loc[1]])) {
				continue
			}
			seen[loc[0]] = true
			spans = append(spans, Span{
				PIIType:    pii.TypePhoneNumber,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.75,
			})
		}
	}
	return spans
}

func stripPhone(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// validNANP requires a ten-digit number whose area code starts with 2-9.
// The exchange is not checked: directory listings and fictional numbers
// in filings routinely use exchanges below 200, and this tool flags for
// human review rather than dialing.
func validNANP(digits string) bool {
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return false
	}
	return digits[0] >= '2'
}
