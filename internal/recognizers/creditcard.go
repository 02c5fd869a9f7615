// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// CreditCard detects payment card numbers: 13 to 19 digits, optionally
// grouped by spaces or dashes, passing the Luhn checksum.
type CreditCard struct {
	pattern *regexp.Regexp
}

// NewCreditCard returns a recognizer for CREDIT_CARD.
func NewCreditCard() *CreditCard {
	return &CreditCard{
		pattern: regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
	}
}

func (r *CreditCard) Name() string { return "credit_card" }

func (r *CreditCard) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		digits := stripSeparators(text[loc[0]:loc[1]])
		if len(digits) < 13 || len(digits) > 19 {
			continue
		}
		if allSameDigit(digits) || !luhnValid(digits) {
			continue
		}
		conf := 0.7
		if knownIssuerPrefix(digits) {
			conf = 0.85
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeCreditCard,
			Start:      loc[0],
			End:        loc[1],
			Confidence: conf,
		})
	}
	return spans
}

// knownIssuerPrefix matches the major network prefixes: Visa, Mastercard,
// Amex and Discover.
func knownIssuerPrefix(digits string) bool {
	switch {
	case digits[0] == '4':
		return true // Visa
	case digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return true // Mastercard
	case digits[0] == '3' && (digits[1] == '4' || digits[1] == '7'):
		return true // Amex
	case len(digits) >= 4 && digits[0:4] == "6011":
		return true // Discover
	case len(digits) >= 2 && digits[0:2] == "65":
		return true // Discover
	}
	return false
}
