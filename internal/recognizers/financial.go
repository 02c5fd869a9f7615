// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"
	"strings"

	"redact-qc/internal/pii"
)

// RoutingNumber detects ABA bank routing numbers: 9 digits whose weighted
// checksum 3(d1+d4+d7) + 7(d2+d5+d8) + (d3+d6+d9) is divisible by 10.
type RoutingNumber struct {
	pattern *regexp.Regexp
}

// NewRoutingNumber returns a recognizer for ROUTING_NUMBER.
func NewRoutingNumber() *RoutingNumber {
	return &RoutingNumber{
		pattern: regexp.MustCompile(`\b\d{9}\b`),
	}
}

func (r *RoutingNumber) Name() string { return "routing_number" }

func (r *RoutingNumber) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		digits := text[loc[0]:loc[1]]
		if allSameDigit(digits) || !abaChecksumValid(digits) {
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeRoutingNumber,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.75,
		})
	}
	return spans
}

func abaChecksumValid(digits string) bool {
	if len(digits) != 9 {
		return false
	}
	d := func(i int) int { return int(digits[i] - '0') }
	sum := 3*(d(0)+d(3)+d(6)) + 7*(d(1)+d(4)+d(7)) + (d(2) + d(5) + d(8))
	return sum%10 == 0
}

// BankAccount detects account numbers: 8 to 17 digit runs. A bare run is
// weak (US_BANK_NUMBER at low confidence); the same run adjacent to an
// account keyword on the line is strong (BANK_ACCOUNT).
type BankAccount struct {
	pattern  *regexp.Regexp
	keywords []string
}

// NewBankAccount returns a recognizer for US_BANK_NUMBER and BANK_ACCOUNT.
func NewBankAccount() *BankAccount {
	return &BankAccount{
		pattern: regexp.MustCompile(`\b\d{8,17}\b`),
		keywords: []string{
			"account", "acct", "acc#", "iban", "checking", "savings",
			"deposit", "wire", "ach",
		},
	}
}

func (r *BankAccount) Name() string { return "bank_account" }

func (r *BankAccount) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		digits := text[loc[0]:loc[1]]
		if allSameDigit(digits) {
			continue
		}
		if r.keywordNearby(text, loc[0], loc[1]) {
			spans = append(spans, Span{
				PIIType:    pii.TypeBankAccount,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.6,
			})
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeUSBankNumber,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.3,
		})
	}
	return spans
}

// keywordNearby scans up to 60 bytes on each side of the match, bounded by
// line breaks, for an account keyword.
func (r *BankAccount) keywordNearby(text string, start, end int) bool {
	lo := start - 60
	if lo < 0 {
		lo = 0
	}
	before := text[lo:start]
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}

	hi := end + 60
	if hi > len(text) {
		hi = len(text)
	}
	after := text[end:hi]
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}

	window := strings.ToLower(before + " " + after)
	for _, kw := range r.keywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}
