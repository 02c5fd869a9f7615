// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package recognizers implements the per-type PII recognizers. Each
// recognizer scans raw page text with compiled regex patterns, validates
// candidates (checksums, range rules) in code, and emits spans with a base
// confidence. Context scoring happens later in the detector.
package recognizers

// Span is one candidate PII occurrence. Start and End are byte offsets
// into the analyzed text, End exclusive.
type Span struct {
	PIIType    string
	Start      int
	End        int
	Confidence float64
}

// Recognizer analyzes one page of text for a family of PII types.
// Implementations must be safe to call repeatedly but are not required to
// be safe for concurrent use; each worker owns its own set.
type Recognizer interface {
	Name() string
	Analyze(text string) []Span
}

// luhnValid reports whether a string of ASCII digits passes the Luhn
// checksum. Non-digit input returns false.
func luhnValid(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// stripSeparators removes spaces and dashes, the separators the number
// patterns allow.
func stripSeparators(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '-' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// allSameDigit reports whether every byte equals the first. Repdigit
// numbers are test artifacts, not PII.
func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}
