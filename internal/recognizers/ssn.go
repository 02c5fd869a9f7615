// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// SSN detects US Social Security Numbers. Delimited forms carry a high
// base confidence; a bare 9-digit run is weak evidence and relies on the
// detector's context boost to clear the threshold.
type SSN struct {
	dashed *regexp.Regexp
	spaced *regexp.Regexp
	bare   *regexp.Regexp
}

// NewSSN returns a recognizer for US_SSN.
func NewSSN() *SSN {
	return &SSN{
		dashed: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		spaced: regexp.MustCompile(`\b\d{3} \d{2} \d{4}\b`),
		bare:   regexp.MustCompile(`\b\d{9}\b`),
	}
}

func (r *SSN) Name() string { return "ssn" }

func (r *SSN) Analyze(text string) []Span {
	var spans []Span
	emit := func(re *regexp.Regexp, conf float64) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			digits := stripSeparators(text[loc[0]:loc[1]])
			if !validSSNParts(digits) {
				continue
			}
			spans = append(spans, Span{
				PIIType:    pii.TypeUSSSN,
				Start:      loc[0],
				End:        loc[1],
				Confidence: conf,
			})
		}
	}
	emit(r.dashed, 0.85)
	emit(r.spaced, 0.65)
	emit(r.bare, 0.3)
	return spans
}

// validSSNParts applies the SSA issuance rules: area not 000, 666 or
// 900-999; group not 00; serial not 0000.
func validSSNParts(digits string) bool {
	if len(digits) != 9 || allSameDigit(digits) {
		return false
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	return true
}

// ITIN detects Individual Taxpayer Identification Numbers: SSN-shaped
// numbers with area 9xx and group in the IRS-assigned ranges.
type ITIN struct {
	pattern *regexp.Regexp
}

// NewITIN returns a recognizer for US_ITIN.
func NewITIN() *ITIN {
	return &ITIN{
		pattern: regexp.MustCompile(`\b9\d{2}[- ]?\d{2}[- ]?\d{4}\b`),
	}
}

func (r *ITIN) Name() string { return "itin" }

func (r *ITIN) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		digits := stripSeparators(text[loc[0]:loc[1]])
		if len(digits) != 9 || !validITINGroup(digits[3:5]) {
			continue
		}
		conf := 0.85
		if len(text[loc[0]:loc[1]]) == 9 {
			// Undelimited form is much weaker evidence.
			conf = 0.4
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeUSITIN,
			Start:      loc[0],
			End:        loc[1],
			Confidence: conf,
		})
	}
	return spans
}

// validITINGroup checks the middle pair against the assigned ITIN ranges:
// 70-88, 90-92, 94-99.
func validITINGroup(group string) bool {
	g := int(group[0]-'0')*10 + int(group[1]-'0')
	switch {
	case g >= 70 && g <= 88:
		return true
	case g >= 90 && g <= 92:
		return true
	case g >= 94 && g <= 99:
		return true
	}
	return false
}
