// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// Passport detects US passport numbers: a letter followed by 8 digits
// (post-2021 books), or 9 digits. The all-digit form is ambiguous with
// other identifiers, so it starts low and relies on context.
type Passport struct {
	lettered *regexp.Regexp
	numeric  *regexp.Regexp
}

// NewPassport returns a recognizer for US_PASSPORT.
func NewPassport() *Passport {
	return &Passport{
		lettered: regexp.MustCompile(`\b[A-Z]\d{8}\b`),
		numeric:  regexp.MustCompile(`\b\d{9}\b`),
	}
}

func (r *Passport) Name() string { return "passport" }

func (r *Passport) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.lettered.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeUSPassport,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.6,
		})
	}
	for _, loc := range r.numeric.FindAllStringIndex(text, -1) {
		digits := text[loc[0]:loc[1]]
		if allSameDigit(digits) {
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeUSPassport,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.25,
		})
	}
	return spans
}

// DriverLicense detects US driver's license numbers in the distinctive
// state formats. All-digit state formats are skipped: without state
// context they are indistinguishable from other identifiers.
type DriverLicense struct {
	formats []dlFormat
}

type dlFormat struct {
	re   *regexp.Regexp
	conf float64
}

// NewDriverLicense returns a recognizer for US_DRIVER_LICENSE.
func NewDriverLicense() *DriverLicense {
	return &DriverLicense{
		formats: []dlFormat{
			// Florida, Maryland: letter + 12 digits.
			{regexp.MustCompile(`\b[A-Z]\d{12}\b`), 0.7},
			// Illinois: letter + 11 digits.
			{regexp.MustCompile(`\b[A-Z]\d{11}\b`), 0.7},
			// New Jersey: letter + 14 digits.
			{regexp.MustCompile(`\b[A-Z]\d{14}\b`), 0.7},
			// California: letter + 7 digits.
			{regexp.MustCompile(`\b[A-Z]\d{7}\b`), 0.5},
			// Washington-style: 5 letters + 3 alnum + 3 alnum.
			{regexp.MustCompile(`\b[A-Z]{5}\*?[A-Z0-9]{3}[A-Z0-9]{2,3}\b`), 0.45},
		},
	}
}

func (r *DriverLicense) Name() string { return "driver_license" }

func (r *DriverLicense) Analyze(text string) []Span {
	var spans []Span
	seen := make(map[int]bool)
	for _, f := range r.formats {
		for _, loc := range f.re.FindAllStringIndex(text, -1) {
			if seen[loc[0]] {
				continue
			}
			seen[loc[0]] = true
			spans = append(spans, Span{
				PIIType:    pii.TypeUSDriverLic,
				Start:      loc[0],
				End:        loc[1],
				Confidence: f.conf,
			})
		}
	}
	return spans
}
