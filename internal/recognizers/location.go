// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// Location detects US physical addresses: street lines and
// "City, ST 12345" lines.
type Location struct {
	street   *regexp.Regexp
	cityLine *regexp.Regexp
}

// NewLocation returns a recognizer for LOCATION.
func NewLocation() *Location {
	streetTypes := `(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl|Way|Circle|Cir|Terrace|Ter|Parkway|Pkwy)`
	return &Location{
		street: regexp.MustCompile(`\b\d{1,6} (?:[NSEW]\.? )?[A-Z][a-z]+(?: [A-Z][a-z]+)? ` + streetTypes + `\.?(?:,? (?:Apt|Suite|Ste|Unit|#)\.? ?[A-Za-z0-9\-]+)?\b`),
		cityLine: regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?, (?:A[KLRZ]|C[AOT]|D[CE]|FL|GA|HI|I[ADLN]|K[SY]|LA|M[ADEINOST]|N[CDEHJMVY]|O[HKR]|PA|RI|S[CD]|T[NX]|UT|V[AT]|W[AIVY]) \d{5}(?:-\d{4})?\b`),
	}
}

func (r *Location) Name() string { return "location" }

func (r *Location) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.street.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeLocation,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.75,
		})
	}
	for _, loc := range r.cityLine.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeLocation,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.8,
		})
	}
	return spans
}
