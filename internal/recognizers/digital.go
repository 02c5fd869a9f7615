// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// DeviceID detects device identifiers, currently IMEIs: 15 digits passing
// the Luhn checksum, optionally dash-grouped (AA-BBBBBB-CCCCCC-D).
type DeviceID struct {
	pattern *regexp.Regexp
}

// NewDeviceID returns a recognizer for DEVICE_ID.
func NewDeviceID() *DeviceID {
	return &DeviceID{
		pattern: regexp.MustCompile(`\b\d{2}-?\d{6}-?\d{6}-?\d\b`),
	}
}

func (r *DeviceID) Name() string { return "device_id" }

func (r *DeviceID) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		digits := stripSeparators(text[loc[0]:loc[1]])
		if len(digits) != 15 || allSameDigit(digits) || !luhnValid(digits) {
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeDeviceID,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.75,
		})
	}
	return spans
}
