// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// MedicalRecord detects medical record numbers introduced by an MRN or
// patient-ID label. Bare numbers are never emitted: without the label an
// MRN has no distinguishing shape.
type MedicalRecord struct {
	labelled *regexp.Regexp
}

// NewMedicalRecord returns a recognizer for MEDICAL_RECORD.
func NewMedicalRecord() *MedicalRecord {
	return &MedicalRecord{
		labelled: regexp.MustCompile(`(?i)\b(?:mrn|mr\s*#|medical\s+record\s+(?:number|no\.?)|patient\s+(?:id|number))[:#.]?\s*([A-Za-z0-9][A-Za-z0-9\-]{4,14})`),
	}
}

func (r *MedicalRecord) Name() string { return "medical_record" }

func (r *MedicalRecord) Analyze(text string) []Span {
	var spans []Span
	for _, m := range r.labelled.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeMedicalRecord,
			Start:      m[2],
			End:        m[3],
			Confidence: 0.85,
		})
	}
	return spans
}
