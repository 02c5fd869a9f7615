// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"redact-qc/internal/pii"
)

// LegalRole detects names tied to a protected legal role: a role word
// (judge, victim, witness, minor, juror and similar) immediately before a
// capitalized name, or a name followed by an attorney suffix. In redacted
// court filings these are the names most likely to require redaction, so
// they outrank a plain PERSON hit on the same span.
type LegalRole struct {
	rolePrefixed *regexp.Regexp
	esqSuffixed  *regexp.Regexp
}

// NewLegalRole returns a recognizer for LEGAL_ROLE_NAME.
func NewLegalRole() *LegalRole {
	role := `(?:Judge|Justice|Magistrate|Attorney|Counsel(?:or)?|Plaintiff|Defendant|Petitioner|Respondent|Victim|Witness|Minor|Juror|Guardian|Deponent)`
	name := `[A-Z][a-z]+(?: [A-Z]\.?)?(?: [A-Z][a-z]+(?:-[A-Z][a-z]+)?)?`
	return &LegalRole{
		rolePrefixed: regexp.MustCompile(`\b` + role + `,? (` + name + `)`),
		esqSuffixed:  regexp.MustCompile(`\b(` + name + `), Esq\.?`),
	}
}

func (r *LegalRole) Name() string { return "legal_role" }

func (r *LegalRole) Analyze(text string) []Span {
	var spans []Span
	// Span covers the name only; the role word is context, not PII.
	for _, m := range r.rolePrefixed.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeLegalRoleName,
			Start:      m[2],
			End:        m[3],
			Confidence: 0.9,
		})
	}
	for _, m := range r.esqSuffixed.FindAllStringSubmatchIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeLegalRoleName,
			Start:      m[2],
			End:        m[3],
			Confidence: 0.9,
		})
	}
	return spans
}
