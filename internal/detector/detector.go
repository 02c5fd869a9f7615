// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detector runs the recognizer registry over page text and turns
// raw spans into scored, deduplicated findings.
package detector

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"redact-qc/internal/pii"
	"redact-qc/internal/recognizers"
)

// DefaultThreshold filters findings the operator has not tuned for.
const DefaultThreshold = 0.4

// Finding is one scored PII occurrence on a page. CharOffset and
// CharLength are byte positions in the page text.
type Finding struct {
	PIIType        string
	Confidence     float64
	PageNumber     int
	CharOffset     int
	CharLength     int
	ContextSnippet string
}

// Detector owns a recognizer set. Not safe for concurrent use; each
// worker builds its own.
type Detector struct {
	recognizers []recognizers.Recognizer
	threshold   float64
	log         hclog.Logger
}

// New builds a detector with the full recognizer registry.
func New(threshold float64, log hclog.Logger) *Detector {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{
		recognizers: BuildRecognizerSet(),
		threshold:   threshold,
		log:         log.Named("detector"),
	}
}

// DetectPage analyzes one page of text. It never fails: a panicking
// recognizer is recovered, logged without content, and skipped.
func (d *Detector) DetectPage(text string, pageNumber int) []Finding {
	if text == "" {
		return nil
	}

	var spans []recognizers.Span
	for _, r := range d.recognizers {
		spans = append(spans, d.analyzeSafely(r, text)...)
	}

	var findings []Finding
	for _, s := range spans {
		conf := scoreContext(text, s.Start, s.End, s.PIIType, s.Confidence)
		if conf < d.threshold {
			continue
		}
		findings = append(findings, Finding{
			PIIType:    s.PIIType,
			Confidence: conf,
			PageNumber: pageNumber,
			CharOffset: s.Start,
			CharLength: s.End - s.Start,
		})
	}

	findings = promoteLegalRoles(text, findings)
	findings = suppressPromotedPersons(findings)
	findings = dedupeIdenticalSpans(findings)
	findings = resolveContainedSpans(findings)

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].CharOffset != findings[j].CharOffset {
			return findings[i].CharOffset < findings[j].CharOffset
		}
		if findings[i].CharLength != findings[j].CharLength {
			return findings[i].CharLength < findings[j].CharLength
		}
		return findings[i].PIIType < findings[j].PIIType
	})

	for i := range findings {
		f := &findings[i]
		f.ContextSnippet = buildSnippet(text, f.CharOffset, f.CharOffset+f.CharLength)
	}
	return findings
}

func (d *Detector) analyzeSafely(r recognizers.Recognizer, text string) (spans []recognizers.Span) {
	defer func() {
		if v := recover(); v != nil {
			d.log.Error("recognizer panicked, skipping", "recognizer", r.Name())
			spans = nil
		}
	}()
	return r.Analyze(text)
}

// promoteLegalRoles re-types a PERSON finding as LEGAL_ROLE_NAME when a
// role keyword sits within the context window of the span. Proximity is
// token-based, so "Witness: Julie Terry" and "the witness, Julie Terry,"
// both promote regardless of the punctuation between role and name.
func promoteLegalRoles(text string, findings []Finding) []Finding {
	for i, f := range findings {
		if f.PIIType != pii.TypePerson {
			continue
		}
		window := strings.ToLower(tokenWindow(text, f.CharOffset, f.CharOffset+f.CharLength, contextWindow))
		if windowHasToken(window, roleKeywords) {
			findings[i].PIIType = pii.TypeLegalRoleName
		}
	}
	return findings
}

// suppressPromotedPersons drops a PERSON finding when a LEGAL_ROLE_NAME
// finding covers the identical span: the role finding is the promoted
// form of the same hit.
func suppressPromotedPersons(findings []Finding) []Finding {
	roles := make(map[[2]int]bool)
	for _, f := range findings {
		if f.PIIType == pii.TypeLegalRoleName {
			roles[[2]int{f.CharOffset, f.CharLength}] = true
		}
	}
	if len(roles) == 0 {
		return findings
	}
	out := findings[:0]
	for _, f := range findings {
		if f.PIIType == pii.TypePerson && roles[[2]int{f.CharOffset, f.CharLength}] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// dedupeIdenticalSpans keeps one finding per exact interval: higher
// severity wins, then higher confidence, then the lexicographically
// smaller pii_type. Partial overlaps are all retained.
func dedupeIdenticalSpans(findings []Finding) []Finding {
	best := make(map[[2]int]Finding, len(findings))
	order := make([][2]int, 0, len(findings))
	for _, f := range findings {
		key := [2]int{f.CharOffset, f.CharLength}
		cur, ok := best[key]
		if !ok {
			best[key] = f
			order = append(order, key)
			continue
		}
		if betterFinding(f, cur) {
			best[key] = f
		}
	}
	out := make([]Finding, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// resolveContainedSpans drops the weaker finding when one span fully
// contains another: nested intervals are one hit seen at two
// granularities, like an IP address inside a URL. Partial overlaps are
// all retained.
func resolveContainedSpans(findings []Finding) []Finding {
	dropped := make([]bool, len(findings))
	for i := range findings {
		for j := range findings {
			if i == j || dropped[i] || dropped[j] {
				continue
			}
			if !containsSpan(findings[i], findings[j]) {
				continue
			}
			if betterFinding(findings[j], findings[i]) {
				dropped[i] = true
			} else {
				dropped[j] = true
			}
		}
	}
	out := findings[:0]
	for i, f := range findings {
		if !dropped[i] {
			out = append(out, f)
		}
	}
	return out
}

// containsSpan reports whether a's interval strictly contains b's.
// Identical intervals are resolved earlier by dedupeIdenticalSpans.
func containsSpan(a, b Finding) bool {
	if a.CharOffset == b.CharOffset && a.CharLength == b.CharLength {
		return false
	}
	return a.CharOffset <= b.CharOffset &&
		a.CharOffset+a.CharLength >= b.CharOffset+b.CharLength
}

func betterFinding(a, b Finding) bool {
	sa, sb := pii.SeverityFor(a.PIIType), pii.SeverityFor(b.PIIType)
	if sa != sb {
		return sa > sb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.PIIType < b.PIIType
}
