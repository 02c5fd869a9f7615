// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"net"
	"regexp"
	"strings"

	"redact-qc/internal/pii"
)

// Email detects email addresses.
type Email struct {
	pattern *regexp.Regexp
}

// NewEmail returns a recognizer for EMAIL_ADDRESS.
func NewEmail() *Email {
	return &Email{
		pattern: regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	}
}

func (r *Email) Name() string { return "email" }

func (r *Email) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeEmailAddress,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.85,
		})
	}
	return spans
}

// IPAddress detects IPv4 and IPv6 addresses. Candidates are parsed with
// net.ParseIP so malformed octets never match.
type IPAddress struct {
	v4 *regexp.Regexp
	v6 *regexp.Regexp
}

// NewIPAddress returns a recognizer for IP_ADDRESS.
func NewIPAddress() *IPAddress {
	return &IPAddress{
		v4: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		v6: regexp.MustCompile(`\b(?:[0-9A-Fa-f]{1,4}:){2,7}[0-9A-Fa-f]{1,4}\b`),
	}
}

func (r *IPAddress) Name() string { return "ip_address" }

func (r *IPAddress) Analyze(text string) []Span {
	var spans []Span
	for _, re := range []*regexp.Regexp{r.v4, r.v6} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if net.ParseIP(text[loc[0]:loc[1]]) == nil {
				continue
			}
			spans = append(spans, Span{
				PIIType:    pii.TypeIPAddress,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.85,
			})
		}
	}
	return spans
}

// URL detects web URLs: scheme-prefixed, or www-prefixed hosts.
type URL struct {
	pattern *regexp.Regexp
}

// NewURL returns a recognizer for URL.
func NewURL() *URL {
	return &URL{
		pattern: regexp.MustCompile(`\b(?:https?://|www\.)[A-Za-z0-9.\-]+(?:/[^\s]*)?`),
	}
}

func (r *URL) Name() string { return "url" }

func (r *URL) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		end := loc[1]
		// Trailing sentence punctuation belongs to the prose, not the URL.
		for end > loc[0] && strings.ContainsRune(".,;:)!?", rune(text[end-1])) {
			end--
		}
		if end <= loc[0] {
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypeURL,
			Start:      loc[0],
			End:        end,
			Confidence: 0.6,
		})
	}
	return spans
}

// MACAddress detects IEEE 802 MAC addresses in colon or dash notation.
type MACAddress struct {
	pattern *regexp.Regexp
}

// NewMACAddress returns a recognizer for MAC_ADDRESS.
func NewMACAddress() *MACAddress {
	return &MACAddress{
		pattern: regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:\-]){5}[0-9A-Fa-f]{2}\b`),
	}
}

func (r *MACAddress) Name() string { return "mac_address" }

func (r *MACAddress) Analyze(text string) []Span {
	var spans []Span
	for _, loc := range r.pattern.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{
			PIIType:    pii.TypeMACAddress,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.9,
		})
	}
	return spans
}
