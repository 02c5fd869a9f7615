// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import "strings"

// Context scoring constants. The boost is applied before the penalty so
// the two adjustments compose deterministically.
const (
	contextBoost   = 0.35
	contextPenalty = 0.5
	contextWindow  = 6 // tokens on each side
)

// contextKeywords maps a pii_type to the words that, appearing near a
// match, strengthen it.
var contextKeywords = map[string][]string{
	"US_SSN":            {"ssn", "social security", "social", "taxpayer"},
	"US_ITIN":           {"itin", "taxpayer", "tax id"},
	"PHONE_NUMBER":      {"phone", "telephone", "tel", "fax", "mobile", "cell", "call"},
	"EMAIL_ADDRESS":     {"email", "e-mail", "mailto"},
	"CREDIT_CARD":       {"card", "visa", "mastercard", "amex", "discover", "payment", "charged"},
	"ROUTING_NUMBER":    {"routing", "aba", "wire"},
	"US_BANK_NUMBER":    {"account", "bank", "deposit", "checking", "savings"},
	"BANK_ACCOUNT":      {"account", "bank", "deposit", "checking", "savings"},
	"US_PASSPORT":       {"passport", "travel document"},
	"US_DRIVER_LICENSE": {"license", "licence", "driver", "dl", "dmv"},
	"DATE_TIME":         {"born", "birth", "dob", "dated", "deceased"},
	"IP_ADDRESS":        {"ip", "address", "server", "host"},
	"MAC_ADDRESS":       {"mac", "interface", "device"},
	"DEVICE_ID":         {"imei", "device", "serial", "handset"},
	"CASE_NUMBER":       {"case", "docket", "court", "cause", "matter"},
	"MEDICAL_RECORD":    {"mrn", "patient", "medical", "hospital", "chart"},
	"PERSON":            {"name", "witness", "deponent", "signed"},
	"LOCATION":          {"address", "residence", "resides", "located"},
	"URL":               {"website", "site", "url", "link"},
}

// negativeKeywords halve the confidence of any match they appear near:
// they mark placeholders and already-handled content. Matched as whole
// window tokens, so "example" standing alone counts but the domain of
// user@example.com does not.
var negativeKeywords = map[string]bool{
	"example": true, "sample": true, "redacted": true,
	"test": true, "dummy": true, "fake": true,
}

// roleKeywords are the legal roles whose nearby person names carry the
// highest review priority. A PERSON finding within the context window of
// one is promoted to LEGAL_ROLE_NAME.
var roleKeywords = map[string]bool{
	"judge": true, "justice": true, "magistrate": true,
	"attorney": true, "counsel": true, "counselor": true,
	"plaintiff": true, "defendant": true, "petitioner": true,
	"respondent": true, "victim": true, "witness": true,
	"minor": true, "juror": true, "guardian": true,
	"deponent": true, "esq": true,
}

// tokenPunct is stripped from window token edges before whole-token
// comparison, so "Witness:" and "(example)" still compare as words.
const tokenPunct = ".,;:()[]{}\"'!?"

// scoreContext adjusts a base confidence from the words surrounding the
// match: boost first, capped at 1.0, then the negative penalty.
func scoreContext(text string, start, end int, piiType string, base float64) float64 {
	window := strings.ToLower(tokenWindow(text, start, end, contextWindow))
	conf := base

	for _, kw := range contextKeywords[piiType] {
		if strings.Contains(window, kw) {
			conf *= 1 + contextBoost
			if conf > 1.0 {
				conf = 1.0
			}
			break
		}
	}
	if windowHasToken(window, negativeKeywords) {
		conf *= 1 - contextPenalty
	}
	return conf
}

// windowHasToken reports whether any whole window token, edge punctuation
// stripped, is in the keyword set.
func windowHasToken(window string, keywords map[string]bool) bool {
	for _, tok := range strings.Fields(window) {
		if keywords[strings.Trim(tok, tokenPunct)] {
			return true
		}
	}
	return false
}

// tokenWindow returns up to n whitespace-delimited tokens on each side of
// the [start,end) span, joined by single spaces. The span text itself is
// excluded so a match never boosts itself.
func tokenWindow(text string, start, end, n int) string {
	lo := start - 200
	if lo < 0 {
		lo = 0
	}
	hi := end + 200
	if hi > len(text) {
		hi = len(text)
	}

	before := strings.Fields(text[lo:start])
	if len(before) > n {
		before = before[len(before)-n:]
	}
	after := strings.Fields(text[end:hi])
	if len(after) > n {
		after = after[:n]
	}
	return strings.Join(before, " ") + " " + strings.Join(after, " ")
}
