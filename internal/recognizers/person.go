// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"
	"strings"

	"redact-qc/internal/pii"
)

// PersonName detects Western-format person names: a title followed by
// capitalized words, or an adjacent capitalized word pair whose first
// token is a known first name. Runs entirely offline against an embedded
// name set.
type PersonName struct {
	titled     *regexp.Regexp
	capToken   *regexp.Regexp
	firstNames map[string]bool
}

// NewPersonName returns a recognizer for PERSON.
func NewPersonName() *PersonName {
	r := &PersonName{
		titled:     regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof|Hon|Rev)\.? [A-Z][a-z]+(?: [A-Z]\.?)?(?: [A-Z][a-z]+(?:-[A-Z][a-z]+)?)?`),
		capToken:   regexp.MustCompile(`[A-Z](?:[a-z]+|\.)`),
		firstNames: make(map[string]bool, len(commonFirstNames)),
	}
	for _, n := range commonFirstNames {
		r.firstNames[n] = true
	}
	return r
}

func (r *PersonName) Name() string { return "person_name" }

func (r *PersonName) Analyze(text string) []Span {
	var spans []Span

	titled := r.titled.FindAllStringIndex(text, -1)
	for _, loc := range titled {
		spans = append(spans, Span{
			PIIType:    pii.TypePerson,
			Start:      loc[0],
			End:        loc[1],
			Confidence: 0.8,
		})
	}
	overlapsTitled := func(start, end int) bool {
		for _, loc := range titled {
			if start < loc[1] && end > loc[0] {
				return true
			}
		}
		return false
	}

	// Dictionary path: a known first name, an optional middle initial,
	// then an adjacent capitalized surname.
	tokens := r.capToken.FindAllStringIndex(text, -1)
	adjacent := func(a, b []int) bool {
		return b[0] == a[1]+1 && text[a[1]] == ' '
	}
	isWord := func(tok []int) bool {
		return tok[1]-tok[0] > 2 || text[tok[1]-1] != '.'
	}
	for i := 0; i+1 < len(tokens); i++ {
		first := tokens[i]
		if !isWord(first) || !r.firstNames[strings.ToLower(text[first[0]:first[1]])] {
			continue
		}
		last := tokens[i+1]
		if adjacent(first, last) && !isWord(last) && i+2 < len(tokens) && adjacent(last, tokens[i+2]) && isWord(tokens[i+2]) {
			last = tokens[i+2]
		}
		if !isWord(last) || !adjacentChain(text, first, last) {
			continue
		}
		if overlapsTitled(first[0], last[1]) {
			continue
		}
		spans = append(spans, Span{
			PIIType:    pii.TypePerson,
			Start:      first[0],
			End:        last[1],
			Confidence: 0.85,
		})
	}
	return spans
}

// adjacentChain reports whether only single spaces and capitalized tokens
// separate first from last.
func adjacentChain(text string, first, last []int) bool {
	if last[0] <= first[1] {
		return false
	}
	between := text[first[1]:last[0]]
	for i := 0; i < len(between); i++ {
		c := between[i]
		if c != ' ' && c != '.' && !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return len(between) <= 4
}

// commonFirstNames is a compact embedded set of frequent US given names.
// Deliberately small: this tool reviews redaction quality, so precision
// beats recall for bare name pairs, and titled names match regardless.
var commonFirstNames = []string{
	"james", "john", "robert", "michael", "william", "david", "richard",
	"joseph", "thomas", "charles", "christopher", "daniel", "matthew",
	"anthony", "mark", "donald", "steven", "paul", "andrew", "joshua",
	"kenneth", "kevin", "brian", "george", "timothy", "ronald", "edward",
	"jason", "jeffrey", "ryan", "jacob", "gary", "nicholas", "eric",
	"jonathan", "stephen", "larry", "justin", "scott", "brandon",
	"benjamin", "samuel", "gregory", "alexander", "patrick", "frank",
	"raymond", "jack", "dennis", "jerry", "tyler", "aaron", "jose",
	"adam", "nathan", "henry", "zachary", "douglas", "peter", "kyle",
	"noah", "ethan", "carl", "arthur", "gerald", "roger", "keith",
	"lawrence", "terry", "sean", "austin", "joe", "albert", "jesse",
	"mary", "patricia", "jennifer", "linda", "elizabeth", "barbara",
	"susan", "jessica", "sarah", "karen", "lisa", "nancy", "betty",
	"sandra", "margaret", "ashley", "kimberly", "emily", "donna",
	"michelle", "carol", "amanda", "melissa", "deborah", "stephanie",
	"dorothy", "rebecca", "sharon", "laura", "cynthia", "amy", "kathleen",
	"angela", "shirley", "brenda", "emma", "anna", "pamela", "nicole",
	"samantha", "katherine", "christine", "helen", "debra", "rachel",
	"carolyn", "janet", "maria", "catherine", "heather", "diane", "olivia",
	"julie", "joyce", "victoria", "ruth", "virginia", "lauren", "kelly",
	"christina", "joan", "evelyn", "judith", "andrea", "hannah", "megan",
	"cheryl", "jacqueline", "martha", "madison", "teresa", "gloria",
	"sara", "janice", "ann", "kathryn", "abigail", "sophia", "frances",
	"jean", "alice", "judy", "isabella", "julia", "grace", "amber",
	"denise", "danielle", "marilyn", "beverly", "charlotte", "natalie",
	"theresa", "diana", "brittany", "doris", "kayla", "alexis", "lori",
}
