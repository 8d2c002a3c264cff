package reasoning

import (
	"regexp"
	"strings"
)

type Heading string

const (
	HeadingProblem       Heading = "PROBLEM REPRESENTATION"
	HeadingSyndrome      Heading = "DOMINANT SYNDROME"
	HeadingDifferentials Heading = "TOP 3 DIFFERENTIALS"
	HeadingRedFlags      Heading = "RED FLAGS"
	HeadingManagement    Heading = "BROAD MANAGEMENT PRINCIPLES"
	HeadingMissingInfo   Heading = "CRITICAL MISSING INFORMATION"
)

// Headings is the canonical order of the six required sections.
var Headings = []Heading{
	HeadingProblem,
	HeadingSyndrome,
	HeadingDifferentials,
	HeadingRedFlags,
	HeadingManagement,
	HeadingMissingInfo,
}

var headingSplit = regexp.MustCompile(
	`(?i)(PROBLEM REPRESENTATION|DOMINANT SYNDROME|TOP 3 DIFFERENTIALS|RED FLAGS|` +
		`BROAD MANAGEMENT PRINCIPLES|CRITICAL MISSING INFORMATION)\s*-\s*`)

var canonicalHeadings = func() map[string]Heading {
	m := make(map[string]Heading, len(Headings))
	for _, h := range Headings {
		m[string(h)] = h
	}
	return m
}()

// SectionMap maps each heading to its trimmed content. A map returned by
// ParseSections always holds all six headings.
type SectionMap map[Heading]string

// ParseSections splits raw model output on the heading tokens. It returns
// false when any heading is missing, repeated, unknown or out of order.
// Text before the first heading is discarded.
func ParseSections(raw string) (SectionMap, bool) {
	text := strings.TrimSpace(raw)
	matches := headingSplit.FindAllStringSubmatchIndex(text, -1)
	if len(matches) < len(Headings) {
		return nil, false
	}

	sections := make(SectionMap, len(Headings))
	order := make([]Heading, 0, len(Headings))
	for i, m := range matches {
		name := strings.ToUpper(strings.TrimSpace(text[m[2]:m[3]]))
		heading, ok := canonicalHeadings[name]
		if !ok {
			return nil, false
		}
		if _, dup := sections[heading]; dup {
			return nil, false
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[heading] = strings.TrimSpace(text[m[1]:end])
		order = append(order, heading)
	}

	if len(order) != len(Headings) {
		return nil, false
	}
	for i, h := range Headings {
		if order[i] != h {
			return nil, false
		}
	}
	return sections, true
}

// String serialises the map back into the six-line output format.
func (s SectionMap) String() string {
	lines := make([]string, 0, len(Headings))
	for _, h := range Headings {
		lines = append(lines, string(h)+" - "+s[h])
	}
	return strings.Join(lines, "\n")
}
