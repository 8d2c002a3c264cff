package reasoning

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

const (
	minLabelLen   = 3
	minSupporting = 3
	minOpposing   = 1
)

// DifferentialEntry is one ranked diagnosis from the TOP 3 DIFFERENTIALS line.
// Posterior, Hierarchy and Opposing stay zero under SchemaLinks.
type DifferentialEntry struct {
	Rank         int
	Diagnosis    string
	Posterior    float64
	HasPosterior bool
	Hierarchy    HierarchyTag
	Supporting   []string
	Opposing     []string
}

// ValidateDifferentials reports whether text is a well-formed block of three
// differentials under the given schema.
func ValidateDifferentials(schema SchemaVersion, text string) error {
	_, err := ParseDifferentials(schema, text)
	return err
}

// ParseDifferentials parses and checks all three entries. Any violation
// rejects the whole block.
func ParseDifferentials(schema SchemaVersion, text string) ([]DifferentialEntry, error) {
	blocks := strings.Split(strings.TrimSpace(text), schema.blockSeparator())
	if len(blocks) != 3 {
		return nil, errors.Wrapf(ErrBlockCount, "got %d", len(blocks))
	}

	entries := make([]DifferentialEntry, 0, 3)
	for i, block := range blocks {
		var (
			entry DifferentialEntry
			err   error
		)
		switch schema {
		case SchemaLinks:
			entry, err = parseLinksBlock(block, i+1)
		case SchemaPosterior:
			entry, err = parsePosteriorBlock(block, i+1)
		default:
			return nil, errors.Wrapf(ErrUnknownSchema, "%q", schema)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Dx%d", i+1)
		}
		entries = append(entries, entry)
	}

	if schema == SchemaPosterior {
		for i := 1; i < len(entries); i++ {
			if entries[i].Posterior >= entries[i-1].Posterior {
				return nil, errors.Wrapf(ErrPosteriorOrder, "Dx%d %.2f >= Dx%d %.2f",
					i+1, entries[i].Posterior, i, entries[i-1].Posterior)
			}
		}
	}
	return entries, nil
}

var linksOpen = regexp.MustCompile(`(?i)\(\s*links\s*:`)

// parseLinksBlock handles "Dx<n>: <diagnosis> (links: a; b; c)".
func parseLinksBlock(block string, rank int) (DifferentialEntry, error) {
	sc := &scanner{src: block}
	if err := sc.rankMarker(rank); err != nil {
		return DifferentialEntry{}, err
	}
	body := sc.rest()

	loc := linksOpen.FindStringIndex(body)
	if loc == nil {
		return DifferentialEntry{}, errors.Wrap(ErrBlockSyntax, "missing (links: ...)")
	}
	open := loc[0]
	closing := strings.LastIndex(body, ")")
	if closing < open {
		return DifferentialEntry{}, errors.Wrap(ErrBlockSyntax, "unclosed links list")
	}
	if tail := strings.TrimSpace(body[closing+1:]); tail != "" && tail != "." {
		return DifferentialEntry{}, errors.Wrapf(ErrBlockSyntax, "trailing text %q", tail)
	}

	label, err := diagnosisLabel(body[:open])
	if err != nil {
		return DifferentialEntry{}, err
	}
	links := splitClues(body[loc[1]:closing], ";")
	if len(links) < minSupporting {
		return DifferentialEntry{}, errors.Wrapf(ErrSupportingClues, "got %d links", len(links))
	}
	return DifferentialEntry{Rank: rank, Diagnosis: label, Supporting: links}, nil
}

var posteriorFieldAliases = map[string]string{
	"posterior":   "posterior",
	"probability": "posterior",
	"p":           "posterior",
	"hierarchy":   "hierarchy",
	"tier":        "hierarchy",
	"level":       "hierarchy",
	"for":         "for",
	"supporting":  "for",
	"against":     "against",
	"opposing":    "against",
}

// parsePosteriorBlock handles
// "Dx<n>: <diagnosis> | posterior: p | hierarchy: tag | for: a; b; c | against: d".
// Each field must appear exactly once; order is free.
func parsePosteriorBlock(block string, rank int) (DifferentialEntry, error) {
	sc := &scanner{src: block}
	if err := sc.rankMarker(rank); err != nil {
		return DifferentialEntry{}, err
	}
	parts := strings.Split(sc.rest(), "|")

	label, err := diagnosisLabel(parts[0])
	if err != nil {
		return DifferentialEntry{}, err
	}

	fields := make(map[string]string, 4)
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return DifferentialEntry{}, errors.Wrapf(ErrBlockSyntax, "field %q has no key", strings.TrimSpace(part))
		}
		name, known := posteriorFieldAliases[strings.ToLower(strings.TrimSpace(key))]
		if !known {
			return DifferentialEntry{}, errors.Wrapf(ErrBlockSyntax, "unknown field %q", strings.TrimSpace(key))
		}
		if _, dup := fields[name]; dup {
			return DifferentialEntry{}, errors.Wrapf(ErrBlockSyntax, "duplicate field %q", name)
		}
		fields[name] = strings.TrimSpace(value)
	}
	for _, name := range []string{"posterior", "hierarchy", "for", "against"} {
		if _, ok := fields[name]; !ok {
			return DifferentialEntry{}, errors.Wrapf(ErrBlockSyntax, "missing field %q", name)
		}
	}

	posterior, err := NormalizePosterior(fields["posterior"])
	if err != nil {
		return DifferentialEntry{}, err
	}
	tag, err := NormalizeHierarchy(fields["hierarchy"])
	if err != nil {
		return DifferentialEntry{}, err
	}
	if want := expectedHierarchy[rank-1]; tag != want {
		return DifferentialEntry{}, errors.Wrapf(ErrHierarchyMismatch, "got %s, want %s", tag, want)
	}
	supporting := splitClues(fields["for"], ";,")
	if len(supporting) < minSupporting {
		return DifferentialEntry{}, errors.Wrapf(ErrSupportingClues, "got %d", len(supporting))
	}
	opposing := splitClues(fields["against"], ";,")
	if len(opposing) < minOpposing {
		return DifferentialEntry{}, errors.Wrapf(ErrOpposingClues, "got %d", len(opposing))
	}

	return DifferentialEntry{
		Rank:         rank,
		Diagnosis:    label,
		Posterior:    posterior,
		HasPosterior: true,
		Hierarchy:    tag,
		Supporting:   supporting,
		Opposing:     opposing,
	}, nil
}

func diagnosisLabel(raw string) (string, error) {
	label := strings.TrimSpace(raw)
	if utf8.RuneCountInString(label) < minLabelLen {
		return "", errors.Wrapf(ErrDiagnosisLabel, "%q", label)
	}
	return label, nil
}

// splitClues splits a clue list on any of seps, dropping empty items and
// the sentence punctuation that closes the section.
func splitClues(list, seps string) []string {
	raw := strings.FieldsFunc(list, func(r rune) bool { return strings.ContainsRune(seps, r) })
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(c), ".!?"))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// scanner is a minimal cursor over a single differential block.
type scanner struct {
	src string
	pos int
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

func (s *scanner) acceptFold(lit string) bool {
	end := s.pos + len(lit)
	if end > len(s.src) || !strings.EqualFold(s.src[s.pos:end], lit) {
		return false
	}
	s.pos = end
	return true
}

func (s *scanner) number() (int, bool) {
	start := s.pos
	n := 0
	for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
		n = n*10 + int(s.src[s.pos]-'0')
		s.pos++
	}
	return n, s.pos > start
}

// rankMarker consumes "Dx<rank>:" and fails unless the number equals rank.
func (s *scanner) rankMarker(rank int) error {
	s.skipSpace()
	if !s.acceptFold("dx") {
		return errors.Wrap(ErrRankMarker, "missing Dx marker")
	}
	s.skipSpace()
	n, ok := s.number()
	if !ok {
		return errors.Wrap(ErrRankMarker, "missing rank number")
	}
	if n != rank {
		return errors.Wrapf(ErrRankMarker, "got Dx%d at position %d", n, rank)
	}
	s.skipSpace()
	if !s.acceptFold(":") {
		return errors.Wrapf(ErrRankMarker, "missing colon after Dx%d", n)
	}
	return nil
}

func (s *scanner) rest() string {
	return s.src[s.pos:]
}
