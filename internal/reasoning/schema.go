package reasoning

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// SchemaVersion selects the line format of the TOP 3 DIFFERENTIALS section.
type SchemaVersion string

const (
	// SchemaLinks is the plain triplet: "Dx1: <dx> (links: a; b; c) | Dx2: ...".
	SchemaLinks SchemaVersion = "v1"
	// SchemaPosterior adds posterior, hierarchy and for/against fields, with
	// "||" between blocks and "|" between fields.
	SchemaPosterior SchemaVersion = "v2"

	DefaultSchema = SchemaPosterior
)

func ParseSchemaVersion(s string) (SchemaVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "v2", "posterior":
		return SchemaPosterior, nil
	case "v1", "links":
		return SchemaLinks, nil
	default:
		return "", errors.Wrapf(ErrUnknownSchema, "%q", s)
	}
}

func (v SchemaVersion) blockSeparator() string {
	if v == SchemaLinks {
		return "|"
	}
	return "||"
}

// Template is the exact single-line differential template quoted in prompts.
func (v SchemaVersion) Template() string {
	if v == SchemaLinks {
		return `Dx1: <diagnosis> (links: <finding1>; <finding2>; <finding3>) | ` +
			`Dx2: <diagnosis> (links: <finding1>; <finding2>; <finding3>) | ` +
			`Dx3: <diagnosis> (links: <finding1>; <finding2>; <finding3>)`
	}
	block := func(n, tag string) string {
		return "Dx" + n + ": <diagnosis> | posterior: <0-1> | hierarchy: " + tag +
			" | for: <clue1>; <clue2>; <clue3> | against: <clue1>"
	}
	return block("1", string(RootCause)) + " || " +
		block("2", string(IntermediateMechanism)) + " || " +
		block("3", string(DownstreamComplication))
}
