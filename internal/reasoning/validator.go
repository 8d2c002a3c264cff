package reasoning

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Validator decides whether a model output matches the six-heading schema.
type Validator struct {
	schema SchemaVersion
}

func NewValidator(schema SchemaVersion) *Validator {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Validator{schema: schema}
}

func (v *Validator) Schema() SchemaVersion { return v.schema }

// Validate returns nil when raw passes every structural check. The error
// names the first failing check; callers treat any error as a plain fail.
func (v *Validator) Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyOutput
	}
	sections, ok := ParseSections(raw)
	if !ok {
		return ErrUnparseable
	}
	for _, h := range Headings {
		content := strings.TrimSpace(sections[h])
		if content == "" {
			return errors.Wrapf(ErrSectionEmpty, "%s", h)
		}
		if !endsWithSentence(content) {
			return errors.Wrapf(ErrSectionUnterminated, "%s", h)
		}
	}
	if err := ValidateDifferentials(v.schema, sections[HeadingDifferentials]); err != nil {
		return errors.Wrapf(err, "%s", HeadingDifferentials)
	}
	return nil
}

func (v *Validator) Valid(raw string) bool {
	return v.Validate(raw) == nil
}

func endsWithSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	default:
		return false
	}
}
