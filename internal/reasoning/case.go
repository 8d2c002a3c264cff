package reasoning

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// CaseInput is one form submission. The binding tags are shared between gin
// request binding and Validate.
type CaseInput struct {
	Age      *int   `json:"age" binding:"required,gte=0,lte=120" validate:"required,gte=0,lte=120"`
	Sex      Sex    `json:"sex" binding:"required,oneof=Male Female" validate:"required,oneof=Male Female"`
	Symptoms string `json:"symptoms" binding:"max=8000" validate:"max=8000"`
	Vitals   string `json:"vitals" binding:"max=4000" validate:"max=4000"`
	Labs     string `json:"labs" binding:"max=8000" validate:"max=8000"`
}

var validate = validator.New()

// Validate checks the bounds on age, the sex enum and free-text sizes.
func (c CaseInput) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Mark(err, ErrInvalidCase)
	}
	return nil
}

// Describe concatenates the form fields into the single case-description
// string handed to the prompt builder.
func (c CaseInput) Describe() string {
	age := 0
	if c.Age != nil {
		age = *c.Age
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Age: %d\n", age)
	fmt.Fprintf(&b, "Sex: %s\n", c.Sex)
	fmt.Fprintf(&b, "Symptoms: %s\n", strings.TrimSpace(c.Symptoms))
	fmt.Fprintf(&b, "Vitals: %s\n", strings.TrimSpace(c.Vitals))
	fmt.Fprintf(&b, "Lab Values: %s\n", strings.TrimSpace(c.Labs))
	return b.String()
}

// IntPtr is a small helper for building CaseInput literals.
func IntPtr(v int) *int { return &v }
