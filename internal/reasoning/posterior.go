package reasoning

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// posteriorNumber is a plain unsigned decimal; ParseFloat alone would also
// take NaN, Inf and hex floats.
var posteriorNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// NormalizePosterior turns a posterior token into a probability in [0,1].
// Accepted forms are a bare decimal in [0,1], a percentage with a trailing
// "%", or a bare number in (1,100] read as a percentage.
func NormalizePosterior(token string) (float64, error) {
	s := strings.TrimSpace(token)
	s = strings.TrimRight(s, ".")
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if s == "" {
		return 0, errors.Wrapf(ErrPosteriorInvalid, "empty posterior %q", token)
	}
	if !posteriorNumber.MatchString(s) {
		return 0, errors.Wrapf(ErrPosteriorInvalid, "posterior %q is not a decimal number", token)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrPosteriorInvalid, "posterior %q is not a number", token)
	}
	if percent || v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, errors.Wrapf(ErrPosteriorInvalid, "posterior %q outside [0,1]", token)
	}
	return v, nil
}
