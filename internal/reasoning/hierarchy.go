package reasoning

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type HierarchyTag string

const (
	RootCause              HierarchyTag = "root-cause"
	IntermediateMechanism  HierarchyTag = "intermediate-mechanism"
	DownstreamComplication HierarchyTag = "downstream-complication"
)

// expectedHierarchy is the tag each rank must carry, indexed by rank-1.
var expectedHierarchy = [3]HierarchyTag{RootCause, IntermediateMechanism, DownstreamComplication}

// hierarchyAliases is keyed on the lowercase tag with every separator removed.
var hierarchyAliases = map[string]HierarchyTag{
	"rootcause":        RootCause,
	"root":             RootCause,
	"primaryetiology":  RootCause,
	"primarycause":     RootCause,
	"underlyingcause":  RootCause,
	"etiology":         RootCause,
	"aetiology":        RootCause,
	"primaryaetiology": RootCause,

	"intermediatemechanism":     IntermediateMechanism,
	"intermediate":              IntermediateMechanism,
	"mechanism":                 IntermediateMechanism,
	"pathophysiologicmechanism": IntermediateMechanism,
	"mediatingmechanism":        IntermediateMechanism,
	"secondarymechanism":        IntermediateMechanism,

	"downstreamcomplication": DownstreamComplication,
	"downstream":             DownstreamComplication,
	"complication":           DownstreamComplication,
	"consequence":            DownstreamComplication,
	"sequela":                DownstreamComplication,
	"secondarycomplication":  DownstreamComplication,
}

// NormalizeHierarchy maps a free-form tag such as "Root Cause" or
// "primary_etiology" onto one of the three canonical tags.
func NormalizeHierarchy(tag string) (HierarchyTag, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '_', '/', '.':
			return -1
		}
		return r
	}, strings.ToLower(tag))
	if h, ok := hierarchyAliases[key]; ok {
		return h, nil
	}
	return "", errors.Wrapf(ErrHierarchyInvalid, "unrecognized hierarchy tag %q", tag)
}
