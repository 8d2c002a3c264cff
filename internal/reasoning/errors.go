package reasoning

import "github.com/cockroachdb/errors"

// Structural failures. Every one of them makes a candidate invalid and sends
// the orchestrator into another attempt; none is shown to the end user.
var (
	ErrEmptyOutput         = errors.New("empty output")
	ErrUnparseable         = errors.New("sections missing, duplicated or out of order")
	ErrSectionEmpty        = errors.New("section is empty")
	ErrSectionUnterminated = errors.New("section does not end with sentence punctuation")
	ErrTruncated           = errors.New("completion stopped at the token limit")

	ErrBlockCount        = errors.New("differentials must contain exactly 3 blocks")
	ErrBlockSyntax       = errors.New("malformed differential block")
	ErrRankMarker        = errors.New("rank marker out of sequence")
	ErrDiagnosisLabel    = errors.New("diagnosis label too short")
	ErrPosteriorInvalid  = errors.New("invalid posterior")
	ErrPosteriorOrder    = errors.New("posteriors not strictly decreasing")
	ErrHierarchyInvalid  = errors.New("invalid hierarchy tag")
	ErrHierarchyMismatch = errors.New("hierarchy tag does not match rank")
	ErrSupportingClues   = errors.New("fewer than 3 supporting clues")
	ErrOpposingClues     = errors.New("fewer than 1 opposing clue")

	ErrUnknownSchema = errors.New("unknown schema version")
	ErrInvalidCase   = errors.New("invalid case input")
)

// Orchestration outcomes.
var (
	ErrCandidateRejected = errors.New("candidate rejected")
	ErrTransport         = errors.New("completion transport failure")
)
