package schedule

import (
	"fmt"

	"github.com/nextmv-community/shift-scheduler/validate"
)

// Kind classifies a Run failure per spec.md §7, so a host can decide
// whether to retry, surface validation issues, or page an operator
// without string-matching an error message.
type Kind string

const (
	// KindInvalidInput means the payload failed validate.Validate; the
	// solver was never invoked.
	KindInvalidInput Kind = "invalid_input"
	// KindInfeasible means the solver proved no schedule satisfies every
	// hard constraint.
	KindInfeasible Kind = "infeasible"
	// KindCancelled means the run observed ctx cancellation
	// cooperatively; it is not treated as a failure by callers that
	// expect it (spec.md §7).
	KindCancelled Kind = "cancelled"
	// KindInternal means an unexpected failure inside the core: an
	// overflow-checked arithmetic failure, or a solver-library fault.
	KindInternal Kind = "internal"
)

// Error wraps a Run failure with its Kind and, for KindInvalidInput, the
// full list of validation issues.
type Error struct {
	Kind   Kind
	Issues []validate.Issue
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidInput {
		return fmt.Sprintf("invalid input: %d issue(s)", len(e.Issues))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func invalidInputError(issues []validate.Issue) *Error {
	return &Error{Kind: KindInvalidInput, Issues: issues}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}
