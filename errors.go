package deepagent

import "fmt"

// ErrorKind tags a StepError with its place in the error taxonomy (spec.md
// section 7). It governs propagation: adapters retry some transient external
// errors (the search adapters retry HTTP 429) and return permanent external
// errors without retry; a permanent external error that reaches Run ends the
// run; contract violations are recoverable at step granularity; budget
// exhaustion is not an error until BeastMode also exhausts; fatal errors
// abort the run.
type ErrorKind string

const (
	KindTransientExternal  ErrorKind = "transient_external"
	KindPermanentExternal  ErrorKind = "permanent_external"
	KindContractViolation  ErrorKind = "contract_violation"
	KindBudgetExhaustion   ErrorKind = "budget_exhaustion"
	KindFatal              ErrorKind = "fatal"
)

// StepError is the error type surfaced by adapters and the step executor.
// It always wraps an underlying cause so errors.Is/errors.As keep working
// through it, matching the teacher's fmt.Errorf("...: %w", err) idiom.
type StepError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StepError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewStepError constructs a StepError, wrapping err with %w semantics.
func NewStepError(kind ErrorKind, op string, err error) *StepError {
	return &StepError{Kind: kind, Op: op, Err: fmt.Errorf("%s: %w", op, err)}
}

// IsFatal reports whether err (or something it wraps) is a fatal StepError.
// Fatal errors abort the run outright, as do permanent external errors
// that reach Run (see IsPermanentExternal); every other kind is logged,
// recorded to the diary, and the run continues.
func IsFatal(err error) bool {
	var se *StepError
	if ok := asStepError(err, &se); ok {
		return se.Kind == KindFatal
	}
	return false
}

// IsContractViolation reports whether err is a StepError tagged
// ContractViolation, e.g. an LLM response that failed schema validation.
func IsContractViolation(err error) bool {
	var se *StepError
	if ok := asStepError(err, &se); ok {
		return se.Kind == KindContractViolation
	}
	return false
}

// IsTransient reports whether err is a StepError tagged TransientExternal,
// the class of error an adapter's own retry policy should absorb.
func IsTransient(err error) bool {
	var se *StepError
	if ok := asStepError(err, &se); ok {
		return se.Kind == KindTransientExternal
	}
	return false
}

// IsPermanentExternal reports whether err is a StepError tagged
// PermanentExternal, e.g. an auth failure or a 4xx from a search/read
// provider that no retry will fix. The CLI maps this to a distinct exit
// code (spec.md 6) so callers can tell "the agent failed to find an answer"
// apart from "a dependency is unusable."
func IsPermanentExternal(err error) bool {
	var se *StepError
	if ok := asStepError(err, &se); ok {
		return se.Kind == KindPermanentExternal
	}
	return false
}

func asStepError(err error, target **StepError) bool {
	for err != nil {
		if se, ok := err.(*StepError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
