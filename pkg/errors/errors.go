package errors

import "errors"

// Kind classifies a business error for reporting and HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation malformed or missing input; reported per row / per request.
	KindValidation
	// KindNotFound a referenced key does not resolve; recoverable by caller action.
	KindNotFound
	// KindPolicy the request is well formed but violates grading policy; never clamped.
	KindPolicy
	// KindConsistency a persisted invariant is already broken; needs manual remediation.
	KindConsistency
	// KindConflict a concurrent writer won; safe to retry.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy_violation"
	case KindConsistency:
		return "consistency"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a categorised sentinel. Wrap it with fmt.Errorf("%w: ...") to
// attach the offending key; errors.Is keeps matching the sentinel.
type Error struct {
	kind Kind
	msg  string
}

// New creates a categorised sentinel error.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the category of the error.
func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the category of the first categorised error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// ErrOptimisticLock the row was modified by another writer since it was read.
var ErrOptimisticLock = New(KindConflict, "record was modified by another operation, reload and retry")
