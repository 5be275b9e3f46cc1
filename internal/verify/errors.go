package verify

import "fmt"

// MalformedError reports input that violates the contract this pass
// assumes. It is fatal to the enclosing compilation: the tree or limit
// configuration is structurally wrong, and retrying cannot help.
//
// Verification failure (a kernel exceeding a bound) is never a
// MalformedError; it is a false verdict.
type MalformedError struct {
	// Code identifies the error category.
	Code MalformedErrorCode

	// Message is a human-readable description.
	Message string

	// Subject names the attribute key or limit involved.
	Subject string
}

// MalformedErrorCode categorizes malformed-input errors.
type MalformedErrorCode string

const (
	// ErrCodeBadThreadTarget indicates a thread_extent annotation whose
	// target is not an iteration variable.
	ErrCodeBadThreadTarget MalformedErrorCode = "BAD_THREAD_TARGET"

	// ErrCodeBadThreadExtent indicates a thread_extent annotation whose
	// value is not a constant integer.
	ErrCodeBadThreadExtent MalformedErrorCode = "BAD_THREAD_EXTENT"

	// ErrCodeBadLimit indicates a configured limit whose value is not a
	// constant integer.
	ErrCodeBadLimit MalformedErrorCode = "BAD_LIMIT"
)

// Error implements the error interface.
func (e *MalformedError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (subject=%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func badThreadTarget(got any) *MalformedError {
	return &MalformedError{
		Code:    ErrCodeBadThreadTarget,
		Message: fmt.Sprintf("thread_extent target must be an iter var, got %T", got),
		Subject: "thread_extent",
	}
}

func badThreadExtent(got any) *MalformedError {
	return &MalformedError{
		Code:    ErrCodeBadThreadExtent,
		Message: fmt.Sprintf("thread_extent value must be a constant integer, got %T", got),
		Subject: "thread_extent",
	}
}

func badLimit(name string, got any) *MalformedError {
	return &MalformedError{
		Code:    ErrCodeBadLimit,
		Message: fmt.Sprintf("limit must be a constant integer, got %T", got),
		Subject: name,
	}
}
