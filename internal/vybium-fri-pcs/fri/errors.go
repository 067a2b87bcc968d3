package fri

import "fmt"

// VerificationErrorType classifies verification failures
type VerificationErrorType int

const (
	// ErrInvalidShape means the proof structure does not match the config
	ErrInvalidShape VerificationErrorType = iota
	// ErrInvalidPow means the proof-of-work witness is insufficient
	ErrInvalidPow
	// ErrInvalidOpening means a Merkle inclusion proof failed
	ErrInvalidOpening
	// ErrFoldMismatch means an opened pair contradicts the fold chain
	ErrFoldMismatch
	// ErrFinalValueMismatch means a fold chain missed the final value
	ErrFinalValueMismatch
)

// VerificationError is a typed rejection with a reason
type VerificationError struct {
	Type    VerificationErrorType
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("fri verification failed: %s", e.Message)
}

func newVerificationError(t VerificationErrorType, format string, args ...any) *VerificationError {
	return &VerificationError{Type: t, Message: fmt.Sprintf(format, args...)}
}
