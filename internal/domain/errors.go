package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrSchemaNotFound   = errors.New("schema not found")
	ErrRunNotFound      = errors.New("processing run not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")

	// Per-document pipeline failures.
	ErrMalformedInput            = errors.New("malformed input markup")
	ErrStructuralExtractionEmpty = errors.New("structural extraction produced no sections")
	ErrLLMValidation             = errors.New("llm output failed validation")
	ErrInvalidNormalizedDocument = errors.New("normalized document is invalid")

	// Run-level failures.
	ErrPersistence            = errors.New("persistence failure")
	ErrServiceBudgetExhausted = errors.New("external service retry budget exhausted")
)

// IsTerminalInput reports whether err means the input itself can never be
// processed, so retrying the document is pointless.
func IsTerminalInput(err error) bool {
	return errors.Is(err, ErrMalformedInput) || errors.Is(err, ErrNotFound)
}
