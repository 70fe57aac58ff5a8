package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/elabql/internal/compiler"
)

// RuntimeError represents a failure detected by the engine around
// elaboration rather than by the elaborator itself.
//
// Runtime errors include:
//   - Parse failure: query text is not in the supported subset
//   - Invariant violation: elaborated output is not well scoped
//   - Batch limit: a batch exceeds the configured size
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Name identifies the affected query source.
	Name string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeParse indicates query text that does not parse.
	ErrCodeParse RuntimeErrorCode = "PARSE_ERROR"

	// ErrCodeInvariant indicates elaborated output that fails validation.
	ErrCodeInvariant RuntimeErrorCode = "INVARIANT_VIOLATION"

	// ErrCodeBatchLimit indicates a batch larger than the engine accepts.
	ErrCodeBatchLimit RuntimeErrorCode = "BATCH_LIMIT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (query=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsParseError returns true if the error is a parse failure.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeParse
	}
	return false
}

// IsInvariantError returns true if the error is an output invariant
// violation.
func IsInvariantError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvariant
	}
	return false
}

// ErrorCode returns the code to record for err: the elaborator's E2xx code
// when there is one, otherwise the runtime error code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := compiler.ErrorCode(err); code != "" {
		return code
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "UNKNOWN"
}

// NewParseError wraps a parser failure for the named source.
func NewParseError(name string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeParse,
		Message: err.Error(),
		Name:    name,
	}
}

// NewInvariantError reports every violated output invariant at once.
func NewInvariantError(name string, violations []compiler.ValidationError) *RuntimeError {
	msgs := make([]string, len(violations))
	details := make(map[string]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
		details[v.Code] = v.Message
	}
	return &RuntimeError{
		Code:    ErrCodeInvariant,
		Message: strings.Join(msgs, "; "),
		Name:    name,
		Details: details,
	}
}

// NewBatchLimitError creates a RuntimeError for an oversized batch.
func NewBatchLimitError(size, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBatchLimit,
		Message: fmt.Sprintf("batch of %d queries exceeds limit %d", size, limit),
		Details: map[string]string{
			"size":  fmt.Sprintf("%d", size),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}
