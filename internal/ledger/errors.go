package ledger

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the ledger and by stores. Messages are safe to
// show to callers.
var (
	ErrNotFound          = errors.New("expenditure not found")
	ErrNotFoundOrSettled = errors.New("expenditure not found or already settled")
	ErrSplitNotFound     = errors.New("split not found for this user")
	ErrSplitAlreadyPaid  = errors.New("split already paid")
	ErrForbidden         = errors.New("only the owner can modify this expenditure")
	ErrSplitSumMismatch  = errors.New("splits do not sum to total")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every structural problem found in a write.
type ValidationError struct {
	Fields []FieldError
	causes []error
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// addCause records a failure for field that also matches cause under errors.Is.
func (e *ValidationError) addCause(field string, cause error) {
	e.Add(field, cause.Error())
	e.causes = append(e.causes, cause)
}

// Merge appends the failures of other.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Fields = append(e.Fields, other.Fields...)
	e.causes = append(e.causes, other.causes...)
}

// Has reports whether a failure was recorded for field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns e as an error when it holds failures, otherwise nil.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.causes
}
