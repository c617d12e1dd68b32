package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RecordContext locates one record inside a snapshot document
type RecordContext struct {
	File     string `json:"file,omitempty"`
	Section  string `json:"section"`
	Entry    int    `json:"entry"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// RecordError extends the base CashflowError with the position of the
// failing record and whether the loader can skip past it
type RecordError struct {
	*CashflowError
	Context     *RecordContext `json:"context"`
	Recoverable bool           `json:"recoverable"`
}

// Error implements the error interface with location information
func (e *RecordError) Error() string {
	var parts []string

	parts = append(parts, e.CashflowError.Error())

	if e.Context != nil {
		location := fmt.Sprintf("at %s", e.Context.Section)
		if e.Context.Entry >= 0 {
			location += fmt.Sprintf("[%d]", e.Context.Entry)
		}
		if e.Context.Field != "" {
			location += fmt.Sprintf(" field '%s'", e.Context.Field)
		}
		parts = append(parts, location)
	}

	return strings.Join(parts, " ")
}

// Unwrap exposes the embedded CashflowError to errors.As
func (e *RecordError) Unwrap() error {
	return e.CashflowError
}

// Warning returns the one-line form used in load statistics
func (e *RecordError) Warning() string {
	if e.Context == nil {
		return e.Message
	}

	if e.Context.Entry >= 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: skipped entry %d: %v", e.Context.Section, e.Context.Entry, e.Cause)
		}
		return fmt.Sprintf("%s: skipped entry %d: %s", e.Context.Section, e.Context.Entry, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Context.Section, e.Message)
}

// GetDetailedError returns a detailed multi-line error description
func (e *RecordError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Context != nil {
		if e.Context.File != "" {
			lines = append(lines, fmt.Sprintf("  → File: %s", e.Context.File))
		}
		lines = append(lines, fmt.Sprintf("  → Section: %s", e.Context.Section))
		if e.Context.Entry >= 0 {
			lines = append(lines, fmt.Sprintf("  → Entry: %d", e.Context.Entry))
		}
		if e.Context.Field != "" {
			lines = append(lines, fmt.Sprintf("  → Field: %s", e.Context.Field))
		}
		if e.Context.Value != "" {
			lines = append(lines, fmt.Sprintf("  → Value: '%s'", e.Context.Value))
		}
		if e.Context.Expected != "" {
			lines = append(lines, fmt.Sprintf("  → Expected: %s", e.Context.Expected))
		}
	}

	if e.Cause != nil {
		lines = append(lines, fmt.Sprintf("  → Cause: %v", e.Cause))
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	return strings.Join(lines, "\n")
}

// NewRecordError creates a record-level snapshot error
func NewRecordError(code ErrorCode, context *RecordContext, message string, cause error) *RecordError {
	var base *CashflowError
	if cause != nil {
		base = Wrap(cause, CategorySnapshot, code, message)
	} else {
		base = New(CategorySnapshot, code, message)
	}

	if context != nil {
		base.WithContext("section", context.Section)
		if context.File != "" {
			base.WithContext("file", context.File)
		}
		if context.Entry >= 0 {
			base.WithContext("entry", context.Entry)
		}
		if context.Field != "" {
			base.WithContext("field", context.Field)
		}
	}

	return &RecordError{
		CashflowError: base,
		Context:       context,
		Recoverable:   true,
	}
}

// AsRecordError extracts a RecordError from an error chain
func AsRecordError(err error) (*RecordError, bool) {
	var recordErr *RecordError
	if errors.As(err, &recordErr) {
		return recordErr, true
	}
	return nil, false
}

// WithSuggestion adds a suggestion and returns the RecordError
func (e *RecordError) WithSuggestion(suggestion string) *RecordError {
	e.CashflowError.WithSuggestion(suggestion)
	return e
}

// WithRecoverable sets whether the loader may skip past this error
func (e *RecordError) WithRecoverable(recoverable bool) *RecordError {
	e.Recoverable = recoverable
	return e
}

// Common record error constructors

// InvalidRecordError creates an error for a record that failed to decode
// or validate
func InvalidRecordError(file, section string, entry int, cause error) *RecordError {
	context := &RecordContext{
		File:    file,
		Section: section,
		Entry:   entry,
	}

	message := fmt.Sprintf("invalid record in section '%s', entry %d", section, entry)
	return NewRecordError(CodeInvalidRecord, context, message, cause).
		WithSuggestion("Correct the record or remove it from the snapshot")
}

// DuplicateIDError creates an error for a record reusing an earlier ID
func DuplicateIDError(file, section string, entry int, id string) *RecordError {
	context := &RecordContext{
		File:     file,
		Section:  section,
		Entry:    entry,
		Field:    "id",
		Value:    id,
		Expected: "a unique ID within the section",
	}

	message := fmt.Sprintf("duplicate ID %q in section '%s'", id, section)
	err := NewRecordError(CodeInvalidRecord, context, message, nil).
		WithSuggestion("Give every record in the section its own ID")

	err.Recoverable = false
	return err
}

// DanglingReferenceError creates an error for a record pointing at an
// ID no other section defines. The record itself is still usable, so
// these surface as warnings rather than failures.
func DanglingReferenceError(file, section, recordID, field, kind, target string) *RecordError {
	context := &RecordContext{
		File:     file,
		Section:  section,
		Entry:    -1,
		Field:    field,
		Value:    target,
		Expected: fmt.Sprintf("the ID of a loaded %s", kind),
	}

	message := fmt.Sprintf("%s references unknown %s %q", recordID, kind, target)
	return NewRecordError(CodeDataInconsistent, context, message, nil).
		WithSuggestion("Fix the reference or add the missing record to the snapshot")
}
