package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategorySnapshot      ErrorCategory = "snapshot"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategorySimulation    ErrorCategory = "simulation"
	CategoryAnalysis      ErrorCategory = "analysis"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"
	CodeDirectoryError ErrorCode = "directory_error"

	// Snapshot errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeDecodeError   ErrorCode = "decode_error"
	CodeInvalidRecord ErrorCode = "invalid_record"
	CodeEmptySnapshot ErrorCode = "empty_snapshot"

	// Validation errors
	CodeInvalidAmount  ErrorCode = "invalid_amount"
	CodeInvalidDate    ErrorCode = "invalid_date"
	CodeMissingField   ErrorCode = "missing_field"
	CodeOutOfRange     ErrorCode = "out_of_range"
	CodeInvalidHorizon ErrorCode = "invalid_horizon"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeMissingConfig  ErrorCode = "missing_config"
	CodeConfigConflict ErrorCode = "config_conflict"

	// Simulation errors
	CodeSimulationFailed ErrorCode = "simulation_failed"
	CodeDataInconsistent ErrorCode = "data_inconsistent"
	CodeScenarioInvalid  ErrorCode = "scenario_invalid"

	// Analysis errors
	CodeAnalysisFailed   ErrorCode = "analysis_failed"
	CodeInsufficientData ErrorCode = "insufficient_data"

	// Internal errors
	CodeUnexpectedError   ErrorCode = "unexpected_error"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
)

// CashflowError is the base error type for all application errors
type CashflowError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *CashflowError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CashflowError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *CashflowError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategorySnapshot, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategorySimulation, CategoryAnalysis, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *CashflowError) WithContext(key string, value interface{}) *CashflowError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *CashflowError) WithSuggestion(suggestion string) *CashflowError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CashflowError
func New(category ErrorCategory, code ErrorCode, message string) *CashflowError {
	return &CashflowError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with CashflowError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *CashflowError {
	if err == nil {
		return nil
	}

	return &CashflowError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file integrity and try using a backup copy"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// SnapshotError creates an error for a malformed financial snapshot
func SnapshotError(code ErrorCode, file string, section string, detail string, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid snapshot format in %s: %s", file, detail)
		suggestion = "ensure the snapshot is a JSON document with the expected sections"
	case CodeDecodeError:
		message = fmt.Sprintf("failed to decode snapshot %s: %s", file, detail)
		suggestion = "check that the file contains valid UTF-8 encoded JSON"
	case CodeInvalidRecord:
		message = fmt.Sprintf("invalid record in snapshot %s, section '%s': %s", file, section, detail)
		suggestion = "correct the record or remove it from the snapshot"
	case CodeEmptySnapshot:
		message = fmt.Sprintf("snapshot %s contains no accounts", file)
		suggestion = "a forecast needs at least the accounts section populated"
	default:
		message = fmt.Sprintf("snapshot error in %s", file)
		suggestion = "check the snapshot contents and try again"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategorySnapshot, code, message)
	} else {
		result = New(CategorySnapshot, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("section", section).
		WithContext("detail", detail)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or YYYY-MM-DD HH:MM:SS"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	case CodeInvalidHorizon:
		message = fmt.Sprintf("invalid forecast horizon: %v", value)
		suggestion = "use a horizon between 1 and 1095 days"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeConfigConflict:
		message = fmt.Sprintf("configuration conflict with setting '%s': %v", setting, value)
		suggestion = "resolve the conflicting settings or use default values"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// SimulationError creates a simulation-related error
func SimulationError(code ErrorCode, operation string, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeSimulationFailed:
		message = fmt.Sprintf("simulation failed during %s", operation)
		suggestion = "check the input data and forecast configuration"
	case CodeDataInconsistent:
		message = fmt.Sprintf("data inconsistency detected during %s", operation)
		suggestion = "verify account, loan and payment references are consistent"
	case CodeScenarioInvalid:
		message = fmt.Sprintf("invalid stress scenario in %s", operation)
		suggestion = "check scenario percentages, basis points and shock amounts"
	default:
		message = fmt.Sprintf("simulation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategorySimulation, code, message)
	} else {
		result = New(CategorySimulation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// AnalysisError creates an analysis-related error
func AnalysisError(code ErrorCode, operation string, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeAnalysisFailed:
		message = fmt.Sprintf("analysis failed during %s", operation)
		suggestion = "check the forecast output feeding the analyser"
	case CodeInsufficientData:
		message = fmt.Sprintf("insufficient data for %s", operation)
		suggestion = "provide more transaction history or relax the configuration"
	default:
		message = fmt.Sprintf("analysis error during %s", operation)
		suggestion = "review the data and configuration"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategoryAnalysis, code, message)
	} else {
		result = New(CategoryAnalysis, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *CashflowError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	case CodeResourceExhausted:
		message = fmt.Sprintf("resource exhausted during %s", operation)
		suggestion = "try reducing the horizon or scenario count"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	var result *CashflowError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*CashflowError      `json:"errors"`
	SampleErrors []*CashflowError      `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*CashflowError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*CashflowError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsCashflowError checks if an error is a CashflowError
func IsCashflowError(err error) bool {
	_, ok := err.(*CashflowError)
	return ok
}

// AsCashflowError extracts a CashflowError from an error chain
func AsCashflowError(err error) (*CashflowError, bool) {
	var cashflowErr *CashflowError
	if errors.As(err, &cashflowErr) {
		return cashflowErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a CashflowError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *CashflowError {
	if err == nil {
		return nil
	}

	if cashflowErr, ok := AsCashflowError(err); ok {
		return cashflowErr
	}

	return Wrap(err, category, code, message)
}
