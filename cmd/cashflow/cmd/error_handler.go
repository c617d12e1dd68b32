package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and provides user-friendly messages
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	// Log the error
	h.logger.WithError(err).Error("Command failed")

	// Record-level snapshot errors carry their own location detail
	if recordErr, ok := errors.AsRecordError(err); ok {
		return h.handleRecordError(recordErr)
	}

	// Handle CashflowError with detailed information
	if cashflowErr, ok := errors.AsCashflowError(err); ok {
		return h.handleCashflowError(cashflowErr)
	}

	// Handle other error types
	return h.handleGenericError(err)
}

// handleRecordError prints the detailed location of a bad snapshot record
func (h *CLIErrorHandler) handleRecordError(err *errors.RecordError) int {
	fmt.Fprintf(os.Stderr, "%s\n", err.GetDetailedError())
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	return err.GetExitCode()
}

// handleCashflowError handles CashflowError with detailed context
func (h *CLIErrorHandler) handleCashflowError(err *errors.CashflowError) int {
	// Print the main error message
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	// Add context information if available
	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	// Add suggestion if available
	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	// Add category-specific help
	fmt.Fprintf(os.Stderr, "\n%s\n", h.getCategoryHelp(err.Category))

	// Show underlying error in verbose mode
	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-CashflowError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	// Check for common system errors and provide better messages
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(os.Stderr, "Error: Insufficient disk space\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	// Generic error handling
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "\nFor more details, run with the --verbose flag\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have proper permissions to access the file
• Try using a different file or contact your system administrator`

	case errors.CategorySnapshot:
		return `Snapshot error help:
• Verify the snapshot is valid JSON with the expected structure
• Check that amounts are decimal strings without currency symbols
• Ensure dates use YYYY-MM-DD or RFC 3339 format
• Run with --strict off to skip invalid records instead of failing
• Use 'cashflow forecast --help' for the expected snapshot layout`

	case errors.CategoryValidation:
		return `Validation error help:
• Check that all required fields have values
• Verify date formats use YYYY-MM-DD
• Ensure amounts are decimal numbers without currency symbols
• Check that all values are within acceptable ranges`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'cashflow forecast --help' to see all available options
• Try running with default settings first`

	case errors.CategorySimulation:
		return `Simulation error help:
• Check that the snapshot has at least one account
• Try a shorter horizon (--horizon accepts 1 to 1095 days)
• Verify recurring payments and income streams have sane schedules
• Run with --verbose to see which day the simulation failed on`

	case errors.CategoryAnalysis:
		return `Analysis error help:
• The snapshot may not have enough transaction history
• Pattern analysis needs dated, categorised transactions to work with
• Try 'cashflow forecast' first to confirm the snapshot simulates
• Check stress scenario IDs with 'cashflow stress --help'`

	default:
		return `For more help:
• Use 'cashflow --help' for general help
• Use 'cashflow <command> --help' for command-specific help
• Check the documentation for detailed examples
• Report bugs or ask for help on the project repository`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
