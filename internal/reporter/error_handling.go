package reporter

import (
	"fmt"
	"io"
	"os"

	"golang-cashflow-engine/internal/forecast"
	"golang-cashflow-engine/internal/insights"
	"golang-cashflow-engine/internal/optimizer"
	"golang-cashflow-engine/internal/stress"
	"golang-cashflow-engine/pkg/errors"
	"golang-cashflow-engine/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with enhanced error handling
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// WriteSafely renders any supported payload with fallbacks on failure
func (srg *SafeReportGenerator) WriteSafely(payload interface{}, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Info("Starting report generation")

	if err := srg.validateInputs(payload, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	err := srg.writeWithFallback(payload, writer)
	if err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	srg.logger.Info("Report generation completed successfully")
	return nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(payload interface{}, writer io.Writer) error {
	if payload == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"payload",
			nil,
			nil,
		).WithSuggestion("Provide a forecast, optimisation result, stress output or insight list")
	}

	if writer == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"writer",
			nil,
			nil,
		).WithSuggestion("Provide a valid output writer")
	}

	return nil
}

// writeWithFallback renders the payload, retrying in console format when
// the configured format fails
func (srg *SafeReportGenerator) writeWithFallback(payload interface{}, writer io.Writer) error {
	err := srg.dispatch(srg.ReportGenerator, payload, writer)
	if err == nil {
		return nil
	}

	if _, ok := errors.AsCashflowError(err); ok {
		// Unsupported payloads and bad inputs do not become more
		// renderable in another format
		return err
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting fallback")

	if srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}

	return srg.writeWithFormatFallback(payload, writer, err)
}

// writeWithFormatFallback renders the payload in console format after the
// configured format failed
func (srg *SafeReportGenerator) writeWithFormatFallback(payload interface{}, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := srg.dispatch(fallbackGenerator, payload, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return nil
}

// dispatch routes the payload to the matching Write method
func (srg *SafeReportGenerator) dispatch(generator *ReportGenerator, payload interface{}, writer io.Writer) error {
	switch typed := payload.(type) {
	case *forecast.Forecast:
		return generator.WriteForecast(typed, writer)
	case *optimizer.Result:
		return generator.WriteOptimisation(typed, writer)
	case *stress.Output:
		return generator.WriteStress(typed, writer)
	case []insights.Insight:
		return generator.WriteInsights(typed, writer)
	default:
		return errors.ValidationError(
			errors.CodeInvalidFormat,
			"payload_type",
			fmt.Sprintf("%T", payload),
			nil,
		).WithSuggestion("Provide a forecast, optimisation result, stress output or insight list")
	}
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if cashflowErr, ok := errors.AsCashflowError(err); ok {
		return cashflowErr
	}

	return errors.InternalError(
		errors.CodeUnexpectedError,
		"report_generation",
		err,
	).WithSuggestion("Check the output destination and report format settings")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}
