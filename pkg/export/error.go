package export

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/model"
)

// ErrorCategory defines categories of errors during export
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryValidation
	ErrorCategoryRowLevel
	ErrorCategoryTableLevel
	ErrorCategoryConnectionLevel
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryRowLevel:
		return "RowLevel"
	case ErrorCategoryTableLevel:
		return "TableLevel"
	case ErrorCategoryConnectionLevel:
		return "ConnectionLevel"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during export
type ErrorRecord struct {
	Category    ErrorCategory
	Sink        string
	TableName   string
	Error       error
	Message     string // Derived from Error but stored for reporting
	Timestamp   time.Time
	Recoverable bool
}

// NewErrorRecord creates a new error record stamped with at
func NewErrorRecord(err error, category ErrorCategory, at time.Time) ErrorRecord {
	record := ErrorRecord{
		Category:    category,
		Error:       err,
		Timestamp:   at,
		Recoverable: category < ErrorCategoryTableLevel,
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithTable adds sink and table information to the error record
func (r ErrorRecord) WithTable(sink, table string) ErrorRecord {
	r.Sink = sink
	r.TableName = table
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Sink != "" {
		sb.WriteString(fmt.Sprintf("Sink: %s ", r.Sink))
	}

	if r.TableName != "" {
		sb.WriteString(fmt.Sprintf("Table: %s ", r.TableName))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return strings.TrimSpace(sb.String())
}

// ErrorHandler collects export errors and decides when a run must stop
type ErrorHandler struct {
	logger          *zap.Logger
	errorThresholds map[ErrorCategory]int
	errorCounts     map[ErrorCategory]int
	sampleErrors    map[ErrorCategory][]ErrorRecord
	sinkErrors      map[string]int
	mu              sync.Mutex
	maxSamples      int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	thresholds := map[ErrorCategory]int{
		ErrorCategoryWarning:         1000,
		ErrorCategoryValidation:      100,
		ErrorCategoryRowLevel:        50,
		ErrorCategoryTableLevel:      5,
		ErrorCategoryConnectionLevel: 2,
		ErrorCategoryCritical:        0,
	}

	return &ErrorHandler{
		logger:          logger,
		errorThresholds: thresholds,
		errorCounts:     make(map[ErrorCategory]int),
		sampleErrors:    make(map[ErrorCategory][]ErrorRecord),
		sinkErrors:      make(map[string]int),
		maxSamples:      5, // Store up to 5 sample errors per category
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var category ErrorCategory
	var netErr net.Error
	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.Canceled):
		category = ErrorCategoryCritical

	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"):
		category = ErrorCategoryConnectionLevel

	case errors.Is(err, model.ErrMissingColumn),
		errors.Is(err, model.ErrTypeMismatch),
		errors.Is(err, model.ErrDuplicateColumn),
		strings.Contains(msg, "constraint"),
		strings.Contains(msg, "invalid"):
		category = ErrorCategoryValidation

	case errors.Is(err, model.ErrMissingTable),
		strings.Contains(msg, "table"),
		strings.Contains(msg, "permission"),
		strings.Contains(msg, "schema"):
		category = ErrorCategoryTableLevel

	default:
		category = ErrorCategoryRowLevel
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}

	return category
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if record.Sink != "" {
		eh.sinkErrors[record.Sink]++
	}

	if eh.logger != nil {
		logLevel := zap.InfoLevel
		switch record.Category {
		case ErrorCategoryWarning, ErrorCategoryConnectionLevel, ErrorCategoryTableLevel:
			logLevel = zap.WarnLevel
		case ErrorCategoryCritical:
			logLevel = zap.ErrorLevel
		}

		eh.logger.Log(logLevel, "Export error",
			zap.String("category", record.Category.String()),
			zap.String("sink", record.Sink),
			zap.String("table", record.TableName),
			zap.String("error", record.Message),
			zap.Bool("recoverable", record.Recoverable))
	}
}

// ShouldAbort reports whether the recorded errors warrant stopping the run:
// any critical error, or connection errors past their threshold
func (eh *ErrorHandler) ShouldAbort() bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	if eh.errorCounts[ErrorCategoryCritical] > eh.errorThresholds[ErrorCategoryCritical] {
		return true
	}
	return eh.errorCounts[ErrorCategoryConnectionLevel] > eh.errorThresholds[ErrorCategoryConnectionLevel]
}

// GetErrorSummary returns the error counts per category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		samples[category] = append([]ErrorRecord(nil), records...)
	}
	return samples
}

// GetSinkErrorCounts returns error counts by sink
func (eh *ErrorHandler) GetSinkErrorCounts() map[string]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	counts := make(map[string]int, len(eh.sinkErrors))
	for sink, count := range eh.sinkErrors {
		counts[sink] = count
	}
	return counts
}

// IsErrorThresholdExceeded checks if any error category has exceeded its threshold
func (eh *ErrorHandler) IsErrorThresholdExceeded() bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	for category, count := range eh.errorCounts {
		threshold, exists := eh.errorThresholds[category]
		if exists && count > threshold {
			return true
		}
	}
	return false
}
