// Package errors provides standardized error handling for tool invocations and
// their mapping onto Zeebe job failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInputParsingFailed   ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeToolNotFound         ErrorCode = "TOOL_NOT_FOUND"
	ErrCodeForecastRangeInvalid ErrorCode = "FORECAST_RANGE_INVALID"
	ErrCodeGeocodeFailed        ErrorCode = "GEOCODE_FAILED"
	ErrCodeForecastFetchFailed  ErrorCode = "FORECAST_FETCH_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeBusinessRule           ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
}

// HasCode reports whether err (or anything it wraps) is a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// AsStandard returns the StandardError inside err, or nil.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError reports tool input that does not match the tool schema.
// fields lists the offending parameter names in the order they were reported.
func NewValidationFailedError(toolName string, fields []string, messages []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Input validation failed for tool '%s'", toolName),
		Details:   strings.Join(messages, "; "),
		Retryable: false,
		Metadata: map[string]interface{}{
			"tool":   toolName,
			"fields": fields,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewInputParsingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputParsingFailed,
		Message:   "Failed to parse tool input",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewToolNotFoundError(name string, available []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolNotFound,
		Message:   fmt.Sprintf("Unknown tool '%s'", name),
		Details:   fmt.Sprintf("available tools: %s", strings.Join(available, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForecastRangeError is raised locally, before any network call.
func NewForecastRangeError(dayOffset, maxDays int) *StandardError {
	return &StandardError{
		Code:      ErrCodeForecastRangeInvalid,
		Message:   fmt.Sprintf("Days ahead must be between 0 and %d", maxDays),
		Details:   fmt.Sprintf("daysAhead: %d", dayOffset),
		Retryable: false,
		Metadata: map[string]interface{}{
			"daysAhead": dayOffset,
			"maxDays":   maxDays,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewGeocodeError(postalCode string, retryable bool, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGeocodeFailed,
		Message:   fmt.Sprintf("Could not resolve coordinates for zipcode %s", postalCode),
		Details:   err.Error(),
		Retryable: retryable,
		Metadata:  map[string]interface{}{"zipcode": postalCode},
		Timestamp: time.Now().UTC(),
	}
}

func NewForecastFetchError(retryable bool, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeForecastFetchFailed,
		Message:   "Failed to fetch weather forecast",
		Details:   err.Error(),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError reports a failed send on channel. delivered
// lists channels that already went out for the same request; a partial
// delivery is not retryable, since resolving the incident would send those again.
func NewNotificationSendFailedError(channel string, delivered []string, err error) *StandardError {
	details := fmt.Sprintf("channel: %s, error: %s", channel, err.Error())
	if len(delivered) > 0 {
		details += fmt.Sprintf(", already delivered: %s", strings.Join(delivered, ", "))
	}
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   details,
		Retryable: len(delivered) == 0,
		Metadata: map[string]interface{}{
			"channel":           channel,
			"deliveredChannels": append([]string{}, delivered...),
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusinessRule,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Tool invocations get a single attempt, so Retries is always zero.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if fields, ok := stdErr.Metadata["fields"]; ok {
		vars["invalidFields"] = fields
	}
	if delivered, ok := stdErr.Metadata["deliveredChannels"]; ok {
		vars["deliveredChannels"] = delivered
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        0,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING") || strings.Contains(codeStr, "RANGE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "GEOCODE"):
		return "GEOCODE"
	case strings.Contains(codeStr, "FORECAST"):
		return "FORECAST"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TOOL"):
		return "TOOL"
	default:
		return "OTHER"
	}
}
