// Package errors provides standardized error handling for BPMN workflow
// integration and the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Business errors: never retried, thrown as BPMN errors.
const (
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeStudentNotFound        ErrorCode = "STUDENT_NOT_FOUND"
	ErrCodeUniversityNotFound     ErrorCode = "UNIVERSITY_NOT_FOUND"
	ErrCodeNotShortlisted         ErrorCode = "NOT_SHORTLISTED"
	ErrCodeAlreadyShortlisted     ErrorCode = "ALREADY_SHORTLISTED"
	ErrCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	ErrCodeAccountNotFound        ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrCodeContactUnavailable     ErrorCode = "CONTACT_UNAVAILABLE"
)

// Technical errors: retried before the incident is raised.
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout            ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeProgressWriteFailed      ErrorCode = "PROGRESS_WRITE_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeBrokerUnavailable        ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout            ErrorCode = "BROKER_TIMEOUT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

func NewSchemaValidationFailedError(details string) *StandardError {
	return newError(ErrCodeSchemaValidationFailed, "Input failed schema validation", details, false)
}

func NewStudentNotFoundError(studentID string) *StandardError {
	return newError(ErrCodeStudentNotFound, "Student profile not found",
		fmt.Sprintf("studentId: %s", studentID), false)
}

func NewUniversityNotFoundError(universityID string) *StandardError {
	return newError(ErrCodeUniversityNotFound, "University not found",
		fmt.Sprintf("universityId: %s", universityID), false)
}

func NewAccountNotFoundError(actorID string) *StandardError {
	return newError(ErrCodeAccountNotFound, "Account not found",
		fmt.Sprintf("actorId: %s", actorID), false)
}

// NewNotShortlistedError is returned when a progress record is required but
// the student never shortlisted the university.
func NewNotShortlistedError(studentID, universityID string) *StandardError {
	return newError(ErrCodeNotShortlisted, "University is not in the student's shortlist",
		fmt.Sprintf("studentId: %s, universityId: %s", studentID, universityID), false)
}

func NewAlreadyShortlistedError(studentID, universityID string) *StandardError {
	return newError(ErrCodeAlreadyShortlisted, "University already shortlisted",
		fmt.Sprintf("studentId: %s, universityId: %s", studentID, universityID), false)
}

func NewPermissionDeniedError(actorID, studentID string) *StandardError {
	return newError(ErrCodePermissionDenied, "Not allowed to modify this student's applications",
		fmt.Sprintf("actorId: %s, studentId: %s", actorID, studentID), false)
}

// NewContactUnavailableError is returned when a reminder has no address to go to.
func NewContactUnavailableError(studentID, channel string) *StandardError {
	return newError(ErrCodeContactUnavailable, "Student has no contact for channel",
		fmt.Sprintf("studentId: %s, channel: %s", studentID, channel), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Search query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

func NewProgressWriteFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeProgressWriteFailed, "Failed to save application progress",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewBrokerTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerTimeout, "Workflow broker timeout",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes not
// listed fall back to their own value.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeSchemaValidationFailed:   "INVALID_INPUT",
	ErrCodeStudentNotFound:          "STUDENT_NOT_FOUND",
	ErrCodeUniversityNotFound:       "UNIVERSITY_NOT_FOUND",
	ErrCodeAccountNotFound:          "PERMISSION_DENIED",
	ErrCodeNotShortlisted:           "NOT_SHORTLISTED",
	ErrCodeAlreadyShortlisted:       "ALREADY_SHORTLISTED",
	ErrCodePermissionDenied:         "PERMISSION_DENIED",
	ErrCodeContactUnavailable:       "CONTACT_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeProgressWriteFailed:      "PROGRESS_WRITE_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeProgressWriteFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeBrokerTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError. Anything else becomes a
// non-retryable INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the status returned by the HTTP API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeSchemaValidationFailed:
		return http.StatusBadRequest
	case ErrCodePermissionDenied, ErrCodeAccountNotFound:
		return http.StatusForbidden
	case ErrCodeStudentNotFound, ErrCodeUniversityNotFound, ErrCodeNotShortlisted:
		return http.StatusNotFound
	case ErrCodeAlreadyShortlisted:
		return http.StatusConflict
	case ErrCodeContactUnavailable:
		return http.StatusUnprocessableEntity
	case ErrCodeQueryTimeout, ErrCodeSearchTimeout, ErrCodeBrokerTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeInternal:
		return http.StatusInternalServerError
	}
	if IsRetryableErrorCode(code) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PERMISSION") || strings.Contains(codeStr, "ACCOUNT"):
		return "AUTHORIZATION"
	case strings.Contains(codeStr, "SHORTLIST") || strings.Contains(codeStr, "NOT_FOUND"):
		return "BUSINESS"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "PROGRESS"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "BROKER"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "CONTACT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
