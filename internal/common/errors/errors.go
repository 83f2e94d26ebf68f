// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Auction lifecycle and offer errors
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuctionClosed    ErrorCode = "AUCTION_CLOSED"
	ErrCodeFeeNotAccepted   ErrorCode = "FEE_NOT_ACCEPTED"
	ErrCodeDuplicateOffer   ErrorCode = "DUPLICATE_OFFER"
	ErrCodeAlreadyDecided   ErrorCode = "ALREADY_DECIDED"
	ErrCodeNotEligible      ErrorCode = "NOT_ELIGIBLE"
	ErrCodeStateConflict    ErrorCode = "STATE_CONFLICT"

	ErrCodeAuthorizationFailed ErrorCode = "AUTHORIZATION_FAILED"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"

	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeQueryTimeout       ErrorCode = "QUERY_TIMEOUT"
	ErrCodeIndexWriteFailed   ErrorCode = "INDEX_WRITE_FAILED"
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

// Is lets callers match on the code with errors.Is against a sentinel
// StandardError carrying only a code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if !errors.As(target, &std) {
		return false
	}
	return e.Code == std.Code
}

// CodeOf extracts the ErrorCode from an error chain, or "" if the error is
// not a StandardError.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return ""
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

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable payload validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Application payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuctionClosedError creates a non-retryable auction window error.
func NewAuctionClosedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuctionClosed,
		Message:   "Auction window is closed",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFeeNotAcceptedError creates a non-retryable commission acknowledgment error.
func NewFeeNotAcceptedError(bidderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeeNotAccepted,
		Message:   "Platform commission terms must be accepted before submitting an offer",
		Details:   fmt.Sprintf("bidderId: %s", bidderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateOfferError creates a non-retryable duplicate offer error.
func NewDuplicateOfferError(applicationID, bidderID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateOffer,
		Message:   "Offer already exists for this bidder and application",
		Details:   fmt.Sprintf("applicationId: %s, bidderId: %s", applicationID, bidderID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadyDecidedError creates a non-retryable error for a losing
// concurrent selection.
func NewAlreadyDecidedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyDecided,
		Message:   "Application is already completed with a selected offer",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotEligibleError creates a non-retryable error for an offer that cannot
// be selected.
func NewNotEligibleError(offerID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotEligible,
		Message:   "Offer is not eligible for selection",
		Details:   fmt.Sprintf("offerId: %s, %s", offerID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateConflictError creates a non-retryable illegal transition error.
func NewStateConflictError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateConflict,
		Message:   "Status transition not permitted from current state",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthorizationFailedError creates a non-retryable role/ownership error.
func NewAuthorizationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthorizationFailed,
		Message:   "Caller is not authorized for this operation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResourceNotFoundError creates a non-retryable unknown id error.
func NewResourceNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnavailableError creates a retryable storage error.
func NewStorageUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "Storage operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Storage query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexWriteFailedError creates a retryable analytics index error.
func NewIndexWriteFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexWriteFailed,
		Message:   "Analytics index write failed",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The two
// sets are identical by convention so BPMN boundary events can match on the
// codes surfaced to callers.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed:    "VALIDATION_FAILED",
	ErrCodeAuctionClosed:       "AUCTION_CLOSED",
	ErrCodeFeeNotAccepted:      "FEE_NOT_ACCEPTED",
	ErrCodeDuplicateOffer:      "DUPLICATE_OFFER",
	ErrCodeAlreadyDecided:      "ALREADY_DECIDED",
	ErrCodeNotEligible:         "NOT_ELIGIBLE",
	ErrCodeStateConflict:       "STATE_CONFLICT",
	ErrCodeAuthorizationFailed: "AUTHORIZATION_FAILED",
	ErrCodeResourceNotFound:    "RESOURCE_NOT_FOUND",
	ErrCodeStorageUnavailable:  "STORAGE_UNAVAILABLE",
	ErrCodeQueryTimeout:        "QUERY_TIMEOUT",
	ErrCodeIndexWriteFailed:    "INDEX_WRITE_FAILED",
}

// GetRetryCount returns the recommended retry count per error code.
// Business-rule violations and authorization failures are never retried;
// transient storage errors get a bounded retry budget.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageUnavailable, ErrCodeIndexWriteFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
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

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTHORIZATION"):
		return "AUTHORIZATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "INDEX"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "STATE_CONFLICT"
	}
}
