// Package errors provides standardized error handling for the assistant pipeline.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Intent classification / language-model service
	ErrCodeIntentClassificationFailed ErrorCode = "INTENT_CLASSIFICATION_FAILED"
	ErrCodeLLMAPITimeout              ErrorCode = "LLM_API_TIMEOUT"

	// Semantic retrieval / embedding service
	ErrCodeEmbeddingFailed    ErrorCode = "EMBEDDING_FAILED"
	ErrCodeEmbeddingTimeout   ErrorCode = "EMBEDDING_API_TIMEOUT"
	ErrCodeSemanticIndexEmpty ErrorCode = "SEMANTIC_INDEX_EMPTY"

	// Query building and execution
	ErrCodeUnsupportedIntent    ErrorCode = "UNSUPPORTED_INTENT"
	ErrCodeInvalidFilter        ErrorCode = "INVALID_FILTER"
	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout         ErrorCode = "QUERY_TIMEOUT"

	// Supporting infrastructure
	ErrCodeContextStoreFailed ErrorCode = "CONTEXT_STORE_FAILED"
	ErrCodeAuditWriteFailed   ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
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

// AsStandard extracts a *StandardError from err, or nil.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// CodeOf returns the error code for err, or "INTERNAL_ERROR" for plain errors.
func CodeOf(err error) ErrorCode {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}

// ==========================
// 2. Error Constructors
// ==========================

// NewIntentClassificationFailedError marks a failed language-model call.
// Retryable: the deterministic rule table takes over, so the pipeline treats
// this as recoverable.
func NewIntentClassificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentClassificationFailed,
		Message:   "Language-model intent classification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMAPITimeoutError marks a language-model call that exceeded its deadline.
func NewLLMAPITimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMAPITimeout,
		Message:   "Language-model service timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError marks a failed embedding-service call.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding service call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingTimeoutError marks an embedding call that exceeded its deadline.
func NewEmbeddingTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingTimeout,
		Message:   "Embedding service timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedIntentError marks an intent with no plan template.
func NewUnsupportedIntentError(intent string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedIntent,
		Message:   "No query plan template for intent",
		Details:   fmt.Sprintf("intent: %s", intent),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterError marks an entity value that cannot be mapped to an
// allow-listed column value.
func NewInvalidFilterError(field, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilter,
		Message:   "Entity value not mappable to an allow-listed filter",
		Details:   fmt.Sprintf("field: %s, value: %s", field, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError marks a relational-store failure. Fatal for
// the request; surfaced to the user only as a generic apology.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Query execution against the store failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError marks a store read that exceeded its deadline.
func NewQueryTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Query against the store timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewContextStoreFailedError marks a session-context read/write failure.
func NewContextStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextStoreFailed,
		Message:   "Conversation context store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError marks an audit-sink append failure.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError marks a malformed inbound request.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
