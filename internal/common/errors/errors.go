// Package errors provides standardized error handling for the statistics pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCounterConflict        ErrorCode = "COUNTER_CONFLICT"
	ErrCodeCounterUnavailable     ErrorCode = "COUNTER_UNAVAILABLE"
	ErrCodeInvalidChannel         ErrorCode = "INVALID_CHANNEL"
	ErrCodeInvalidDate            ErrorCode = "INVALID_DATE"
	ErrCodeInvalidAggregationType ErrorCode = "INVALID_AGGREGATION_TYPE"

	ErrCodeAggregationFailed ErrorCode = "AGGREGATION_FAILED"
	ErrCodeRollupFailed      ErrorCode = "ROLLUP_FAILED"
	ErrCodeRankingFailed     ErrorCode = "RANKING_FAILED"
	ErrCodeJobLocked         ErrorCode = "JOB_LOCKED"

	ErrCodeQueryExecutionFailed ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeStoreUnavailable     ErrorCode = "STORE_UNAVAILABLE"
)

// StandardError is the error type carried through the aggregation and query paths.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewCounterConflictError marks a counter key whose increments kept failing
// after the internal retries were spent.
func NewCounterConflictError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCounterConflict,
		Message:   "Queue counter increment kept failing",
		Details:   fmt.Sprintf("key: %s: %v", key, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCounterUnavailableError creates a retryable counter store error.
func NewCounterUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCounterUnavailable,
		Message:   "Queue counter store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidChannelError creates a non-retryable channel validation error.
func NewInvalidChannelError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidChannel,
		Message:   "Unknown visit channel",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDateError creates a non-retryable date format error.
func NewInvalidDateError(date string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDate,
		Message:   "Date must be YYYY-MM-DD",
		Details:   fmt.Sprintf("date: %s", date),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidAggregationTypeError creates a non-retryable admin trigger error.
func NewInvalidAggregationTypeError(aggType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAggregationType,
		Message:   "Unsupported aggregation type",
		Details:   fmt.Sprintf("type: %s", aggType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAggregationFailedError creates a retryable per-branch aggregation error.
func NewAggregationFailedError(branchID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAggregationFailed,
		Message:   "Daily aggregation failed for branch",
		Details:   fmt.Sprintf("branchId: %s, error: %s", branchID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRollupFailedError creates a retryable roll-up error; roll-ups are all-or-nothing.
func NewRollupFailedError(period string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRollupFailed,
		Message:   "Period roll-up failed",
		Details:   fmt.Sprintf("period: %s, error: %s", period, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRankingFailedError creates a retryable ranking error.
func NewRankingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRankingFailed,
		Message:   "Branch ranking update failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewJobLockedError signals another run of the same job holds the period lock.
func NewJobLockedError(job string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobLocked,
		Message:   "Job already running for this period",
		Details:   fmt.Sprintf("job: %s", job),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Statistics query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreUnavailableError creates a retryable storage error.
func NewStoreUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Statistics store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsRetryable reports whether the error (or its cause) is a retryable StandardError.
func IsRetryable(err error) bool {
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			return se.Retryable
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
