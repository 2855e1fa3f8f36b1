// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via `fail()` and `failWith()` in this package). These codes give
// clients a stable, machine-readable error taxonomy that supplements the
// human-readable message.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror HTTP status semantics.
//   - Ledger codes name the rule that rejected the request so clients can
//     branch on them (e.g. show "come back tomorrow" on already_submitted).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "proof_not_submitted",
//	  "message": "proof not submitted"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/alive28-ledger/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Input validation.
	ErrCodeInvalidAddress   = "invalid_address"
	ErrCodeInvalidDay       = "invalid_day"
	ErrCodeEmptyText        = "empty_text"
	ErrCodeInvalidRange     = "invalid_range"
	ErrCodeInvalidMilestone = "invalid_milestone"
	ErrCodeInvalidTimezone  = "invalid_timezone"
	ErrCodeMissingTxHash    = "missing_tx_hash"

	// Ledger state.
	ErrCodeMissingCheckin    = "missing_checkin"
	ErrCodeLogNotFound       = "log_not_found"
	ErrCodeAlreadySubmitted  = "already_submitted"
	ErrCodeAlreadyMinted     = "already_minted"
	ErrCodeTimezoneLocked    = "timezone_locked"
	ErrCodeDayIndexMismatch  = "day_index_mismatch"
	ErrCodeProofNotSubmitted = "proof_not_submitted"
	ErrCodeInsufficientDays  = "insufficient_days"
	ErrCodeDayOutOfRange     = "day_out_of_range"

	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodeTimeout            = "timeout"
)

// errorMapping pairs a service error with its status and code.
type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors is consulted in order with errors.Is.
var serviceErrors = []errorMapping{
	{services.ErrInvalidAddress, http.StatusBadRequest, ErrCodeInvalidAddress},
	{services.ErrInvalidDay, http.StatusBadRequest, ErrCodeInvalidDay},
	{services.ErrEmptyText, http.StatusBadRequest, ErrCodeEmptyText},
	{services.ErrInvalidRange, http.StatusBadRequest, ErrCodeInvalidRange},
	{services.ErrInvalidMilestone, http.StatusBadRequest, ErrCodeInvalidMilestone},
	{services.ErrInvalidTimezone, http.StatusBadRequest, ErrCodeInvalidTimezone},
	{services.ErrMissingTxHash, http.StatusBadRequest, ErrCodeMissingTxHash},

	{services.ErrMissingCheckin, http.StatusNotFound, ErrCodeMissingCheckin},
	{services.ErrLogNotFound, http.StatusNotFound, ErrCodeLogNotFound},

	{services.ErrAlreadySubmitted, http.StatusConflict, ErrCodeAlreadySubmitted},
	{services.ErrAlreadyMinted, http.StatusConflict, ErrCodeAlreadyMinted},
	{services.ErrTimezoneLocked, http.StatusConflict, ErrCodeTimezoneLocked},
	{services.ErrDayIndexMismatch, http.StatusConflict, ErrCodeDayIndexMismatch},

	{services.ErrProofNotSubmitted, http.StatusUnprocessableEntity, ErrCodeProofNotSubmitted},
	{services.ErrInsufficientDays, http.StatusUnprocessableEntity, ErrCodeInsufficientDays},
	{services.ErrDayOutOfRange, http.StatusUnprocessableEntity, ErrCodeDayOutOfRange},

	{services.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrCodeStorageUnavailable},
}

// classify maps err to an HTTP status, a stable code and a client-safe
// message. Unknown errors are 500 with a generic message.
func classify(err error) (status int, code, msg string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg = err.Error()
			if m.status >= http.StatusInternalServerError {
				// Driver details stay in the logs.
				msg = m.err.Error()
			}
			return m.status, m.code, msg
		}
	}
	if isTimeout(err) {
		return http.StatusServiceUnavailable, ErrCodeTimeout, "request timed out"
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}
