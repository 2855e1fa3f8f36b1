// Package services implements the ledger's business rules: check-ins,
// streaks, the mint state machine, snapshots and reports. This file
// centralizes the service-level error values so that they can be returned
// consistently and matched by callers with errors.Is.
//
// Translation into HTTP status codes and user-facing messages is performed
// at the handler layer.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/alive28-ledger/internal/calendar"
)

// Input errors.
var (
	// ErrInvalidAddress is returned for identifiers that are not a 0x-prefixed
	// 20-byte hex address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidDay is returned when a requested day index is outside 1..28.
	ErrInvalidDay = errors.New("day index must be between 1 and 28")

	// ErrEmptyText is returned when check-in text normalizes to nothing.
	ErrEmptyText = errors.New("check-in text is empty")

	ErrInvalidRange     = errors.New("report range must be week or final")
	ErrInvalidMilestone = errors.New("milestone id must be 1, 2 or 3")

	// ErrInvalidTimezone is returned for unknown IANA zone names.
	ErrInvalidTimezone = calendar.ErrInvalidTimezone

	// ErrMissingTxHash is returned when no transaction hash is supplied and
	// simulated hashes are disabled.
	ErrMissingTxHash = errors.New("transaction hash is required")
)

// State errors.
var (
	// ErrMissingCheckin: proof or mint attempted before today's check-in.
	ErrMissingCheckin = errors.New("no check-in for today")

	// ErrAlreadySubmitted: the proof for today was already recorded.
	ErrAlreadySubmitted = errors.New("proof already submitted")

	// ErrAlreadyMinted: replay of a day, milestone or final mint.
	ErrAlreadyMinted = errors.New("already minted")

	// ErrProofNotSubmitted: day mint attempted before the proof.
	ErrProofNotSubmitted = errors.New("proof not submitted")

	// ErrInsufficientDays: a milestone or final threshold is not met.
	ErrInsufficientDays = errors.New("not enough completed days")

	// ErrDayIndexMismatch: the claimed day differs from today's computed day.
	ErrDayIndexMismatch = errors.New("day index does not match today")

	// ErrDayOutOfRange: today falls outside the 28-day program.
	ErrDayOutOfRange = errors.New("today is outside the challenge")

	// ErrTimezoneLocked: the timezone cannot change once the challenge started.
	ErrTimezoneLocked = errors.New("timezone is locked after the first check-in")

	ErrLogNotFound = errors.New("log not found")
)

// ErrStorageUnavailable wraps every persistence or lock failure.
var ErrStorageUnavailable = errors.New("storage unavailable")

var ledgerErrors = []error{
	ErrInvalidAddress, ErrInvalidDay, ErrEmptyText, ErrInvalidRange, ErrInvalidMilestone,
	ErrInvalidTimezone, ErrMissingTxHash, ErrMissingCheckin, ErrAlreadySubmitted,
	ErrAlreadyMinted, ErrProofNotSubmitted, ErrInsufficientDays, ErrDayIndexMismatch,
	ErrDayOutOfRange, ErrTimezoneLocked, ErrLogNotFound, ErrStorageUnavailable,
	calendar.ErrInvalidDateKey, context.Canceled, context.DeadlineExceeded,
}

// storage passes ledger errors through unchanged and classifies anything
// else as ErrStorageUnavailable.
func storage(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range ledgerErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
