// Package apperr defines the error kinds shared by the order, settlement,
// shift and approval layers. Specific errors wrap one of these kinds so that
// transport code can classify them with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidInput marks malformed quantities, prices or identifiers.
	// Rejected before anything is persisted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState marks an operation that is not allowed in the current
	// lifecycle state (e.g. adding a line to a paid order).
	ErrInvalidState = errors.New("invalid state")

	// ErrIllegalTransition marks a status change outside the transition table.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrApprovalRequired is recoverable: retry with an approving actor.
	ErrApprovalRequired = errors.New("approval required")

	// ErrInsufficientBalance marks a ledger debit that would go negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflict marks a concurrent write; re-read and retry.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks a dependency lookup that timed out or failed.
	ErrUnavailable = errors.New("unavailable")

	// ErrNotFound marks a missing order, line, shift or account.
	ErrNotFound = errors.New("not found")
)
