package models

import "errors"

// Common errors for core entities and workflows.
var (
	// Site errors
	ErrSiteNotFound = errors.New("site not found")

	// Movement errors
	ErrMovementNotFound  = errors.New("movement not found")
	ErrDuplicateMovement = errors.New("movement already exists")
	ErrMissingPlate      = errors.New("payload carries no plate")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrOpenSessionExists = errors.New("open session already exists for site and plate")
	ErrExitBeforeEntry   = errors.New("exit timestamp precedes session start")

	// Permit and payment errors
	ErrPermitNotFound   = errors.New("permit not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicatePayment = errors.New("payment already exists")

	// Decision errors
	ErrDecisionNotFound = errors.New("decision not found")
	ErrDecisionExists   = errors.New("decision already exists for session")
	ErrDecisionFrozen   = errors.New("decision has been human-reviewed")

	// Plate review errors
	ErrReviewNotFound    = errors.New("plate review not found")
	ErrInvalidTransition = errors.New("review is not pending")
	ErrInvalidCorrection = errors.New("corrected plate is not a valid registration")
	ErrReviewGateActive  = errors.New("movement requires review")
	ErrMovementDiscarded = errors.New("movement has been discarded")

	// Suspension errors
	ErrSuspensionNotFound = errors.New("enforcement suspension not found")
	ErrSuspensionEnded    = errors.New("enforcement suspension already ended")
	ErrReasonTooShort     = errors.New("reason must be at least 10 characters")
	ErrDateRangeInverted  = errors.New("end date must be after start date")

	// Scheduler errors
	ErrJobLockHeld = errors.New("job lock is held by another run")

	// Invariant violations are loud failures; the offending record is left in
	// place and surfaced to operators.
	ErrInvariantViolation = errors.New("invariant violation")
)
