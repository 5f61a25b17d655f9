package models

// Direction is the resolved travel direction of a movement.
type Direction string

const (
	DirectionEntry   Direction = "ENTRY"
	DirectionExit    Direction = "EXIT"
	DirectionUnknown Direction = "UNKNOWN"
)

// SessionStatus tracks the lifecycle of a parking session.
type SessionStatus string

const (
	// SessionProvisional is an open session awaiting an exit movement.
	SessionProvisional SessionStatus = "PROVISIONAL"

	// SessionCompleted is a session closed by a matching exit movement.
	SessionCompleted SessionStatus = "COMPLETED"

	// SessionExpired is a session auto-closed because no exit arrived
	// within the stale threshold. Expired sessions are never evaluated.
	SessionExpired SessionStatus = "EXPIRED"
)

// DecisionOutcome is the compliance verdict for a session.
type DecisionOutcome string

const (
	OutcomeCompliant            DecisionOutcome = "COMPLIANT"
	OutcomeEnforcementCandidate DecisionOutcome = "ENFORCEMENT_CANDIDATE"
	OutcomeRequiresReview       DecisionOutcome = "REQUIRES_REVIEW"
)

// DecisionStatus is the workflow state of a decision. Automatic writers may
// only mutate decisions in NEW or CANDIDATE; every other status means a human
// has reviewed the decision and the outcome is frozen.
type DecisionStatus string

const (
	DecisionNew          DecisionStatus = "NEW"
	DecisionCandidate    DecisionStatus = "CANDIDATE"
	DecisionApproved     DecisionStatus = "APPROVED"
	DecisionDeclined     DecisionStatus = "DECLINED"
	DecisionAutoResolved DecisionStatus = "AUTO_RESOLVED"
	DecisionExported     DecisionStatus = "EXPORTED"
)

// Mutable reports whether automatic processes may overwrite a decision in
// this status.
func (s DecisionStatus) Mutable() bool {
	return s == DecisionNew || s == DecisionCandidate
}

// RuleTag identifies the cascade clause that produced a decision.
type RuleTag string

const (
	RuleEnforcementDisabled            RuleTag = "ENFORCEMENT_DISABLED"
	RuleValidPermit                    RuleTag = "VALID_PERMIT"
	RuleWithinGrace                    RuleTag = "WITHIN_GRACE"
	RuleIncompleteSession              RuleTag = "INCOMPLETE_SESSION"
	RuleValidPayment                   RuleTag = "VALID_PAYMENT"
	RuleOverstay                       RuleTag = "OVERSTAY"
	RuleOverstayWithinGrace            RuleTag = "OVERSTAY_WITHIN_GRACE"
	RuleNoValidPayment                 RuleTag = "NO_VALID_PAYMENT"
	RuleUnauthorisedParking            RuleTag = "UNAUTHORISED_PARKING"
	RuleEnforcementDisabledRetroactive RuleTag = "ENFORCEMENT_DISABLED_RETROACTIVE"
)

// PermitType classifies the origin of a parking permit.
type PermitType string

const (
	PermitWhitelist   PermitType = "WHITELIST"
	PermitResident    PermitType = "RESIDENT"
	PermitStaff       PermitType = "STAFF"
	PermitContractor  PermitType = "CONTRACTOR"
	PermitQRWhitelist PermitType = "QRWHITELIST"
)

// EnforcementType is the payment model a site operates under.
type EnforcementType string

const (
	EnforcementAuto          EnforcementType = "AUTO"
	EnforcementPayAndDisplay EnforcementType = "PAY_AND_DISPLAY"
	EnforcementPermitOnly    EnforcementType = "PERMIT_ONLY"
	EnforcementMixed         EnforcementType = "MIXED"
)

// ReviewStatus is the workflow state of a plate review.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "PENDING"
	ReviewApproved  ReviewStatus = "APPROVED"
	ReviewCorrected ReviewStatus = "CORRECTED"
	ReviewDiscarded ReviewStatus = "DISCARDED"
)

// ValidationStatus classifies a plate against the active rule set.
type ValidationStatus string

const (
	PlateUKValid            ValidationStatus = "UK_VALID"
	PlateInternationalValid ValidationStatus = "INTERNATIONAL_VALID"
	PlateInvalid            ValidationStatus = "INVALID"
)

// Suspicion reason tags raised by plate validation.
const (
	SuspicionLowConfidence     = "LOW_CONFIDENCE"
	SuspicionNonAlphanumeric   = "NON_ALPHANUMERIC"
	SuspicionAllSameCharacter  = "ALL_SAME_CHARACTER"
	SuspicionImplausibleLength = "IMPLAUSIBLE_LENGTH"
	SuspicionConfusedCluster   = "CONFUSED_CHARACTER_CLUSTER"
	SuspicionInvalidFormat     = "INVALID_FORMAT"
	SuspicionNonUKFormat       = "NON_UK_FORMAT"
)

// ParseDirection maps a raw direction signal to a Direction using the global
// fallback vocabulary. Camera-specific mapping happens before this is
// consulted.
func ParseDirection(raw string) Direction {
	switch raw {
	case "TOWARDS", "ENTRY", "IN":
		return DirectionEntry
	case "AWAY", "EXIT", "OUT":
		return DirectionExit
	default:
		return DirectionUnknown
	}
}
