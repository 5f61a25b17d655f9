package models

import (
	"encoding/json"
	"time"
)

// Audit action vocabulary. Every state-changing core action appends one
// record to the audit sink.
const (
	AuditMovementIngested         = "MOVEMENT_INGESTED"
	AuditMovementDuplicate        = "MOVEMENT_DUPLICATE_DETECTED"
	AuditDuplicateEntrySkipped    = "DUPLICATE_ENTRY_SKIPPED"
	AuditSessionCreated           = "SESSION_CREATED"
	AuditSessionCompleted         = "SESSION_COMPLETED"
	AuditSessionExpired           = "SESSION_EXPIRED"
	AuditDecisionCreated          = "DECISION_CREATED"
	AuditDecisionReconciled       = "DECISION_RECONCILED"
	AuditDecisionAutoReevaluated  = "DECISION_AUTO_REEVALUATED"
	AuditEnforcementReviewed      = "ENFORCEMENT_REVIEWED"
	AuditPaymentIngested          = "PAYMENT_INGESTED"
	AuditPermitIngested           = "PERMIT_INGESTED"
	AuditReconciliationTriggered  = "RECONCILIATION_TRIGGERED"
	AuditRuleCreated              = "RULE_CREATED"
	AuditRuleUpdated              = "RULE_UPDATED"
	AuditRuleEnded                = "RULE_ENDED"
	AuditRetroactiveUpdateApplied = "RETROACTIVE_UPDATE_APPLIED"
	AuditPlateReviewCreated       = "PLATE_REVIEW_CREATED"
	AuditPlateReviewApproved      = "PLATE_REVIEW_APPROVED"
	AuditPlateReviewCorrected     = "PLATE_REVIEW_CORRECTED"
	AuditPlateReviewDiscarded     = "PLATE_REVIEW_DISCARDED"
)

// Actor types for audit records.
const (
	ActorTypeSystem   = "SYSTEM"
	ActorTypeOperator = "OPERATOR"
	ActorTypeJob      = "JOB"
)

// AuditRecord is one entry in the append-only audit trail.
type AuditRecord struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	EntityType string `gorm:"not null;size:32;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   string `gorm:"not null;size:64;index:idx_audit_entity,priority:2" json:"entity_id"`
	Action     string `gorm:"not null;size:48;index" json:"action"`

	Actor     string `gorm:"not null;size:64" json:"actor"`
	ActorType string `gorm:"not null;size:16" json:"actor_type"`

	SiteID *string `gorm:"size:16;index" json:"site_id,omitempty"`
	VRM    *string `gorm:"size:16;index" json:"vrm,omitempty"`

	// Details is a JSON document with action-specific context.
	Details string `gorm:"type:text" json:"-"`

	ParentAuditID *string   `gorm:"size:36" json:"parent_audit_id,omitempty"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`
}

// TableName returns the table name for AuditRecord.
func (AuditRecord) TableName() string {
	return "audit_records"
}

// SetDetails stores the details document.
func (a *AuditRecord) SetDetails(details map[string]any) error {
	if len(details) == 0 {
		a.Details = ""
		return nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return err
	}
	a.Details = string(data)
	return nil
}
