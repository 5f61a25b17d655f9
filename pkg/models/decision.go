package models

import (
	"encoding/json"
	"time"
)

// Decision is the compliance verdict for one session. Exactly one current
// decision exists per session, enforced by a unique index on SessionID.
type Decision struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"not null;size:36;uniqueIndex" json:"session_id"`

	Outcome     DecisionOutcome `gorm:"not null;size:32;index" json:"outcome"`
	RuleApplied RuleTag         `gorm:"not null;size:48" json:"rule_applied"`

	// Rationale is an append-only audit trail of evaluations; re-evaluations
	// append "| RECONCILED: …" or "| AUTO_REEVALUATED: …" suffixes.
	Rationale string `gorm:"type:text" json:"rationale"`

	Status DecisionStatus `gorm:"not null;size:16;index" json:"status"`

	// Params carries optional structured context, e.g. overstay minutes.
	Params string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Decision.
func (Decision) TableName() string {
	return "decisions"
}

// Mutable reports whether automatic processes may overwrite this decision.
func (d *Decision) Mutable() bool {
	return d.Status.Mutable()
}

// GetParams returns the parsed params document.
func (d *Decision) GetParams() (map[string]any, error) {
	if d.Params == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(d.Params), &params); err != nil {
		return nil, err
	}
	return params, nil
}

// SetParams stores the params document.
func (d *Decision) SetParams(params map[string]any) error {
	if len(params) == 0 {
		d.Params = ""
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	d.Params = string(data)
	return nil
}

// AppendRationale appends a suffixed note to the rationale trail.
func (d *Decision) AppendRationale(note string) {
	if d.Rationale == "" {
		d.Rationale = note
		return
	}
	d.Rationale = d.Rationale + " | " + note
}
