// Package models defines the persistent entities of the parking compliance
// core and their shared enums and errors.
package models

// AllModels returns all GORM models for auto-migration.
func AllModels() []any {
	return []any{
		&Site{},
		&Movement{},
		&Session{},
		&Permit{},
		&Payment{},
		&Decision{},
		&PlateReview{},
		&EnforcementSuspension{},
		&PlateRule{},
		&AuditRecord{},
		&JobLock{},
	}
}
