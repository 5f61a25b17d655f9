package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// ============================================
// AUDIT OPERATIONS
// ============================================

// AppendAudit writes one record to the append-only audit trail.
func (s *GORMStore) AppendAudit(ctx context.Context, record *models.AuditRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return "", err
	}
	return record.ID, nil
}

// ListAuditForEntity returns the audit trail of one entity, oldest first.
func (s *GORMStore) ListAuditForEntity(ctx context.Context, entityType, entityID string) ([]*models.AuditRecord, error) {
	var records []*models.AuditRecord
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("timestamp").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
