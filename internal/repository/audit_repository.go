package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// AuditQuery filters the audit trail
type AuditQuery struct {
	Action string
	Entity string
	AuthID string
	Limit  int
	Offset int
}

// AuditRepository defines the interface for audit trail data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *AuditQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *AuditQuery) ([]models.AuditLog, int64, error) {
	if query == nil {
		query = &AuditQuery{}
	}
	if query.Limit <= 0 || query.Limit > 200 {
		query.Limit = 50
	}

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if query.Action != "" {
		db = db.Where("action = ?", query.Action)
	}
	if query.Entity != "" {
		db = db.Where("entity = ?", query.Entity)
	}
	if query.AuthID != "" {
		db = db.Where("auth_id = ?", query.AuthID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := db.Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&logs).Error
	return logs, total, err
}
