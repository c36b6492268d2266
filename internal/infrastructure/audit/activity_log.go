package audit

import (
	"context"
	"time"

	appstock "github.com/bizsuite/stockledger/internal/application/stock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActivityEntry is one row of the tenant activity feed. The feed is
// append-only and exists for operators, not for the ledger: losing an entry is
// an annoyance, not a correctness problem.
type ActivityEntry struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_activity_tenant_time,priority:1"`
	Action     string     `gorm:"type:varchar(100);not null;index"`
	EntityType string     `gorm:"type:varchar(50);not null"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	Detail     string     `gorm:"type:varchar(500)"`
	CreatedAt  time.Time  `gorm:"type:timestamptz;not null;index:idx_activity_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (ActivityEntry) TableName() string {
	return "activity_entries"
}

// GormActivityLog records activity entries in the database
type GormActivityLog struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormActivityLog creates a new GormActivityLog
func NewGormActivityLog(db *gorm.DB, logger *zap.Logger) *GormActivityLog {
	return &GormActivityLog{db: db, logger: logger}
}

// Record appends an entry to the feed. Failures are logged and swallowed so
// the calling operation is never rolled back over its audit trail.
func (l *GormActivityLog) Record(ctx context.Context, tenantID uuid.UUID, action, entityType string, entityID uuid.UUID, actorID *uuid.UUID, detail string) {
	entry := ActivityEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}
	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		l.logger.Error("failed to record activity entry",
			zap.String("action", action),
			zap.String("entity_id", entityID.String()),
			zap.Error(err),
		)
	}
}

// Recent returns the newest entries for a tenant
func (l *GormActivityLog) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []ActivityEntry
	if err := l.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormActivityLog implements the application recorder interface
var _ appstock.AuditRecorder = (*GormActivityLog)(nil)
