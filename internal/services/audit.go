package services

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/example/ruangtamu/internal/models"
)

// DBAuditLog persists settled actions to the checkin_audits table.
type DBAuditLog struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewDBAuditLog builds the database-backed audit sink.
func NewDBAuditLog(db *gorm.DB, log zerolog.Logger) *DBAuditLog {
	return &DBAuditLog{db: db, log: log}
}

// Record writes one audit row. Failures are logged, never propagated: the
// trail must not interfere with the action it records.
func (a *DBAuditLog) Record(ctx context.Context, entry models.CheckinAudit) {
	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		a.log.Warn().Err(err).Str("guest", entry.GuestUID).Msg("audit write failed")
	}
}

// ListRecent returns the newest audit rows, most recent first.
func (a *DBAuditLog) ListRecent(ctx context.Context, limit int) ([]models.CheckinAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.CheckinAudit
	err := a.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
