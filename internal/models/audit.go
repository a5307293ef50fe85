package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions recorded by the check-in protocol.
const (
	AuditActionCheckIn = "check_in"
	AuditActionCancel  = "cancel"
	AuditActionTake    = "take"
)

// CheckinAudit records one settled operator action against a guest. The
// trail is local bookkeeping for the station; guest state is never read
// back from it.
type CheckinAudit struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GuestUID     string    `gorm:"index" json:"guest_uid"`
	GuestName    string    `json:"guest_name"`
	Action       string    `json:"action"`
	Operator     string    `json:"operator"`
	OperatorRole string    `json:"operator_role"`
	Succeeded    bool      `json:"succeeded"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate generates the row ID.
func (a *CheckinAudit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
