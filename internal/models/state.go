package models

import "time"

// Versioned key names for the persisted session slots. The user and token
// slots are always written and cleared together.
const (
	StateKeyUser      = "ruangtamu_user"
	StateKeyToken     = "ruangtamu_token"
	StateKeyLastLogin = "ruangtamu_last_login"
)

// StateEntry is one opaque key-value slot of durable station state. The
// session store is the only writer; guests are never persisted here.
type StateEntry struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
