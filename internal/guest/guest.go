package guest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status tracks a guest through the reception lifecycle. The backend only
// moves guests forward (not_arrived -> queue -> done); cancellation resets
// them to not_arrived from either arrived state.
type Status string

const (
	StatusNotArrived Status = "not_arrived"
	StatusQueue      Status = "queue"
	StatusDone       Status = "done"
)

// ParseStatus validates a status filter value from a query parameter.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusNotArrived:
		return StatusNotArrived, true
	case StatusQueue:
		return StatusQueue, true
	case StatusDone:
		return StatusDone, true
	}
	return "", false
}

// Label returns the operator-facing name for a status.
func (s Status) Label() string {
	switch s {
	case StatusQueue:
		return "In Queue"
	case StatusDone:
		return "Completed"
	default:
		return "Not Arrived"
	}
}

// FlexBool decodes the backend's inconsistent boolean encoding: some
// endpoints send proper JSON booleans, others send the sheet-sourced
// strings "TRUE"/"FALSE".
type FlexBool bool

// UnmarshalJSON accepts booleans, quoted booleans, and null.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = false
		return nil
	}

	var raw bool
	if err := json.Unmarshal(data, &raw); err == nil {
		*b = FlexBool(raw)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			*b = true
		default:
			*b = false
		}
		return nil
	}

	return fmt.Errorf("cannot decode %q as boolean", string(data))
}

// MarshalJSON always emits a plain JSON boolean.
func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// Record is the canonical shape of one invitee as held in memory by the
// console. Records are created by the backend when an invitation is issued;
// the console never deletes them, only discards its local copy.
type Record struct {
	UID              string     `json:"uid"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone,omitempty"`
	InvitationType   string     `json:"invitation_type,omitempty"`
	InvitationValue  string     `json:"invitation_value,omitempty"`
	GroupMemberNames []string   `json:"group_member_names,omitempty"`
	CheckInStatus    Status     `json:"check_in_status"`
	IsCheckedIn      FlexBool   `json:"is_checked_in"`
	TableNumber      string     `json:"table_number,omitempty"`
	CompanionCount   int        `json:"companion_count"`
	GiftType         string     `json:"gift_type,omitempty"`
	GiftNotes        string     `json:"gift_notes,omitempty"`
	RunnerNotes      string     `json:"runner_notes,omitempty"`
	CheckedInBy      string     `json:"checked_in_by,omitempty"`
	AssignedRunner   string     `json:"assigned_runner,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
}

// CheckedIn reports whether the guest has arrived in any form.
func (r Record) CheckedIn() bool {
	return bool(r.IsCheckedIn)
}

// Queued reports whether the guest is waiting to be escorted to a table.
func (r Record) Queued() bool {
	return r.CheckInStatus == StatusQueue
}

// Completed reports whether the guest has been seated.
func (r Record) Completed() bool {
	return r.CheckInStatus == StatusDone
}

// EligibleForCheckIn holds only for guests that have not arrived yet.
// Checking in an already-arrived guest is a real error on the backend.
func (r Record) EligibleForCheckIn() bool {
	return r.CheckInStatus == StatusNotArrived
}

// EligibleForCancel holds for any arrived state. The backend's reset
// contract is lenient, so the legacy flag counts as arrived even when the
// status field disagrees.
func (r Record) EligibleForCancel() bool {
	return r.CheckInStatus == StatusQueue || r.CheckInStatus == StatusDone || bool(r.IsCheckedIn)
}

// ResetToNotArrived returns a copy of the record restored to the
// not-arrived state: status, legacy flag, companion count, gift fields,
// check-in time and attribution are all cleared together. Applying the
// transform twice yields the same result.
func (r Record) ResetToNotArrived() Record {
	out := r
	out.CheckInStatus = StatusNotArrived
	out.IsCheckedIn = false
	out.CompanionCount = 0
	out.GiftType = ""
	out.GiftNotes = ""
	out.CheckInTime = nil
	out.CheckedInBy = ""
	return out
}

// MergeJSON overlays a partial backend echo onto the record. Fields present
// in raw take precedence; absent fields keep their current values.
func (r Record) MergeJSON(raw json.RawMessage) (Record, error) {
	out := r
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return r, fmt.Errorf("merge guest echo: %w", err)
	}
	return out, nil
}

// DisplayName renders the guest name with the table assignment when known.
func (r Record) DisplayName() string {
	name := r.Name
	if name == "" {
		name = "Unknown Guest"
	}
	if r.TableNumber != "" {
		return fmt.Sprintf("%s (Table %s)", name, r.TableNumber)
	}
	return name
}

// TotalCompanions sums companion counts across a guest list.
func TotalCompanions(guests []Record) int {
	total := 0
	for _, g := range guests {
		total += g.CompanionCount
	}
	return total
}
