// Package services implements the console's business flows over the
// backend gateway: the check-in/cancel protocol, the queue poller, the
// audit trail, and operator notifications.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/gateway"
	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/models"
)

// ValidationError means a client-side precondition failed before any
// request was sent. The local state is untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrActionInFlight is returned when a second check-in or cancel is
// attempted for a guest whose previous action has not settled. Handlers
// translate this into HTTP 409.
var ErrActionInFlight = errors.New("another action for this guest is still in progress")

// CheckinData carries the companion and gift metadata collected at the
// check-in desk.
type CheckinData struct {
	CompanionCount int    `json:"companion_count"`
	GiftType       string `json:"gift_type"`
	GiftNotes      string `json:"gift_notes"`
	CheckedInBy    string `json:"checked_in_by"`
}

// TakeData carries the runner escort details for the queue->done
// transition.
type TakeData struct {
	RunnerID    string `json:"runner_id"`
	RunnerName  string `json:"runner_name"`
	TableNumber string `json:"table_number"`
	RunnerNotes string `json:"runner_notes"`
}

// AuditSink records settled actions. Implementations must never fail the
// action they are recording.
type AuditSink interface {
	Record(ctx context.Context, entry models.CheckinAudit)
}

// CheckinService owns the guest mutation protocol. It enforces
// at-most-one-in-flight per guest UID, applies the asymmetric success
// rules for check-in and cancel, and guarantees local state is only
// produced on confirmed success.
type CheckinService struct {
	gw       *gateway.Client
	audit    AuditSink
	notifier *TelegramService
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCheckinService builds the protocol service. audit and notifier may be
// nil.
func NewCheckinService(gw *gateway.Client, audit AuditSink, notifier *TelegramService, log zerolog.Logger) *CheckinService {
	return &CheckinService{
		gw:       gw,
		audit:    audit,
		notifier: notifier,
		inflight: make(map[string]struct{}),
		log:      log,
	}
}

// begin claims the per-guest slot. Duplicate submissions, such as a double
// click racing the first request, are rejected until settlement.
func (s *CheckinService) begin(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[uid]; busy {
		return ErrActionInFlight
	}
	s.inflight[uid] = struct{}{}
	return nil
}

func (s *CheckinService) end(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, uid)
}

// CheckIn performs the forward transition not_arrived -> queue. Success is
// strictly an explicit success flag on a 2xx response: checking in an
// already-arrived guest is a real error, unlike the lenient cancel path.
// The returned record is the backend echo merged over the local
// transition; on any error the caller's record is unchanged.
func (s *CheckinService) CheckIn(ctx context.Context, g guest.Record, data CheckinData, op *models.Operator) (guest.Record, error) {
	if !g.EligibleForCheckIn() {
		return g, &ValidationError{Reason: "Guest already checked in."}
	}
	if data.CompanionCount < 0 {
		return g, &ValidationError{Reason: "companion count cannot be negative"}
	}
	if err := s.begin(g.UID); err != nil {
		return g, err
	}
	defer s.end(g.UID)

	if data.CheckedInBy == "" && op != nil {
		data.CheckedInBy = op.Name
	}

	resp, err := s.gw.CheckInGuest(ctx, g.UID, map[string]any{
		"companion_count": data.CompanionCount,
		"gift_type":       data.GiftType,
		"gift_notes":      data.GiftNotes,
		"checked_in_by":   data.CheckedInBy,
	})
	if err != nil {
		s.record(ctx, g, models.AuditActionCheckIn, op, false, err.Error())
		return g, err
	}

	env := gateway.DecodeEnvelope(resp.Body)
	if resp.Status < 200 || resp.Status >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "check-in failed"
		}
		err := &gateway.HTTPError{Status: resp.Status, Message: msg}
		s.record(ctx, g, models.AuditActionCheckIn, op, false, msg)
		return g, err
	}

	now := time.Now().UTC()
	updated := g
	updated.CheckInStatus = guest.StatusQueue
	updated.IsCheckedIn = true
	updated.CompanionCount = data.CompanionCount
	updated.GiftType = data.GiftType
	updated.GiftNotes = data.GiftNotes
	updated.CheckedInBy = data.CheckedInBy
	updated.CheckInTime = &now

	// Backend-returned fields win over the local transition.
	updated, err = updated.MergeJSON(env.Guest)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", g.UID).Msg("check-in echo ignored")
	}

	s.record(ctx, updated, models.AuditActionCheckIn, op, true, "")
	s.notifier.NotifyCheckIn(updated, op)
	return updated, nil
}

// Cancel reverses an arrived guest to not_arrived. Classification is
// deliberately permissive: an explicit success flag, a plain 200, and a
// 400 all signal a successful reset, because the backend answers 400 when
// the guest was already in a reset-compatible state and the console must
// still converge. Any other outcome surfaces the backend message verbatim
// and leaves local state untouched.
func (s *CheckinService) Cancel(ctx context.Context, g guest.Record, op *models.Operator) (guest.Record, error) {
	if !g.EligibleForCancel() {
		return g, &ValidationError{Reason: "guest has not arrived"}
	}
	if err := s.begin(g.UID); err != nil {
		return g, err
	}
	defer s.end(g.UID)

	resp, err := s.gw.CancelCheckIn(ctx, g.UID)
	if err != nil {
		s.record(ctx, g, models.AuditActionCancel, op, false, err.Error())
		return g, err
	}

	env := gateway.DecodeEnvelope(resp.Body)
	reset := env.Success ||
		(resp.Status >= 200 && resp.Status < 300) ||
		resp.Status == 400
	if !reset {
		msg := env.Message
		if msg == "" {
			msg = "cancel check-in failed"
		}
		err := &gateway.HTTPError{Status: resp.Status, Message: msg}
		s.record(ctx, g, models.AuditActionCancel, op, false, msg)
		return g, err
	}

	updated := g.ResetToNotArrived()
	// The backend may echo different defaults; its fields take precedence
	// over the locally computed reset.
	updated, err = updated.MergeJSON(env.Guest)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", g.UID).Msg("cancel echo ignored")
	}

	s.record(ctx, updated, models.AuditActionCancel, op, true, "")
	s.notifier.NotifyCancel(updated, op)
	return updated, nil
}

// Take performs the runner transition queue -> done. Same strict success
// rule as check-in.
func (s *CheckinService) Take(ctx context.Context, g guest.Record, data TakeData, op *models.Operator) (guest.Record, error) {
	if !g.Queued() {
		return g, &ValidationError{Reason: "guest is not in the queue"}
	}
	if err := s.begin(g.UID); err != nil {
		return g, err
	}
	defer s.end(g.UID)

	if data.RunnerID == "" && op != nil {
		data.RunnerID = op.ID
	}
	if data.RunnerName == "" && op != nil {
		data.RunnerName = op.Name
	}

	resp, err := s.gw.TakeGuest(ctx, g.UID, map[string]any{
		"runner_id":    data.RunnerID,
		"runner_name":  data.RunnerName,
		"table_number": data.TableNumber,
		"runner_notes": data.RunnerNotes,
	})
	if err != nil {
		s.record(ctx, g, models.AuditActionTake, op, false, err.Error())
		return g, err
	}

	env := gateway.DecodeEnvelope(resp.Body)
	if resp.Status < 200 || resp.Status >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "take guest failed"
		}
		err := &gateway.HTTPError{Status: resp.Status, Message: msg}
		s.record(ctx, g, models.AuditActionTake, op, false, msg)
		return g, err
	}

	updated := g
	updated.CheckInStatus = guest.StatusDone
	updated.AssignedRunner = data.RunnerID
	if data.TableNumber != "" {
		updated.TableNumber = data.TableNumber
	}
	if data.RunnerNotes != "" {
		updated.RunnerNotes = data.RunnerNotes
	}

	updated, err = updated.MergeJSON(env.Guest)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", g.UID).Msg("take echo ignored")
	}

	s.record(ctx, updated, models.AuditActionTake, op, true, "")
	return updated, nil
}

func (s *CheckinService) record(ctx context.Context, g guest.Record, action string, op *models.Operator, ok bool, detail string) {
	if s.audit == nil {
		return
	}
	entry := models.CheckinAudit{
		GuestUID:  g.UID,
		GuestName: g.Name,
		Action:    action,
		Succeeded: ok,
		Detail:    detail,
	}
	if op != nil {
		entry.Operator = op.Name
		entry.OperatorRole = op.Role
	}
	s.audit.Record(ctx, entry)
}
