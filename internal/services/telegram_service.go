package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/ruangtamu/internal/guest"
	"github.com/example/ruangtamu/internal/models"
)

// TelegramService pushes reception events to the couple's admin chat. A
// nil service or missing credentials turn every call into a no-op.
type TelegramService struct {
	botToken    string
	adminChatID string
	http        *http.Client
	log         zerolog.Logger
}

// NewTelegramService creates the notifier. Returns a usable value even
// when unconfigured.
func NewTelegramService(botToken, adminChatID string, log zerolog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		http:        &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s == nil || s.botToken == "" {
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := s.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Warn().Err(err).Msg("telegram send failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn().Int("status", resp.StatusCode).Msg("telegram unexpected status")
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s == nil || s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// NotifyCheckIn announces an arrival to the admin chat. Send errors are
// logged inside SendMessage; the check-in itself is never affected.
func (s *TelegramService) NotifyCheckIn(g guest.Record, op *models.Operator) {
	if s == nil || s.adminChatID == "" {
		return
	}

	operator := "-"
	if op != nil {
		operator = op.Name
	}

	message := fmt.Sprintf(`<b>🎊 GUEST ARRIVED</b>
<b>👤 Guest:</b> %s
<b>🎫 Invitation:</b> %s
<b>👥 Companions:</b> %d
<b>✅ Checked in by:</b> %s
━━━━━━━━━━━━━━━━━━`,
		g.DisplayName(),
		valueOrDash(g.InvitationType),
		g.CompanionCount,
		operator,
	)

	_ = s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyCancel announces a check-in reversal to the admin chat.
func (s *TelegramService) NotifyCancel(g guest.Record, op *models.Operator) {
	if s == nil || s.adminChatID == "" {
		return
	}

	operator := "-"
	if op != nil {
		operator = op.Name
	}

	message := fmt.Sprintf(`<b>↩️ CHECK-IN CANCELLED</b>
<b>👤 Guest:</b> %s
<b>🔁 Reset by:</b> %s
━━━━━━━━━━━━━━━━━━`,
		g.DisplayName(),
		operator,
	)

	_ = s.SendToAdmin(strings.TrimSpace(message))
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
