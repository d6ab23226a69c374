package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/stocki/internal/models"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramService sends admin alerts to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	logger      *slog.Logger
}

// NewTelegramService creates a new TelegramService. An empty token or chat
// turns every alert into a no-op.
func NewTelegramService(botToken, adminChatID string, logger *slog.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     defaultTelegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// WithAPIBase points the service at another Bot API host.
func (s *TelegramService) WithAPIBase(base string) *TelegramService {
	s.apiBase = strings.TrimRight(base, "/")
	return s
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Enabled reports whether alerts are delivered.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

// SendToAdmin sends an HTML message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if !s.Enabled() {
		s.logger.Debug("telegram not configured, skip alert")
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyContact forwards a contact form message.
func (s *TelegramService) NotifyContact(ctx context.Context, msg *models.ContactMessage) error {
	text := fmt.Sprintf(`<b>📩 Nouveau message</b>
<b>De :</b> %s &lt;%s&gt;
<b>Sujet :</b> %s

%s`,
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		html.EscapeString(msg.Subject),
		html.EscapeString(msg.Message),
	)
	return s.SendToAdmin(ctx, strings.TrimSpace(text))
}

// NotifyNewUser announces a registration.
func (s *TelegramService) NotifyNewUser(ctx context.Context, name, email string) error {
	text := fmt.Sprintf("<b>👤 Nouvel utilisateur</b>\n%s &lt;%s&gt;",
		html.EscapeString(name), html.EscapeString(email))
	return s.SendToAdmin(ctx, text)
}
