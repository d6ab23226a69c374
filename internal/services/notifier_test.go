package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/example/stocki/internal/logger"
	"github.com/example/stocki/internal/models"
)

type fakeSender struct {
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (s *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if s.block != nil {
		<-s.block
	}
	s.sent = append(s.sent, m...)
	return s.err
}

var testMailerConfig = MailerConfig{Host: "smtp.local", Port: 587, From: "noreply@stocki.local"}

func TestMailer_SendLoginCode(t *testing.T) {
	sender := &fakeSender{}
	m := NewMailerWithSender(testMailerConfig, sender, logger.Discard())

	require.NoError(t, m.SendLoginCode(context.Background(), "a@x.com", "A", "123456", 10*time.Minute))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"a@x.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"noreply@stocki.local"}, sender.sent[0].GetHeader("From"))
}

func TestMailer_Errors(t *testing.T) {
	ctx := context.Background()

	m := NewMailerWithSender(MailerConfig{}, &fakeSender{}, logger.Discard())
	assert.Error(t, m.SendVerificationCode(ctx, "a@x.com", "A", "123456"))

	m = NewMailerWithSender(testMailerConfig, &fakeSender{}, logger.Discard())
	assert.Error(t, m.SendVerificationCode(ctx, "  ", "A", "123456"))

	m = NewMailerWithSender(testMailerConfig, &fakeSender{err: errors.New("refused")}, logger.Discard())
	err := m.SendVerificationCode(ctx, "a@x.com", "A", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestMailer_ContextCancelled(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	defer close(sender.block)
	m := NewMailerWithSender(testMailerConfig, sender, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.SendLoginCode(ctx, "a@x.com", "A", "123456", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTelegram_NotifyContact(t *testing.T) {
	var got telegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42", logger.Discard()).WithAPIBase(srv.URL)
	err := tg.NotifyContact(context.Background(), &models.ContactMessage{
		Name:    "Bob <script>",
		Email:   "bob@x.com",
		Subject: "Stock",
		Message: "Bonjour",
	})
	require.NoError(t, err)

	assert.Equal(t, "/bottoken/sendMessage", path)
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "HTML", got.ParseMode)
	assert.True(t, strings.Contains(got.Text, "Bob &lt;script&gt;"))
}

func TestTelegram_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegramService("token", "42", logger.Discard()).WithAPIBase(srv.URL)
	assert.Error(t, tg.NotifyNewUser(context.Background(), "A", "a@x.com"))
}

func TestTelegram_DisabledIsNoop(t *testing.T) {
	tg := NewTelegramService("", "", logger.Discard()).WithAPIBase("http://127.0.0.1:1")
	assert.False(t, tg.Enabled())
	assert.NoError(t, tg.NotifyNewUser(context.Background(), "A", "a@x.com"))
}
