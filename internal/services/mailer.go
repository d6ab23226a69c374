package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Sender delivers a composed message. gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer is the SMTP Notifier.
type Mailer struct {
	cfg    MailerConfig
	sender Sender
	logger *slog.Logger
}

// NewMailer builds a Mailer that dials the configured SMTP server.
func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	return NewMailerWithSender(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass), logger)
}

// NewMailerWithSender builds a Mailer around an arbitrary Sender.
func NewMailerWithSender(cfg MailerConfig, sender Sender, logger *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, sender: sender, logger: logger}
}

// SendVerificationCode emails the account verification code.
func (m *Mailer) SendVerificationCode(ctx context.Context, to, name, code string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Stocki - vérification du compte</h2>
    <p>Bonjour %s,</p>
    <p>Votre code de vérification est :</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
  </div>
</body>
</html>`, html.EscapeString(name), code)

	if err := m.send(ctx, to, "[Stocki] Code de vérification", body); err != nil {
		return err
	}
	m.logger.Info("verification email sent", slog.String("to", to))
	return nil
}

// SendLoginCode emails the second-factor login code.
func (m *Mailer) SendLoginCode(ctx context.Context, to, name, code string, valid time.Duration) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Stocki - connexion</h2>
    <p>Bonjour %s,</p>
    <p>Votre code de connexion est :</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>Ce code expire dans %d minutes.</p>
  </div>
</body>
</html>`, html.EscapeString(name), code, int(valid.Minutes()))

	if err := m.send(ctx, to, "[Stocki] Code de connexion", body); err != nil {
		return err
	}
	m.logger.Info("login code email sent", slog.String("to", to))
	return nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" || m.cfg.From == "" {
		return errors.New("email config missing")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("empty recipient")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}
