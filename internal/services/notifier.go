package services

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers one-time codes out of band. Implementations may fail
// independently of the database; callers decide whether that is fatal.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
	SendLoginCode(ctx context.Context, to, name, code string, valid time.Duration) error
}

// LogNotifier writes codes to the application log. It is only wired when
// SMTP is not configured in a local environment.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendVerificationCode(_ context.Context, to, _, code string) error {
	n.logger.Info("verification code", slog.String("to", to), slog.String("code", code))
	return nil
}

func (n *LogNotifier) SendLoginCode(_ context.Context, to, _, code string, valid time.Duration) error {
	n.logger.Info("login code", slog.String("to", to), slog.String("code", code), slog.Duration("valid", valid))
	return nil
}
