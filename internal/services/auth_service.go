package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/metrics"
	"github.com/example/stocki/internal/models"
	"github.com/example/stocki/internal/repository"
	"github.com/example/stocki/internal/utils"
)

const (
	msgBadCredentials   = "incorrect email or password"
	msgNotVerified      = "account not verified"
	msgInvalidLoginCode = "invalid or expired code"
	msgInvalidVerify    = "invalid verification code"
	msgUserNotFound     = "user not found"
	msgEmailTaken       = "email already registered"
	msgAlreadyVerified  = "account already verified"
	msgDeliveryFailed   = "could not send the code, please try again"
	msgInternal         = "internal server error"
)

// DefaultLoginCodeTTL is the lifetime of a second-factor code.
const DefaultLoginCodeTTL = 10 * time.Minute

// adminAlertTimeout bounds a new-user alert, which runs after Register returns.
const adminAlertTimeout = 10 * time.Second

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=191"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the payload of Login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterResult tells the caller verification is pending.
type RegisterResult struct {
	UserID               uuid.UUID `json:"userId"`
	RequiresVerification bool      `json:"requiresVerification"`
}

// LoginResult tells the caller a second factor is required.
type LoginResult struct {
	Requires2FA bool      `json:"requires2FA"`
	UserID      uuid.UUID `json:"userId"`
}

// UserSummary is the user projection returned with a session.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Session is the result of a completed login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}

// AdminAlerter is told about new accounts. TelegramService implements it.
type AdminAlerter interface {
	NotifyNewUser(ctx context.Context, name, email string) error
}

// AuthService drives registration, email verification and two-factor login.
type AuthService struct {
	users    repository.UserRepository
	notifier Notifier
	sessions *utils.SessionIssuer
	alerts   AdminAlerter
	logger   *slog.Logger
	codeTTL  time.Duration
	now      func() time.Time
	newCode  func() (string, error)
	alertsWG sync.WaitGroup
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithLoginCodeTTL sets the lifetime of second-factor codes.
func WithLoginCodeTTL(ttl time.Duration) AuthOption {
	return func(s *AuthService) {
		if ttl > 0 {
			s.codeTTL = ttl
		}
	}
}

// WithClock replaces the time source used for code expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithCodeGenerator replaces the one-time code source.
func WithCodeGenerator(gen func() (string, error)) AuthOption {
	return func(s *AuthService) { s.newCode = gen }
}

// WithAdminAlerts reports registrations to an admin channel.
func WithAdminAlerts(a AdminAlerter) AuthOption {
	return func(s *AuthService) { s.alerts = a }
}

// NewAuthService wires the auth state machine.
func NewAuthService(users repository.UserRepository, notifier Notifier, sessions *utils.SessionIssuer, logger *slog.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:    users,
		notifier: notifier,
		sessions: sessions,
		logger:   logger,
		codeTTL:  DefaultLoginCodeTTL,
		now:      time.Now,
		newCode:  utils.GenerateCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) clock() time.Time {
	return s.now().UTC()
}

// Register creates an unverified account and sends its verification code.
// A delivery failure is logged and does not undo the account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		metrics.AuthEvents.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			metrics.AuthEvents.WithLabelValues("register", "invalid").Inc()
			return nil, apperr.Validation(fmt.Sprintf("password must be at most %d bytes", utils.MaxPasswordBytes))
		}
		return nil, apperr.Dependency(msgInternal, err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, apperr.Dependency(msgInternal, err)
	}

	user := &models.User{
		Name:             in.Name,
		Email:            in.Email,
		PasswordHash:     hash,
		IsVerified:       false,
		VerificationCode: &code,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			metrics.AuthEvents.WithLabelValues("register", "conflict").Inc()
			return nil, apperr.Conflict(msgEmailTaken)
		}
		return nil, apperr.Dependency(msgInternal, err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		metrics.NotifierFailures.WithLabelValues("verification").Inc()
		s.logger.Warn("verification code delivery failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}

	s.alertNewUser(ctx, user.Name, user.Email)

	metrics.AuthEvents.WithLabelValues("register", "ok").Inc()
	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return &RegisterResult{UserID: user.ID, RequiresVerification: true}, nil
}

// alertNewUser tells the admin channel about a registration without holding
// up the request. The alert outlives the request context but not the timeout.
func (s *AuthService) alertNewUser(ctx context.Context, name, email string) {
	if s.alerts == nil {
		return
	}
	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminAlertTimeout)
	s.alertsWG.Add(1)
	go func() {
		defer s.alertsWG.Done()
		defer cancel()
		if err := s.alerts.NotifyNewUser(alertCtx, name, email); err != nil {
			s.logger.Warn("admin alert failed", slog.Any("error", err))
		}
	}()
}

// VerifyAccount consumes the verification code and activates the account.
func (s *AuthService) VerifyAccount(ctx context.Context, userID uuid.UUID, code string) error {
	ok, err := s.users.ConsumeVerificationCode(ctx, userID, strings.TrimSpace(code))
	if err != nil {
		return apperr.Dependency(msgInternal, err)
	}
	if !ok {
		metrics.AuthEvents.WithLabelValues("verify_account", "rejected").Inc()
		return apperr.NotFound(msgInvalidVerify)
	}
	metrics.AuthEvents.WithLabelValues("verify_account", "ok").Inc()
	return nil
}

// ResendVerification replaces the verification code and sends it again.
func (s *AuthService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperr.Validation(msgAlreadyVerified)
	}

	code, err := s.newCode()
	if err != nil {
		return apperr.Dependency(msgInternal, err)
	}
	if err := s.users.SetVerificationCode(ctx, user.ID, code); err != nil {
		return s.storeError(err)
	}

	if err := s.notifier.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		metrics.NotifierFailures.WithLabelValues("verification").Inc()
		return apperr.Dependency(msgDeliveryFailed, err)
	}
	metrics.AuthEvents.WithLabelValues("resend_verification", "ok").Inc()
	return nil
}

// Login checks the password and starts the second factor. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(in.Password)
			metrics.AuthEvents.WithLabelValues("login", "rejected").Inc()
			return nil, apperr.Auth(msgBadCredentials)
		}
		return nil, apperr.Dependency(msgInternal, err)
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		metrics.AuthEvents.WithLabelValues("login", "rejected").Inc()
		return nil, apperr.Auth(msgBadCredentials)
	}
	if !user.IsVerified {
		metrics.AuthEvents.WithLabelValues("login", "unverified").Inc()
		return nil, apperr.Auth(msgNotVerified)
	}

	if err := s.issueLoginCode(ctx, user); err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("login", "ok").Inc()
	return &LoginResult{Requires2FA: true, UserID: user.ID}, nil
}

// VerifyLogin consumes the second-factor code and issues a session.
func (s *AuthService) VerifyLogin(ctx context.Context, userID uuid.UUID, code string) (*Session, error) {
	ok, err := s.users.ConsumeLoginCode(ctx, userID, strings.TrimSpace(code), s.clock())
	if err != nil {
		return nil, apperr.Dependency(msgInternal, err)
	}
	if !ok {
		metrics.AuthEvents.WithLabelValues("verify_login", "rejected").Inc()
		return nil, apperr.Auth(msgInvalidLoginCode)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.sessions.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, apperr.Dependency(msgInternal, err)
	}

	metrics.AuthEvents.WithLabelValues("verify_login", "ok").Inc()
	s.logger.Info("session issued", slog.String("user_id", user.ID.String()))
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

// Resend2FA replaces the login code and sends it again. Only the newest
// code is accepted afterwards.
func (s *AuthService) Resend2FA(ctx context.Context, userID uuid.UUID) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return apperr.Auth(msgNotVerified)
	}
	if err := s.issueLoginCode(ctx, user); err != nil {
		return err
	}
	metrics.AuthEvents.WithLabelValues("resend_2fa", "ok").Inc()
	return nil
}

// Profile returns the stored user.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, userID)
}

func (s *AuthService) issueLoginCode(ctx context.Context, user *models.User) error {
	code, err := s.newCode()
	if err != nil {
		return apperr.Dependency(msgInternal, err)
	}
	expires := s.clock().Add(s.codeTTL)
	if err := s.users.SetLoginCode(ctx, user.ID, code, expires); err != nil {
		return s.storeError(err)
	}

	if err := s.notifier.SendLoginCode(ctx, user.Email, user.Name, code, s.codeTTL); err != nil {
		metrics.NotifierFailures.WithLabelValues("login").Inc()
		s.logger.Error("login code delivery failed",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
		return apperr.Dependency(msgDeliveryFailed, err)
	}
	return nil
}

func (s *AuthService) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, s.storeError(err)
	}
	return user, nil
}

func (s *AuthService) storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	return apperr.Dependency(msgInternal, err)
}
