package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/observability"
	"github.com/hongminglow/finanzas-be/internal/session"
	"github.com/hongminglow/finanzas-be/internal/storage"
)

// RecoveryCode is the one code accepted by ResetPassword. It is fixed, not
// generated per request.
const RecoveryCode = "123456"

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// User-facing messages.
const (
	MsgEnterEmail          = "enter email"
	MsgEnterPassword       = "enter password"
	MsgBadCredentials      = "incorrect email or password"
	MsgAccountDeactivated  = "account deactivated"
	MsgEmailNotVerified    = "verify email before logging in"
	MsgNameTooShort        = "name must be at least 2 characters"
	MsgInvalidEmail        = "invalid email"
	MsgPasswordTooShort    = "password must be at least 6 characters"
	MsgEmailTaken          = "email already registered"
	MsgAccountCreated      = "account created, check your email to verify"
	MsgNoAccount           = "no account with that email"
	MsgBadRecoveryCode     = "incorrect recovery code"
	MsgPasswordNotUpdated  = "failed to update password"
	MsgPasswordUpdated     = "password updated successfully"
	msgRecoveryCodeSentFmt = "recovery code sent to %s. Code: %s"
)

// Service authenticates users against the directory and keeps the session.
type Service struct {
	users    storage.UserStore
	sessions *session.Store
	log      *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService wires the engine. metrics may be nil.
func NewService(users storage.UserStore, sessions *session.Store, log *slog.Logger, metrics *observability.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, sessions: sessions, log: log, metrics: metrics, now: time.Now}
}

// Login validates credentials and account state, then starts a session.
// Checks run in a fixed order and the first failure is returned.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, error) {
	if email == "" {
		s.metrics.ObserveLogin("invalid_input")
		return models.User{}, validationError(MsgEnterEmail)
	}
	if password == "" {
		s.metrics.ObserveLogin("invalid_input")
		return models.User{}, validationError(MsgEnterPassword)
	}

	user, err := s.users.FindByCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.ObserveLogin("invalid_credentials")
			s.log.InfoContext(ctx, "login rejected", "email", email, "reason", "credentials")
			return models.User{}, authorizationError(MsgBadCredentials)
		}
		s.metrics.ObserveLogin("error")
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if !user.Active {
		s.metrics.ObserveLogin("inactive")
		s.log.InfoContext(ctx, "login rejected", "user_id", user.ID, "reason", "inactive")
		return models.User{}, authorizationError(MsgAccountDeactivated)
	}
	if !user.EmailVerified {
		s.metrics.ObserveLogin("unverified")
		s.log.InfoContext(ctx, "login rejected", "user_id", user.ID, "reason", "unverified")
		return models.User{}, authorizationError(MsgEmailNotVerified)
	}

	if err := s.sessions.Start(ctx, user); err != nil {
		s.metrics.ObserveLogin("error")
		return models.User{}, err
	}
	s.metrics.ObserveLogin("success")
	s.log.InfoContext(ctx, "login succeeded", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Register creates a basic, unverified, active account.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	if utf8.RuneCountInString(name) < minNameLength {
		return "", validationError(MsgNameTooShort)
	}
	if !strings.Contains(email, "@") {
		return "", validationError(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "", validationError(MsgPasswordTooShort)
	}

	user := models.User{
		Name:          name,
		Email:         email,
		Password:      password,
		Role:          models.BasicUser,
		Active:        true,
		EmailVerified: false,
		RegisteredAt:  s.now().UTC(),
		Preferences:   models.DefaultPreferences(),
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", validationError(MsgEmailTaken)
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)
	return MsgAccountCreated, nil
}

// RequestPasswordReset issues the recovery code for a known account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", validationError(MsgEnterEmail)
	}
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", notFoundError(MsgNoAccount)
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	s.log.InfoContext(ctx, "recovery code issued", "email", email)
	return fmt.Sprintf(msgRecoveryCodeSentFmt, email, RecoveryCode), nil
}

// ResetPassword replaces the password when code matches the recovery code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return "", validationError(MsgPasswordTooShort)
	}
	if code != RecoveryCode {
		return "", authorizationError(MsgBadRecoveryCode)
	}
	updated, err := s.users.UpdatePassword(ctx, email, newPassword)
	if err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}
	if !updated {
		return "", notFoundError(MsgPasswordNotUpdated)
	}
	s.log.InfoContext(ctx, "password reset", "email", email)
	return MsgPasswordUpdated, nil
}

// CurrentUser resolves the session's user id against the directory.
// ok is false when there is no session or the user is gone.
func (s *Service) CurrentUser(ctx context.Context) (models.User, bool, error) {
	user, _, ok, err := s.CurrentSessionUser(ctx)
	return user, ok, err
}

// CurrentSessionUser reads the session once and resolves its user, so the
// pair always describes the same login.
func (s *Service) CurrentSessionUser(ctx context.Context) (models.User, models.Session, bool, error) {
	sess, ok, err := s.sessions.Current(ctx)
	if err != nil || !ok {
		return models.User{}, models.Session{}, false, err
	}
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, models.Session{}, false, nil
		}
		return models.User{}, models.Session{}, false, fmt.Errorf("find user: %w", err)
	}
	return user, sess, true, nil
}

// IsAuthenticated reports whether a session is stored.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.sessions.IsActive(ctx)
}

// Logout ends the session. Safe to call when logged out.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.End(ctx); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "logged out")
	return nil
}

// Authorize checks p against the role stored in the session.
func (s *Service) Authorize(ctx context.Context, p models.Permission) (bool, error) {
	sess, ok, err := s.sessions.Current(ctx)
	if err != nil || !ok {
		return false, err
	}
	return models.HasPermission(sess.Role, p), nil
}
