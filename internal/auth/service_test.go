package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/session"
	"github.com/hongminglow/finanzas-be/internal/storage"
	"github.com/hongminglow/finanzas-be/internal/storage/memory"
)

func newTestService(t *testing.T, users storage.UserStore) (*Service, *session.Store) {
	t.Helper()
	if users == nil {
		users = memory.NewDirectory()
	}
	sessions := session.NewStore(memory.NewKV())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(users, sessions, log, nil), sessions
}

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var authErr *Error
	require.True(t, errors.As(err, &authErr), "expected *auth.Error, got %T", err)
	assert.Equal(t, kind, authErr.Kind)
	assert.Equal(t, msg, authErr.Message)
}

func TestLoginSeededRoles(t *testing.T) {
	tests := []struct {
		email string
		role  models.Role
	}{
		{"admin@finanzas.com", models.Administrator},
		{"premium@finanzas.com", models.PremiumUser},
		{"basico@finanzas.com", models.BasicUser},
		{"auditor@finanzas.com", models.Auditor},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			svc, sessions := newTestService(t, nil)
			ctx := context.Background()

			user, err := svc.Login(ctx, tt.email, storage.DemoPassword)
			require.NoError(t, err)
			assert.Equal(t, tt.role, user.Role)

			sess, ok, err := sessions.Current(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, user.ID, sess.UserID)
			assert.Equal(t, tt.role, sess.Role)
		})
	}
}

// lookupSpy fails the test if the directory is consulted.
type lookupSpy struct {
	storage.UserStore
	calls int
}

func (s *lookupSpy) FindByCredentials(ctx context.Context, email, password string) (models.User, error) {
	s.calls++
	return s.UserStore.FindByCredentials(ctx, email, password)
}

func TestLoginEmptyFieldsSkipLookup(t *testing.T) {
	spy := &lookupSpy{UserStore: memory.NewDirectory()}
	svc, _ := newTestService(t, spy)
	ctx := context.Background()

	_, err := svc.Login(ctx, "", "whatever")
	requireKind(t, err, KindValidation, MsgEnterEmail)

	_, err = svc.Login(ctx, "admin@finanzas.com", "")
	requireKind(t, err, KindValidation, MsgEnterPassword)

	_, err = svc.Login(ctx, "", "")
	requireKind(t, err, KindValidation, MsgEnterEmail)

	assert.Zero(t, spy.calls)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, "nobody@finanzas.com", storage.DemoPassword)
	requireKind(t, err, KindAuthorization, MsgBadCredentials)

	active, err := sessions.IsActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t, nil)

	user, err := svc.Login(context.Background(), "ADMIN@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "admin@finanzas.com", user.Email)
}

func TestLoginAccountStateOrder(t *testing.T) {
	users := memory.NewDirectoryWith([]models.User{
		{ID: 1, Email: "off@finanzas.com", Password: "secret1", Role: models.BasicUser, Active: false, EmailVerified: false},
		{ID: 2, Email: "new@finanzas.com", Password: "secret1", Role: models.BasicUser, Active: true, EmailVerified: false},
	})
	svc, _ := newTestService(t, users)
	ctx := context.Background()

	// inactive is reported before unverified
	_, err := svc.Login(ctx, "off@finanzas.com", "secret1")
	requireKind(t, err, KindAuthorization, MsgAccountDeactivated)

	_, err = svc.Login(ctx, "new@finanzas.com", "secret1")
	requireKind(t, err, KindAuthorization, MsgEmailNotVerified)

	// wrong password wins over account state
	_, err = svc.Login(ctx, "off@finanzas.com", "bad-password")
	requireKind(t, err, KindAuthorization, MsgBadCredentials)
}

func TestLoginIsRepeatable(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.Login(ctx, "premium@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)
	second, err := svc.Login(ctx, "premium@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name, userName, email, password, msg string
	}{
		{"short name", "A", "a@example.com", "secret1", MsgNameTooShort},
		{"email without at", "Ana", "ana.example.com", "secret1", MsgInvalidEmail},
		{"short password", "Ana", "ana@example.com", "12345", MsgPasswordTooShort},
		{"name checked first", "", "bad", "1", MsgNameTooShort},
		{"duplicate any case", "Ana", "ADMIN@FINANZAS.COM", "secret1", MsgEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, nil)
			_, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			requireKind(t, err, KindValidation, tt.msg)
		})
	}
}

func TestRegisterCreatesUnverifiedBasicUser(t *testing.T) {
	dir := memory.NewDirectory()
	svc, _ := newTestService(t, dir)
	ctx := context.Background()

	msg, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, MsgAccountCreated, msg)

	u, err := dir.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, models.BasicUser, u.Role)
	assert.True(t, u.Active)
	assert.False(t, u.EmailVerified)
	assert.Equal(t, models.DefaultPreferences(), u.Preferences)

	// new accounts authenticate but are held by the verification gate
	_, err = svc.Login(ctx, "ana@example.com", "secret1")
	requireKind(t, err, KindAuthorization, MsgEmailNotVerified)
}

func TestRegisterAndResetAcceptLongPasswords(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	long := strings.Repeat("a", 73)

	msg, err := svc.Register(ctx, "Ana", "ana@example.com", long)
	require.NoError(t, err)
	assert.Equal(t, MsgAccountCreated, msg)

	msg, err = svc.ResetPassword(ctx, "ana@example.com", RecoveryCode, long+"b")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordUpdated, msg)
}

func TestRequestPasswordReset(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.RequestPasswordReset(ctx, "")
	requireKind(t, err, KindValidation, MsgEnterEmail)

	_, err = svc.RequestPasswordReset(ctx, "ghost@finanzas.com")
	requireKind(t, err, KindNotFound, MsgNoAccount)

	msg, err := svc.RequestPasswordReset(ctx, "basico@finanzas.com")
	require.NoError(t, err)
	assert.Equal(t, "recovery code sent to basico@finanzas.com. Code: 123456", msg)
}

func TestResetPassword(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.ResetPassword(ctx, "basico@finanzas.com", RecoveryCode, "123")
	requireKind(t, err, KindValidation, MsgPasswordTooShort)

	_, err = svc.ResetPassword(ctx, "basico@finanzas.com", "000000", "nueva123")
	requireKind(t, err, KindAuthorization, MsgBadRecoveryCode)

	_, err = svc.ResetPassword(ctx, "ghost@finanzas.com", "000000", "nueva123")
	requireKind(t, err, KindAuthorization, MsgBadRecoveryCode)

	_, err = svc.ResetPassword(ctx, "ghost@finanzas.com", RecoveryCode, "nueva123")
	requireKind(t, err, KindNotFound, MsgPasswordNotUpdated)

	msg, err := svc.ResetPassword(ctx, "basico@finanzas.com", RecoveryCode, "nueva123")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordUpdated, msg)

	_, err = svc.Login(ctx, "basico@finanzas.com", "nueva123")
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "basico@finanzas.com", storage.DemoPassword)
	requireKind(t, err, KindAuthorization, MsgBadCredentials)
}

func TestCurrentUserAndLogout(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, ok, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Login(ctx, "auditor@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)

	user, ok, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Auditor, user.Role)

	authed, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, authed)

	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))

	_, ok, err = svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// countingKV counts reads of the session's user id key.
type countingKV struct {
	*memory.KV
	userIDReads int
}

func (c *countingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "user_id" {
		c.userIDReads++
	}
	return c.KV.Get(ctx, key)
}

func TestCurrentSessionUserReadsSessionOnce(t *testing.T) {
	kv := &countingKV{KV: memory.NewKV()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(memory.NewDirectory(), session.NewStore(kv), log, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, "premium@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)

	kv.userIDReads = 0
	user, sess, ok, err := svc.CurrentSessionUser(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, kv.userIDReads)
	assert.Equal(t, sess.UserID, user.ID)
	assert.Equal(t, sess.Role, user.Role)

	require.NoError(t, svc.Logout(ctx))
	_, sess, ok, err = svc.CurrentSessionUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, sess)
}

func TestAuthorizeUsesSessionRole(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	allowed, err := svc.Authorize(ctx, models.CreateTransaction)
	require.NoError(t, err)
	assert.False(t, allowed, "no session means no permissions")

	_, err = svc.Login(ctx, "admin@finanzas.com", storage.DemoPassword)
	require.NoError(t, err)

	allowed, err = svc.Authorize(ctx, models.ManageUsers)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Authorize(ctx, models.GenerateAuditReports)
	require.NoError(t, err)
	assert.False(t, allowed)
}

type brokenStore struct{ storage.UserStore }

func (brokenStore) FindByCredentials(context.Context, string, string) (models.User, error) {
	return models.User{}, errors.New("connection reset")
}

func TestLoginInfrastructureErrorIsNotAnAuthError(t *testing.T) {
	svc, _ := newTestService(t, brokenStore{UserStore: memory.NewDirectory()})

	_, err := svc.Login(context.Background(), "admin@finanzas.com", storage.DemoPassword)
	require.Error(t, err)
	assert.Zero(t, KindOf(err))
}
