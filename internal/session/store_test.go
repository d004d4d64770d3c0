package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/finanzas-be/internal/models"
	"github.com/hongminglow/finanzas-be/internal/storage/memory"
	"github.com/hongminglow/finanzas-be/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 11, 5, 14, 30, 0, 0, time.UTC)

func admin() models.User {
	return models.User{ID: 1, Email: "admin@finanzas.com", Role: models.Administrator}
}

func TestStartThenCurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewKV()).WithClock(func() time.Time { return fixedNow })

	require.NoError(t, store.Start(ctx, admin()))

	sess, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, "admin@finanzas.com", sess.Email)
	assert.Equal(t, models.Administrator, sess.Role)
	assert.True(t, fixedNow.Equal(sess.LoginAt))
}

func TestStartReplacesPriorSession(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewKV())

	require.NoError(t, store.Start(ctx, admin()))
	require.NoError(t, store.Start(ctx, models.User{ID: 4, Email: "auditor@finanzas.com", Role: models.Auditor}))

	sess, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), sess.UserID)
	assert.Equal(t, models.Auditor, sess.Role)
}

func TestEndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memory.NewKV())

	require.NoError(t, store.Start(ctx, admin()))
	require.NoError(t, store.End(ctx))
	require.NoError(t, store.End(ctx))

	_, ok, err := store.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := store.IsActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestNoSessionWithoutUserID(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.PutAll(ctx, map[string]string{"user_email": "orphan@finanzas.com"}))

	active, err := NewStore(kv).IsActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCorruptUserID(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	require.NoError(t, kv.PutAll(ctx, map[string]string{"user_id": "abc"}))

	_, _, err := NewStore(kv).Current(ctx)
	assert.Error(t, err)
}

func TestSessionOnSqlite(t *testing.T) {
	ctx := context.Background()
	kv, err := sqlite.NewKV(ctx, ":memory:")
	require.NoError(t, err)
	defer kv.Close()

	store := NewStore(kv)
	require.NoError(t, store.Start(ctx, admin()))

	active, err := store.IsActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, store.End(ctx))
	active, err = store.IsActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}

type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) PutAll(context.Context, map[string]string) error  { return f.err }
func (f failingKV) Clear(context.Context) error                      { return f.err }

func TestBackendErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	store := NewStore(failingKV{err: boom})

	assert.ErrorIs(t, store.Start(ctx, admin()), boom)
	assert.ErrorIs(t, store.End(ctx), boom)
	_, err := store.IsActive(ctx)
	assert.ErrorIs(t, err, boom)
}
