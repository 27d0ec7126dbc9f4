package session

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dmitrijs2005/spendtrack/internal/client/models"
	"github.com/dmitrijs2005/spendtrack/internal/client/storage"
	"github.com/dmitrijs2005/spendtrack/internal/logging"
	"github.com/dmitrijs2005/spendtrack/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupBackend(t *testing.T, name string) (*storage.DualTier, *metrics.Metrics) {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE storage (key TEXT PRIMARY KEY, value TEXT NOT NULL);`)
	require.NoError(t, err)

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := metrics.NewUnregistered()
	b := storage.NewDualTier(context.Background(), storage.NewSQLiteTier(db), storage.NewMemoryTier(), log, m)
	require.True(t, b.PrimaryAvailable())
	return b, m
}

func newStore(t *testing.T, name string) (*Store, *storage.DualTier, *metrics.Metrics) {
	t.Helper()
	b, m := setupBackend(t, name)
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewStore(b, log, m), b, m
}

func profile() *models.UserProfile {
	return &models.UserProfile{ID: 1, Email: "a@x.com", FirstName: "A"}
}

// fakeBackend scripts Put failures per key.
type fakeBackend struct {
	data    map[string]string
	failPut map[string]bool
	removed []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string]string), failPut: make(map[string]bool)}
}

func (f *fakeBackend) Put(ctx context.Context, key, value string) bool {
	if f.failPut[key] {
		return false
	}
	f.data[key] = value
	return true
}

func (f *fakeBackend) Get(ctx context.Context, key string) (string, bool) {
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeBackend) Remove(ctx context.Context, key string) {
	delete(f.data, key)
	f.removed = append(f.removed, key)
}

func (f *fakeBackend) Clear(ctx context.Context) { f.data = make(map[string]string) }

func (f *fakeBackend) Subscribe(fn storage.Listener) func() { return func() {} }

// ---- TESTS ----

func TestSetSession_GetSession_RoundTrip(t *testing.T) {
	s, _, _ := newStore(t, "sess_roundtrip")
	ctx := context.Background()

	require.True(t, s.SetSession(ctx, "T1", profile()))

	rec, ok := s.GetSession(ctx)
	require.True(t, ok)
	require.Equal(t, models.Credential("T1"), rec.Credential)
	require.Equal(t, profile(), rec.Profile)
	require.True(t, s.HasValidSession(ctx))
}

func TestSetSession_ReplacedWholesale(t *testing.T) {
	s, _, _ := newStore(t, "sess_replace")
	ctx := context.Background()

	require.True(t, s.SetSession(ctx, "T1", profile()))
	second := &models.UserProfile{ID: 2, Email: "b@x.com", FirstName: "B"}
	require.True(t, s.SetSession(ctx, "T2", second))

	rec, ok := s.GetSession(ctx)
	require.True(t, ok)
	require.Equal(t, models.Credential("T2"), rec.Credential)
	require.Equal(t, second, rec.Profile)
}

func TestSetSession_RejectsIncompleteRecord(t *testing.T) {
	s, _, _ := newStore(t, "sess_incomplete")
	ctx := context.Background()

	require.False(t, s.SetSession(ctx, "", profile()))
	require.False(t, s.SetSession(ctx, "T1", nil))
	require.False(t, s.HasValidSession(ctx))
}

func TestSetSession_RollsBackOnProfileWriteFailure(t *testing.T) {
	fb := newFakeBackend()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := NewStore(fb, log, metrics.NewUnregistered())
	ctx := context.Background()

	fb.failPut[KeyProfile] = true
	require.False(t, s.SetSession(ctx, "T1", profile()))

	// the already-written credential must not survive as a dangling record
	_, ok := fb.Get(ctx, KeyCredential)
	require.False(t, ok)
	require.Contains(t, fb.removed, KeyCredential)
}

func TestGetSession_PurgesCorruptProfile(t *testing.T) {
	s, b, m := newStore(t, "sess_corrupt")
	ctx := context.Background()

	require.True(t, b.Put(ctx, KeyCredential, "T1"))
	require.True(t, b.Put(ctx, KeyProfile, "{not valid json"))

	_, ok := s.GetSession(ctx)
	require.False(t, ok)

	// self-healing: the corrupt key is gone, later reads stay clean
	_, ok = b.Get(ctx, KeyProfile)
	require.False(t, ok)
	_, ok = s.GetSession(ctx)
	require.False(t, ok)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionCorruptPurged))
}

func TestGetSession_AbsentKeyDoesNotPurgeOther(t *testing.T) {
	s, b, _ := newStore(t, "sess_absent")
	ctx := context.Background()

	require.True(t, b.Put(ctx, KeyCredential, "T1"))

	_, ok := s.GetSession(ctx)
	require.False(t, ok)

	// the credential entry is left alone
	got, ok := b.Get(ctx, KeyCredential)
	require.True(t, ok)
	require.Equal(t, "T1", got)
}

func TestClearSession_IsAbsorbing(t *testing.T) {
	s, _, _ := newStore(t, "sess_clear")
	ctx := context.Background()

	require.True(t, s.SetSession(ctx, "T1", profile()))
	s.ClearSession(ctx)
	s.ClearSession(ctx) // idempotent

	require.False(t, s.HasValidSession(ctx))
	_, ok := s.Credential(ctx)
	require.False(t, ok)

	// only a new successful SetSession revives the session
	require.True(t, s.SetSession(ctx, "T2", profile()))
	require.True(t, s.HasValidSession(ctx))
}

func TestCredential_Accessor(t *testing.T) {
	s, _, _ := newStore(t, "sess_cred")
	ctx := context.Background()

	_, ok := s.Credential(ctx)
	require.False(t, ok)

	require.True(t, s.SetSession(ctx, "T1", profile()))
	cred, ok := s.Credential(ctx)
	require.True(t, ok)
	require.Equal(t, models.Credential("T1"), cred)
}

func TestSetSession_SucceedsViaEphemeralFallback(t *testing.T) {
	// a backend with no primary tier degrades but still functions
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b := storage.NewDualTier(context.Background(), nil, storage.NewMemoryTier(), log, metrics.NewUnregistered())
	require.False(t, b.PrimaryAvailable())

	s := NewStore(b, log, metrics.NewUnregistered())
	ctx := context.Background()

	require.True(t, s.SetSession(ctx, "T1", profile()))
	require.True(t, s.HasValidSession(ctx))
}
