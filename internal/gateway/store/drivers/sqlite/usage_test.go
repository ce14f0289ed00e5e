package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	"github.com/docbrief/docbrief/internal/gateway/store/drivers/sqlite"
	"github.com/docbrief/docbrief/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func record(username string, op domain.Operation, at time.Time) domain.UsageRecord {
	return domain.UsageRecord{
		ID:              idx.NewAt(at),
		Username:        username,
		Operation:       op,
		Model:           "llama3.2",
		PromptChars:     120,
		CompletionChars: 48,
		DurationMS:      350,
		CreatedAt:       at,
	}
}

func TestUsageRoundTrip(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := t.Context()

	rec := record("alice", domain.OpSummarize, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, st.Usage().Insert(ctx, rec))

	got, err := st.Usage().ListByUsername(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec.ID, got[0].ID)
	require.Equal(t, domain.OpSummarize, got[0].Operation)
	require.Equal(t, "llama3.2", got[0].Model)
	require.Equal(t, 120, got[0].PromptChars)
	require.Equal(t, 48, got[0].CompletionChars)
	require.Equal(t, int64(350), got[0].DurationMS)
}

func TestUsageListIsScopedAndOrdered(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := t.Context()
	base := time.Now().UTC()

	older := record("alice", domain.OpQuery, base.Add(-time.Hour))
	newer := record("alice", domain.OpChat, base)
	other := record("bob", domain.OpSummarize, base)

	for _, rec := range []domain.UsageRecord{older, newer, other} {
		require.NoError(t, st.Usage().Insert(ctx, rec))
	}

	// Per-user listing only sees that user's records, newest first.
	got, err := st.Usage().ListByUsername(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, newer.ID, got[0].ID)
	require.Equal(t, older.ID, got[1].ID)

	// Admin listing sees everything.
	all, err := st.Usage().ListAll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestUsageListHonorsLimit(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := t.Context()
	base := time.Now().UTC()

	for i := range 5 {
		rec := record("alice", domain.OpQuery, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, st.Usage().Insert(ctx, rec))
	}

	got, err := st.Usage().ListByUsername(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestUsageEmptyHistory(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	got, err := st.Usage().ListByUsername(t.Context(), "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}
