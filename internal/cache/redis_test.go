package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, ttl time.Duration) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Host(), mr.Port(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client, ttl), mr
}

func sampleRecord(taskID string) models.NarrationRecord {
	return models.NarrationRecord{
		DedupKey:       "d41d8cd9",
		SourceBucket:   "docs",
		SourceKey:      "reports/q1.pdf",
		TaskID:         taskID,
		AudioNamespace: "docs",
		AudioKey:       "audio/reports/q1/" + taskID + ".mp3",
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNarrationKey(t *testing.T) {
	assert.Equal(t, "narration:abc123", NarrationKey("abc123"))
}

func TestRedisLedger_LookupMiss(t *testing.T) {
	ledger, _ := newTestLedger(t, time.Hour)

	rec, err := ledger.Lookup(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisLedger_RecordThenLookup(t *testing.T) {
	ledger, mr := newTestLedger(t, 24*time.Hour)
	ctx := context.Background()
	want := sampleRecord("exec-1")

	require.NoError(t, ledger.Record(ctx, want))
	assert.Equal(t, 24*time.Hour, mr.TTL(NarrationKey(want.DedupKey)))

	got, err := ledger.Lookup(ctx, want.DedupKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestRedisLedger_FirstRecordWins(t *testing.T) {
	ledger, _ := newTestLedger(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, ledger.Record(ctx, sampleRecord("exec-1")))
	require.NoError(t, ledger.Record(ctx, sampleRecord("exec-2")))

	got, err := ledger.Lookup(ctx, "d41d8cd9")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "exec-1", got.TaskID)
}

func TestRedisLedger_EntriesExpire(t *testing.T) {
	ledger, mr := newTestLedger(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, ledger.Record(ctx, sampleRecord("exec-1")))

	mr.FastForward(time.Hour + time.Second)

	got, err := ledger.Lookup(ctx, "d41d8cd9")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisLedger_Errors(t *testing.T) {
	ledger, mr := newTestLedger(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, mr.Set(NarrationKey("corrupt"), "{not json"))
	_, err := ledger.Lookup(ctx, "corrupt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode narration record")

	mr.SetError("ERR server unavailable")
	_, err = ledger.Lookup(ctx, "d41d8cd9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get")

	err = ledger.Record(ctx, sampleRecord("exec-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis setnx")
}
