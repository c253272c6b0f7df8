package mood

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindease/backend/internal/model/mood"
	"github.com/mindease/backend/internal/store/kv"
)

type failingStore struct {
	kv.Store
	err error
}

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }

func newTestService(t *testing.T, loc *time.Location, times ...time.Time) (*Service, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	svc := NewService(store, loc)
	svc.now = func() time.Time {
		require.NotEmpty(t, times, "clock called more often than expected")
		next := times[0]
		times = times[1:]
		return next
	}
	return svc, store
}

func TestLogPrependsAndRewritesSlot(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	svc, store := newTestService(t, time.UTC, first, second)

	e1, err := svc.Log(ctx, "happy", "  slept well ")
	require.NoError(t, err)
	assert.Equal(t, mood.Happy, e1.Mood)
	assert.Equal(t, "slept well", e1.Note)
	assert.Equal(t, "2026-10-12T09:30:00.000Z", e1.Timestamp)
	assert.NotEmpty(t, e1.ID)

	e2, err := svc.Log(ctx, "Anxious", "")
	require.NoError(t, err)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, e2, entries[0])
	assert.Equal(t, e1, entries[1])

	raw, err := store.Get(ctx, SlotKey)
	require.NoError(t, err)
	var stored []mood.Entry
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, entries, stored)
}

func TestLogRejectsUnknownMood(t *testing.T) {
	svc, store := newTestService(t, time.UTC)

	_, err := svc.Log(context.Background(), "Bored", "")
	require.ErrorIs(t, err, ErrUnknownMood)

	_, err = store.Get(context.Background(), SlotKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestListEmptyAndCorruptSlot(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, time.UTC)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	require.NoError(t, store.Set(ctx, SlotKey, "null"))
	entries, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Set(ctx, SlotKey, "{not json"))
	_, err = svc.List(ctx)
	assert.Error(t, err)
}

func TestListPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("redis down")
	svc := NewService(failingStore{err: boom}, nil)

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.Log(context.Background(), "Calm", "")
	assert.ErrorIs(t, err, boom)
}

func TestWeeklySummaryGroupsByDateThenMood(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, time.UTC)

	log := []mood.Entry{
		{Mood: mood.Sad, Timestamp: "2026-10-14T20:00:00.000Z"},
		{Mood: mood.Happy, Timestamp: "2026-10-14T08:00:00.000Z"},
		{Mood: mood.Sad, Timestamp: "2026-10-14T07:00:00.000Z"},
		{Mood: mood.Calm, Timestamp: "2026-10-13T22:15:00.000Z"},
		{Mood: mood.Angry, Timestamp: "garbage"},
	}
	raw, err := json.Marshal(log)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, SlotKey, string(raw)))

	summary, err := svc.WeeklySummary(ctx)
	require.NoError(t, err)

	assert.Equal(t, []mood.DaySummary{
		{Date: "10/14/2026", Counts: map[mood.Mood]int{mood.Sad: 2, mood.Happy: 1}},
		{Date: "10/13/2026", Counts: map[mood.Mood]int{mood.Calm: 1}},
		{Date: InvalidDate, Counts: map[mood.Mood]int{mood.Angry: 1}},
	}, summary)
}

func TestWeeklySummaryUsesLocation(t *testing.T) {
	ctx := context.Background()
	tokyo := time.FixedZone("JST", 9*60*60)
	svc, store := newTestService(t, tokyo)

	raw, err := json.Marshal([]mood.Entry{{Mood: mood.Calm, Timestamp: "2026-10-13T22:15:00.000Z"}})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, SlotKey, string(raw)))

	summary, err := svc.WeeklySummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "10/14/2026", summary[0].Date)
}

func TestWeeklySummaryEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	summary, err := svc.WeeklySummary(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}
