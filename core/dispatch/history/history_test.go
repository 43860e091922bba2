package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/core/track"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleRecord(id string, trainID, scheduleID int, ts time.Time) Record {
	fac := track.Facility(model.Facility{ID: "A"})
	seg := track.Plain(model.Segment{ID: "S", Length: 5000, Tracks: 1, SpeedLimitKMH: 72})
	return Record{
		ID:         id,
		Timestamp:  ts,
		ScheduleID: scheduleID,
		TrainID:    trainID,
		Events: []schedule.Event{
			{ID: 1, ScheduleID: scheduleID, TrainID: trainID, From: fac, To: seg,
				Interval: schedule.Span(t0, 0), Type: schedule.MovementToSegment},
			{ID: 2, ScheduleID: scheduleID, TrainID: trainID, From: seg, To: fac,
				Interval: schedule.Span(t0, 250*time.Second), Type: schedule.MovementInSegment},
		},
	}
}

func stores(t *testing.T) map[string]Store {
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "history.jsonl"))
	require.NoError(t, err)
	rotating, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "history.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	out := map[string]Store{
		"memory":   NewMemoryStore(),
		"jsonl":    jsonl,
		"rotating": rotating,
		"sqlite":   sqlite,
	}
	t.Cleanup(func() {
		for _, s := range out {
			_ = s.Close()
		}
	})
	return out
}

func TestStoreContract(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Append(ctx, sampleRecord("r1", 1, 1, t0)))
			require.NoError(t, s.Append(ctx, sampleRecord("r2", 2, 1, t0.Add(time.Minute))))
			require.NoError(t, s.Append(ctx, sampleRecord("r3", 3, 2, t0.Add(2*time.Minute))))

			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "r1", all[0].ID)
			require.Len(t, all[0].Events, 2)
			assert.Equal(t, schedule.MovementInSegment, all[0].Events[1].Type)
			assert.Equal(t, "Segment:S", all[0].Events[1].From.Name())
			assert.True(t, all[0].Events[1].Interval.End.Equal(t0.Add(250*time.Second)))

			byTrain, err := s.Query(ctx, Query{TrainID: 2})
			require.NoError(t, err)
			require.Len(t, byTrain, 1)
			assert.Equal(t, "r2", byTrain[0].ID)

			bySchedule, err := s.Query(ctx, Query{ScheduleID: 2})
			require.NoError(t, err)
			require.Len(t, bySchedule, 1)

			window, err := s.Query(ctx, Query{Start: t0.Add(30 * time.Second), End: t0.Add(90 * time.Second)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, 2, window[0].TrainID)
		})
	}
}

func writeTruncated(t *testing.T, path string) {
	t.Helper()
	first, err := json.Marshal(sampleRecord("r1", 1, 1, t0))
	require.NoError(t, err)
	second, err := json.Marshal(sampleRecord("r2", 2, 1, t0.Add(time.Minute)))
	require.NoError(t, err)
	data := append(append(first, '\n'), second[:len(second)/2]...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestJSONLStoreRejectsTruncatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	writeTruncated(t, path)
	store, err := NewJSONLStore(path)
	require.NoError(t, err)

	recs, err := store.Query(context.Background(), Query{})
	require.Error(t, err)
	assert.Nil(t, recs)
	assert.True(t, errors.Is(err, ErrCorruptRecord))
	var cerr *CorruptRecordError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 2, cerr.Line)
	assert.Equal(t, path, cerr.File)
}

func TestRotatingJSONLStoreRejectsTruncatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	writeTruncated(t, path)
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Query(context.Background(), Query{TrainID: 1})
	assert.True(t, errors.Is(err, ErrCorruptRecord))
}

func TestJSONLStoreIgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	line, err := json.Marshal(sampleRecord("r1", 1, 1, t0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(append([]byte("\n"), line...), '\n', '\n'), 0o644))
	store, err := NewJSONLStore(path)
	require.NoError(t, err)

	recs, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRotatingJSONLStoreRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	big := strings.Repeat("x", 200*1024)
	for i := 0; i < 8; i++ {
		rec := sampleRecord("r", i+1, 1, t0.Add(time.Duration(i)*time.Second))
		rec.TrainName = big
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "expected rotated files")

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 8)
	assert.Equal(t, 1, out[0].TrainID)
	assert.Equal(t, 8, out[7].TrainID)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		cfg  Config
		want any
	}{
		"memory":   {Config{Backend: "memory"}, &MemoryStore{}},
		"jsonl":    {Config{Path: filepath.Join(dir, "h.jsonl")}, &JSONLStore{}},
		"rotating": {Config{Path: filepath.Join(dir, "r.jsonl"), MaxSizeMB: 5}, &RotatingJSONLStore{}},
		"sqlite":   {Config{Backend: "sqlite", Path: filepath.Join(dir, "h.db")}, &SQLiteStore{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Open(tc.cfg)
			require.NoError(t, err)
			defer func() { _ = s.Close() }()
			assert.IsType(t, tc.want, s)
		})
	}

	_, err := Open(Config{Backend: "postgres", Path: "x"})
	assert.Error(t, err)
	_, err = Open(Config{Backend: "jsonl", Path: "x", MaxBackups: -1})
	assert.Error(t, err)
}

func TestReplayKeepsLatestRecordPerTrain(t *testing.T) {
	old := sampleRecord("r1", 1, 1, t0)
	newer := sampleRecord("r2", 1, 2, t0.Add(time.Hour))
	newer.Events = newer.Events[:1]
	other := sampleRecord("r3", 2, 1, t0)

	s := Replay(5, []Record{old, other, newer})
	assert.Equal(t, 5, s.ID)
	assert.Len(t, s.Timeline(1), 1)
	assert.Len(t, s.Timeline(2), 2)
	for _, e := range s.AllEvents() {
		assert.Equal(t, 5, e.ScheduleID)
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, Dispatched([]Record{old, other, newer}))
}
