package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/railsched/core/metrics"
)

func captureServer(t *testing.T, bodies *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*bodies = append(*bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordPlan(t *testing.T) {
	var bodies []string
	srv := captureServer(t, &bodies)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	stats := coremetrics.PlanStats{
		ScheduleID: 3, Trains: 4, Excluded: 1, Events: 20, Conflicts: 2, Requests: 30,
		Waiting: 90 * time.Second, Duration: 1500 * time.Microsecond, Time: now,
	}
	if err := sink.RecordPlan(stats); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("schedule_generated").
		AddTag("schedule_id", "3").
		AddField("trains", 4).
		AddField("excluded", 1).
		AddField("events", 20).
		AddField("conflicts", 2).
		AddField("requests", 30).
		AddField("waiting_s", 90.0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != expected {
		t.Errorf("unexpected body: %v", bodies)
	}
}

func TestInfluxSink_RecordConflictAndDispatch(t *testing.T) {
	var bodies []string
	srv := captureServer(t, &bodies)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordConflict(coremetrics.ConflictEvent{
		ScheduleID: 1, TrainID: 2, BlockerID: 1, Kind: "frontal_collision",
		Location: "Segment:S", Wait: 190 * time.Second, Time: now,
	}); err != nil {
		t.Fatalf("record conflict: %v", err)
	}
	if err := sink.RecordDispatch(coremetrics.DispatchEvent{
		RecordID: "r1", ScheduleID: 1, TrainID: 2, Events: 3, Lost: 190 * time.Second, Time: now,
	}); err != nil {
		t.Fatalf("record dispatch: %v", err)
	}
	conflict := write.NewPointWithMeasurement("conflict_wait").
		AddTag("schedule_id", "1").
		AddTag("train_id", "2").
		AddTag("kind", "frontal_collision").
		AddField("blocker_id", 1).
		AddField("location", "Segment:S").
		AddField("wait_s", 190.0).
		SetTime(now)
	dispatch := write.NewPointWithMeasurement("train_dispatched").
		AddTag("schedule_id", "1").
		AddTag("train_id", "2").
		AddField("record_id", "r1").
		AddField("events", 3).
		AddField("lost_s", 190.0).
		SetTime(now)
	want := []string{
		strings.TrimSpace(write.PointToLineProtocol(conflict, time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(dispatch, time.Nanosecond)),
	}
	if len(bodies) != 2 || bodies[0] != want[0] || bodies[1] != want[1] {
		t.Errorf("unexpected bodies: %v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
