package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/railsched/core/metrics"
	"github.com/kilianp07/railsched/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes one schedule_generated point.
func (s *InfluxSink) RecordPlan(stats coremetrics.PlanStats) error {
	p := write.NewPointWithMeasurement("schedule_generated").
		AddTag("schedule_id", strconv.Itoa(stats.ScheduleID)).
		AddField("trains", stats.Trains).
		AddField("excluded", stats.Excluded).
		AddField("events", stats.Events).
		AddField("conflicts", stats.Conflicts).
		AddField("requests", stats.Requests).
		AddField("waiting_s", stats.Waiting.Seconds()).
		AddField("duration_ms", float64(stats.Duration.Microseconds())/1000).
		SetTime(stats.Time)
	return s.write(p)
}

// RecordConflict writes one conflict_wait point.
func (s *InfluxSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	p := write.NewPointWithMeasurement("conflict_wait").
		AddTag("schedule_id", strconv.Itoa(ev.ScheduleID)).
		AddTag("train_id", strconv.Itoa(ev.TrainID)).
		AddTag("kind", ev.Kind).
		AddField("blocker_id", ev.BlockerID).
		AddField("location", ev.Location).
		AddField("wait_s", ev.Wait.Seconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDispatch writes one train_dispatched point.
func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	p := write.NewPointWithMeasurement("train_dispatched").
		AddTag("schedule_id", strconv.Itoa(ev.ScheduleID)).
		AddTag("train_id", strconv.Itoa(ev.TrainID)).
		AddField("record_id", ev.RecordID).
		AddField("events", ev.Events).
		AddField("lost_s", ev.Lost.Seconds()).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
