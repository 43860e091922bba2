package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/railsched/core/events"
	coremetrics "github.com/kilianp07/railsched/core/metrics"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/internal/eventbus"
)

type captureSink struct {
	plans     []coremetrics.PlanStats
	conflicts []coremetrics.ConflictEvent
	dispatch  []coremetrics.DispatchEvent
}

func (c *captureSink) RecordPlan(s coremetrics.PlanStats) error {
	c.plans = append(c.plans, s)
	return nil
}

func (c *captureSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	c.conflicts = append(c.conflicts, ev)
	return nil
}

func (c *captureSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	c.dispatch = append(c.dispatch, ev)
	return nil
}

func TestEventCollectorForwardsUntilClose(t *testing.T) {
	bus := eventbus.New[events.Event](eventbus.WithBuffer(16))
	sink := &captureSink{}
	done := StartEventCollector(context.Background(), bus, sink, nil)

	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	bus.Publish(events.ConflictEvent{ScheduleID: 1, TrainID: 2, BlockerID: 1, Kind: "segment_occupied",
		Wait: schedule.Interval{Start: t0, End: t0.Add(190 * time.Second)}})
	bus.Publish(events.PlanEvent{ScheduleID: 1, Conflicts: 1})
	bus.Publish(events.DispatchEvent{ScheduleID: 1, TrainID: 2})
	bus.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Len(t, sink.plans, 1)
	if assert.Len(t, sink.conflicts, 1) {
		assert.Equal(t, 190*time.Second, sink.conflicts[0].Wait)
	}
	assert.Len(t, sink.dispatch, 1)
}

func TestEventCollectorSkipsMissingRecorders(t *testing.T) {
	bus := eventbus.New[events.Event]()
	done := StartEventCollector(context.Background(), bus, planOnlySink{}, nil)
	bus.Publish(events.ConflictEvent{})
	bus.Close()
	<-done
}

type planOnlySink struct{}

func (planOnlySink) RecordPlan(coremetrics.PlanStats) error { return nil }
