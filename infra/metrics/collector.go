package metrics

import (
	"context"

	"github.com/kilianp07/railsched/core/events"
	coremetrics "github.com/kilianp07/railsched/core/metrics"
	"github.com/kilianp07/railsched/infra/logger"
	"github.com/kilianp07/railsched/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards events to the
// sink. It stops when the context is cancelled or the bus is closed; the
// returned channel is closed once every buffered event has been handled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics %s: %v", ev.EventName(), err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.PlanEvent:
		return sink.RecordPlan(coremetrics.PlanStats{
			ScheduleID: e.ScheduleID,
			Trains:     e.Trains,
			Excluded:   e.Excluded,
			Events:     e.Events,
			Conflicts:  e.Conflicts,
			Requests:   e.Requests,
			Waiting:    e.Waiting,
			Duration:   e.Duration,
			Time:       e.Time,
		})
	case events.ConflictEvent:
		if r, ok := sink.(coremetrics.ConflictRecorder); ok {
			return r.RecordConflict(coremetrics.ConflictEvent{
				ScheduleID: e.ScheduleID,
				TrainID:    e.TrainID,
				BlockerID:  e.BlockerID,
				Kind:       e.Kind,
				Location:   e.Location,
				Wait:       e.Wait.Duration(),
				Time:       e.Time,
			})
		}
	case events.DispatchEvent:
		if r, ok := sink.(coremetrics.DispatchRecorder); ok {
			return r.RecordDispatch(coremetrics.DispatchEvent{
				RecordID:   e.RecordID,
				ScheduleID: e.ScheduleID,
				TrainID:    e.TrainID,
				Events:     e.Events,
				Lost:       e.Lost,
				Time:       e.Time,
			})
		}
	}
	return nil
}
