package metrics

import (
	"time"
)

// PlanStats summarises one generator run.
type PlanStats struct {
	ScheduleID int
	Trains     int
	Excluded   int
	Events     int
	Conflicts  int
	Requests   int
	// Waiting is the time every planned train spends standing, including
	// waits for rolling stock.
	Waiting  time.Duration
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records scheduling activity for observability purposes.
type MetricsSink interface {
	RecordPlan(stats PlanStats) error
}

// ConflictEvent captures one wait inserted by the generator.
type ConflictEvent struct {
	ScheduleID int
	TrainID    int
	BlockerID  int
	Kind       string
	Location   string
	Wait       time.Duration
	Time       time.Time
}

// ConflictRecorder records individual conflicts.
type ConflictRecorder interface {
	RecordConflict(ev ConflictEvent) error
}

// DispatchEvent records a train whose plan was committed.
type DispatchEvent struct {
	RecordID   string
	ScheduleID int
	TrainID    int
	Events     int
	// Lost is the waiting time frozen with the plan.
	Lost time.Duration
	Time time.Time
}

// DispatchRecorder records committed trains.
type DispatchRecorder interface {
	RecordDispatch(ev DispatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanStats) error         { return nil }
func (NopSink) RecordConflict(ConflictEvent) error { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error { return nil }
