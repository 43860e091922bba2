package events

import (
	"time"

	"github.com/kilianp07/railsched/core/schedule"
)

// Event is implemented by every event published on the bus.
type Event interface {
	EventName() string
}

// PlanEvent is published after a generator run.
type PlanEvent struct {
	ScheduleID int
	Trains     int
	Excluded   int
	Events     int
	Conflicts  int
	Requests   int
	Waiting    time.Duration
	Duration   time.Duration
	Time       time.Time
}

func (PlanEvent) EventName() string { return "plan" }

// ConflictEvent is published for each wait inserted while planning.
type ConflictEvent struct {
	ScheduleID int
	TrainID    int
	BlockerID  int
	// Kind is segment_occupied, frontal_collision or held_segment.
	Kind     string
	Location string
	Wait     schedule.Interval
	Time     time.Time
}

func (ConflictEvent) EventName() string { return "conflict" }

// DispatchEvent is published when a train's plan is committed.
type DispatchEvent struct {
	RecordID   string
	ScheduleID int
	TrainID    int
	Events     int
	Lost       time.Duration
	Time       time.Time
}

func (DispatchEvent) EventName() string { return "dispatch" }
