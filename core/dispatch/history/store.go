package history

import (
	"context"
	"time"

	"github.com/kilianp07/railsched/core/schedule"
)

// Record freezes the events of one dispatched train.
type Record struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	ScheduleID int              `json:"schedule_id"`
	TrainID    int              `json:"train_id"`
	TrainName  string           `json:"train_name,omitempty"`
	Events     []schedule.Event `json:"events"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	TrainID    int
	ScheduleID int
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.TrainID != 0 && r.TrainID != q.TrainID {
		return false
	}
	if q.ScheduleID != 0 && r.ScheduleID != q.ScheduleID {
		return false
	}
	return true
}

// Store persists dispatch records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
