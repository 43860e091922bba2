package schedule

import (
	"errors"
	"fmt"

	"github.com/kilianp07/railsched/core/track"
)

// ErrDuplicateID is returned when an identifier is already in use.
var ErrDuplicateID = errors.New("duplicate id")

// EventID identifies an event inside one schedule.
type EventID uint64

// EventType classifies what a train is doing during an event.
type EventType int

const (
	Waiting EventType = iota
	WaitingForAssemble
	MovementToSegment
	MovementInSegment
	MovementInSiding
)

var eventTypeNames = map[EventType]string{
	Waiting:            "WAITING",
	WaitingForAssemble: "WAITING_FOR_ASSEMBLE",
	MovementToSegment:  "MOVEMENT_TO_SEGMENT",
	MovementInSegment:  "MOVEMENT_IN_SEGMENT",
	MovementInSiding:   "MOVEMENT_IN_SIDING",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// IsWait reports whether the train is standing still during the event.
func (t EventType) IsWait() bool { return t == Waiting || t == WaitingForAssemble }

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *EventType) UnmarshalText(b []byte) error {
	for k, v := range eventTypeNames {
		if v == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", string(b))
}

// Event records one train occupying From during Interval, heading to To.
type Event struct {
	ID         EventID        `json:"id"`
	ScheduleID int            `json:"schedule_id"`
	Interval   Interval       `json:"interval"`
	From       track.Location `json:"from"`
	To         track.Location `json:"to"`
	TrainID    int            `json:"train_id"`
	Type       EventType      `json:"type"`
}

// IDAllocator hands out event ids for one schedule. Ids are never reused,
// even after the event holding one is removed.
type IDAllocator struct {
	next uint64
}

// NewIDAllocator returns an allocator starting at 1.
func NewIDAllocator() *IDAllocator { return &IDAllocator{} }

// Next returns a fresh id.
func (a *IDAllocator) Next() EventID {
	a.next++
	return EventID(a.next)
}
