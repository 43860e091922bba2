package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/railsched/core/dispatch/history"
	"github.com/kilianp07/railsched/core/events"
	"github.com/kilianp07/railsched/core/logger"
	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/monitoring"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/core/scheduler"
	"github.com/kilianp07/railsched/internal/eventbus"
)

var (
	// ErrAlreadyDispatched is returned when a train was committed before.
	ErrAlreadyDispatched = errors.New("train already dispatched")
	// ErrUnknownTrain is returned when the plan does not know the train.
	ErrUnknownTrain = errors.New("unknown train")
	// ErrNotPlanned is returned for trains that have no events in the plan.
	ErrNotPlanned = errors.New("train not planned")
)

// Notifier forwards committed plans to the train crews.
type Notifier interface {
	NotifyDispatch(ctx context.Context, rec history.Record) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithNotifier sets the notifier called after each commit.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// WithBus publishes a DispatchEvent for every commit.
func WithBus(b *eventbus.Bus[events.Event]) Option {
	return func(d *Dispatcher) { d.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// Dispatcher freezes planned trains into a history store.
type Dispatcher struct {
	store    history.Store
	notifier Notifier
	bus      *eventbus.Bus[events.Event]
	log      logger.Logger
	now      func() time.Time

	mu         sync.Mutex
	dispatched map[int]bool
}

// NewDispatcher returns a dispatcher over store. Trains already present in
// the store are treated as dispatched.
func NewDispatcher(ctx context.Context, store history.Store, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("dispatch: history store is required")
	}
	d := &Dispatcher{
		store: store,
		log:   logger.Nop{},
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	records, err := store.Query(ctx, history.Query{})
	if err != nil {
		return nil, fmt.Errorf("dispatch: load history: %w", err)
	}
	d.dispatched = history.Dispatched(records)
	return d, nil
}

// IsDispatched reports whether trainID has been committed.
func (d *Dispatcher) IsDispatched(trainID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatched[trainID]
}

// Dispatched lists committed train ids in ascending order.
func (d *Dispatcher) Dispatched() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]int, 0, len(d.dispatched))
	for id := range d.dispatched {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Apply returns a copy of trains with the Dispatched flag set for every
// committed train.
func (d *Dispatcher) Apply(trains []model.Train) []model.Train {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Train, len(trains))
	for i, tr := range trains {
		if d.dispatched[tr.ID] {
			tr.Dispatched = true
		}
		out[i] = tr
	}
	return out
}

// Previous rebuilds a schedule holding the frozen events of every committed
// train, to be passed to the next generator run.
func (d *Dispatcher) Previous(ctx context.Context, id int, opts ...schedule.Option) (*schedule.Schedule, error) {
	records, err := d.store.Query(ctx, history.Query{})
	if err != nil {
		return nil, err
	}
	return history.Replay(id, records, opts...), nil
}

// Commit freezes the planned events of trainID. Notification failures are
// logged and reported but do not undo the commit.
func (d *Dispatcher) Commit(ctx context.Context, plan *scheduler.Plan, trainID int) (history.Record, error) {
	if plan == nil || plan.Schedule == nil {
		return history.Record{}, errors.New("dispatch: plan is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dispatched[trainID] {
		return history.Record{}, fmt.Errorf("train %d: %w", trainID, ErrAlreadyDispatched)
	}
	tr, ok := plan.Trains[trainID]
	if !ok {
		return history.Record{}, fmt.Errorf("train %d: %w", trainID, ErrUnknownTrain)
	}
	if tr.Dispatched {
		return history.Record{}, fmt.Errorf("train %d: %w", trainID, ErrAlreadyDispatched)
	}
	if cause, ok := plan.Excluded[trainID]; ok {
		return history.Record{}, fmt.Errorf("train %d: %w: %v", trainID, ErrNotPlanned, cause)
	}
	evs := plan.Schedule.Timeline(trainID)
	if len(evs) == 0 {
		return history.Record{}, fmt.Errorf("train %d: %w", trainID, ErrNotPlanned)
	}

	rec := history.Record{
		ID:         uuid.NewString(),
		Timestamp:  d.now().UTC(),
		ScheduleID: plan.Schedule.ID,
		TrainID:    trainID,
		TrainName:  tr.Name,
		Events:     evs,
	}
	if err := d.store.Append(ctx, rec); err != nil {
		return history.Record{}, fmt.Errorf("train %d: store: %w", trainID, err)
	}
	d.dispatched[trainID] = true
	tr.Dispatched = true
	plan.Trains[trainID] = tr
	d.log.Infof("train %d dispatched from schedule %d (%d events)", trainID, rec.ScheduleID, len(evs))

	if d.notifier != nil {
		if err := d.notifier.NotifyDispatch(ctx, rec); err != nil {
			d.log.Errorf("train %d: notify failed: %v", trainID, err)
			monitoring.CaptureException(err, map[string]string{
				"module":   "dispatch",
				"train_id": strconv.Itoa(trainID),
			})
		}
	}
	if d.bus != nil {
		d.bus.Publish(events.DispatchEvent{
			RecordID:   rec.ID,
			ScheduleID: rec.ScheduleID,
			TrainID:    trainID,
			Events:     len(evs),
			Lost:       lost(evs),
			Time:       rec.Timestamp,
		})
	}
	return rec, nil
}

func lost(evs []schedule.Event) time.Duration {
	var d time.Duration
	for _, e := range evs {
		if e.Type.IsWait() {
			d += e.Interval.Duration()
		}
	}
	return d
}
