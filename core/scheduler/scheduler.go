package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/railsched/core/logger"
	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/core/track"
)

var (
	// ErrRetryLimit is returned when a train exceeds its iteration budget.
	ErrRetryLimit = errors.New("iteration limit exceeded")
	// ErrUnsupportedTransition is returned for a location pair the engine
	// has no rule for.
	ErrUnsupportedTransition = errors.New("unsupported transition")
	// ErrDuplicateTrain is returned when a batch lists a train id twice.
	ErrDuplicateTrain = errors.New("duplicate train")
)

// RetryLimitError identifies the train that hit the iteration cap.
type RetryLimitError struct {
	TrainID    int
	Iterations int
	Last       Request
}

func (e *RetryLimitError) Error() string {
	return fmt.Sprintf("train %d: %v after %d requests (last: %s)", e.TrainID, ErrRetryLimit, e.Iterations, e.Last)
}

func (e *RetryLimitError) Unwrap() error { return ErrRetryLimit }

// ConflictKind names the check that found a conflict.
type ConflictKind string

const (
	SegmentOccupied  ConflictKind = "segment_occupied"
	FrontalCollision ConflictKind = "frontal_collision"
	HeldSegment      ConflictKind = "held_segment"
)

// Conflict describes one wait inserted by the generator.
type Conflict struct {
	Kind      ConflictKind
	TrainID   int
	BlockerID int
	Location  track.Location
	Wait      schedule.Interval
	RetryAt   time.Time
}

// Plan is the outcome of one generator run.
type Plan struct {
	Schedule *schedule.Schedule
	Trains   map[int]model.Train
	Paths    map[int][]track.Location
	// Excluded holds the trains skipped because of topology errors.
	Excluded  map[int]error
	Conflicts []Conflict
	Requests  int
	Elapsed   time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used by the generator.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithConflictHook registers a callback invoked for every inserted wait.
func WithConflictHook(f func(Conflict)) Option {
	return func(g *Generator) { g.onConflict = f }
}

// Generator builds schedules for batches of trains.
type Generator struct {
	cfg        Config
	paths      *PathBuilder
	timer      TravelTimer
	newIndex   schedule.IndexFactory
	log        logger.Logger
	onConflict func(Conflict)
}

// NewGenerator validates cfg and returns a generator over topo.
func NewGenerator(cfg Config, topo *model.Topology, timer TravelTimer, opts ...Option) (*Generator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if topo == nil {
		return nil, errors.New("topology is required")
	}
	if timer == nil {
		timer = Physics{}
	}
	idx, err := schedule.NewIndexFactory(cfg.Index)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:      cfg,
		paths:    NewPathBuilder(topo),
		timer:    timer,
		newIndex: idx,
		log:      logger.Nop{},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Generate plans every non-dispatched train of the batch into a new schedule
// with the given id. Events of dispatched trains are copied unchanged from
// previous, which may be nil.
func (g *Generator) Generate(ctx context.Context, id int, trains []model.Train, previous *schedule.Schedule) (*Plan, error) {
	started := time.Now()
	r := &run{
		g:          g,
		sched:      schedule.New(id, schedule.WithIndex(g.newIndex)),
		queue:      newRequestQueue(),
		trains:     make(map[int]model.Train, len(trains)),
		paths:      make(map[int][]track.Location),
		next:       make(map[int]int),
		iterations: make(map[int]int),
		excluded:   make(map[int]error),
	}
	for _, tr := range trains {
		if _, ok := r.trains[tr.ID]; ok {
			return nil, fmt.Errorf("%w %d", ErrDuplicateTrain, tr.ID)
		}
		r.trains[tr.ID] = tr
	}
	g.log.Infof("schedule %d: planning %d trains", id, len(trains))
	r.carryDispatched(previous)
	if err := r.seed(); err != nil {
		return nil, err
	}
	if err := r.drain(ctx); err != nil {
		return nil, err
	}
	plan := &Plan{
		Schedule:  r.sched,
		Trains:    r.trains,
		Paths:     r.paths,
		Excluded:  r.excluded,
		Conflicts: r.conflicts,
		Requests:  r.requests,
		Elapsed:   time.Since(started),
	}
	g.log.Infof("schedule %d: %d events, %d conflicts, %d excluded in %s",
		id, r.sched.Len(), len(r.conflicts), len(r.excluded), plan.Elapsed)
	return plan, nil
}

// run holds the state of one Generate call.
type run struct {
	g          *Generator
	sched      *schedule.Schedule
	queue      *requestQueue
	trains     map[int]model.Train
	paths      map[int][]track.Location
	next       map[int]int
	iterations map[int]int
	excluded   map[int]error
	conflicts  []Conflict
	requests   int
}

func (r *run) sortedTrainIDs() []int {
	ids := make([]int, 0, len(r.trains))
	for id := range r.trains {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *run) carryDispatched(previous *schedule.Schedule) {
	if previous == nil {
		return
	}
	for _, id := range r.sortedTrainIDs() {
		if !r.trains[id].Dispatched {
			continue
		}
		for _, e := range previous.Timeline(id) {
			r.sched.AddEvent(e)
		}
	}
}

func (r *run) seed() error {
	for _, id := range r.sortedTrainIDs() {
		tr := r.trains[id]
		if tr.Dispatched {
			continue
		}
		path, err := r.g.paths.Build(tr.Route)
		if err != nil {
			if !IsTopologyError(err) {
				return fmt.Errorf("train %d: %w", id, err)
			}
			r.excluded[id] = err
			r.g.log.Warnf("train %d excluded: %v", id, err)
			continue
		}
		r.paths[id] = path
		kickoff := r.kickoff(tr)
		if kickoff.After(tr.NominalStart) {
			r.sched.AddEvent(schedule.Event{
				TrainID:  id,
				From:     path[0],
				To:       path[0],
				Interval: schedule.Interval{Start: tr.NominalStart, End: kickoff},
				Type:     schedule.WaitingForAssemble,
			})
		}
		r.next[id] = 1
		r.queue.Push(Request{TrainID: id, From: path[0], To: path[1], At: kickoff})
	}
	return nil
}

// kickoff is the nominal start pushed back until every shared locomotive
// and wagon has finished its previous duty.
func (r *run) kickoff(tr model.Train) time.Time {
	at := tr.NominalStart
	for _, otherID := range r.sched.TrainIDs() {
		if otherID == tr.ID {
			continue
		}
		other, ok := r.trains[otherID]
		if !ok || !tr.SharesRollingStock(other) {
			continue
		}
		if end, ok := r.sched.LastEnd(otherID); ok && end.After(at) {
			at = end
		}
	}
	return at
}

func (r *run) drain(ctx context.Context) error {
	for r.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := r.queue.Pop()
		r.requests++
		r.iterations[req.TrainID]++
		if n := r.iterations[req.TrainID]; n > r.g.cfg.MaxIterationsPerTrain {
			return &RetryLimitError{TrainID: req.TrainID, Iterations: n, Last: req}
		}
		if err := r.step(req); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) step(req Request) error {
	from, to := req.From, req.To
	switch {
	case from.IsFacility() && to.IsSegmentLike():
		return r.leaveFacility(req)
	case from.IsSegmentLike() && (to.IsSegmentLike() || to.IsSiding() || to.IsFacility()):
		return r.runSegment(req)
	case from.IsSiding() && to.IsSiding():
		return r.runSiding(req)
	case from.IsSiding() && to.IsSegmentLike():
		return r.leaveSiding(req)
	default:
		return fmt.Errorf("train %d: %w %s -> %s", req.TrainID, ErrUnsupportedTransition, from, to)
	}
}

// leaveFacility is the instantaneous exit from a station onto running
// track. The track must be clear of opposing trains for the whole run.
func (r *run) leaveFacility(req Request) error {
	d, err := r.travel(req.TrainID, req.To)
	if err != nil {
		return err
	}
	cand := schedule.Span(req.At, d)
	if c, ok := r.segmentOccupied(req, cand); ok {
		r.wait(req, cand, c, SegmentOccupied, req.To)
		return nil
	}
	r.commit(req, schedule.Span(req.At, 0), schedule.MovementToSegment)
	return nil
}

// runSegment runs the full length of the current segment towards the next
// location.
func (r *run) runSegment(req Request) error {
	d, err := r.travel(req.TrainID, req.From)
	if err != nil {
		return err
	}
	cand := schedule.Span(req.At, d)
	if c, ok := r.frontalCollision(req, cand); ok {
		r.wait(req, cand, c, FrontalCollision, req.To)
		return nil
	}
	if c, ok := r.heldSegment(req, cand); ok {
		r.wait(req, cand, c, HeldSegment, req.From)
		return nil
	}
	r.commit(req, cand, schedule.MovementInSegment)
	return nil
}

// runSiding moves along the passing loop. Sidings are never checked for
// conflicts.
func (r *run) runSiding(req Request) error {
	d, err := r.travel(req.TrainID, req.From.Transit())
	if err != nil {
		return err
	}
	r.commit(req, schedule.Span(req.At, d), schedule.MovementInSiding)
	return nil
}

// leaveSiding rejoins the main line once the next half is clear.
func (r *run) leaveSiding(req Request) error {
	d, err := r.travel(req.TrainID, req.To)
	if err != nil {
		return err
	}
	cand := schedule.Span(req.At, d)
	if c, ok := r.frontalCollision(req, cand); ok {
		r.wait(req, cand, c, FrontalCollision, req.To)
		return nil
	}
	r.commit(req, schedule.Span(req.At, 0), schedule.MovementToSegment)
	return nil
}

func (r *run) travel(trainID int, loc track.Location) (time.Duration, error) {
	d, err := r.g.timer.TravelTime(r.trains[trainID], loc)
	if err != nil {
		return 0, fmt.Errorf("train %d on %s: %w", trainID, loc, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("train %d on %s: %w: got %s", trainID, loc, ErrNoTravelTime, d)
	}
	if res := r.g.cfg.Resolution(); res > 0 {
		if rem := d % res; rem != 0 {
			d += res - rem
		}
	}
	return d, nil
}

// segmentOccupied finds an opposing train already running on the target.
func (r *run) segmentOccupied(req Request, cand schedule.Interval) (schedule.Event, bool) {
	if !req.To.SingleTrack() {
		return schedule.Event{}, false
	}
	return latestEnd(r.sched.FindOverlaps(req.To, cand), func(e schedule.Event) bool {
		return e.TrainID != req.TrainID && e.Type == schedule.MovementInSegment && e.To.Equal(req.From)
	})
}

// frontalCollision finds a train heading towards us on the target.
// Same-direction traffic is never a conflict.
func (r *run) frontalCollision(req Request, cand schedule.Interval) (schedule.Event, bool) {
	if !req.To.SingleTrack() {
		return schedule.Event{}, false
	}
	return latestEnd(r.sched.FindOverlaps(req.To, cand), func(e schedule.Event) bool {
		return e.TrainID != req.TrainID && e.To.Equal(req.From)
	})
}

// heldSegment finds an opposing run on the segment being left. It covers
// trains that entered the same single track at the same instant.
func (r *run) heldSegment(req Request, cand schedule.Interval) (schedule.Event, bool) {
	if !req.From.SingleTrack() {
		return schedule.Event{}, false
	}
	return latestEnd(r.sched.FindOverlaps(req.From, cand), func(e schedule.Event) bool {
		return e.TrainID != req.TrainID && e.Type == schedule.MovementInSegment && !e.To.Equal(req.To)
	})
}

func latestEnd(events []schedule.Event, match func(schedule.Event) bool) (schedule.Event, bool) {
	var best schedule.Event
	found := false
	for _, e := range events {
		if !match(e) {
			continue
		}
		if !found || e.Interval.End.After(best.Interval.End) {
			best, found = e, true
		}
	}
	return best, found
}

// wait commits a WAITING event spanning [cand.Start, blocker.End] and
// retries the same move one pad after the blocker clears.
func (r *run) wait(req Request, cand schedule.Interval, blocker schedule.Event, kind ConflictKind, at track.Location) {
	w := schedule.Interval{Start: cand.Start, End: blocker.Interval.End}
	r.sched.AddEvent(schedule.Event{
		TrainID:  req.TrainID,
		From:     req.From,
		To:       req.From,
		Interval: w,
		Type:     schedule.Waiting,
	})
	retry := req
	retry.At = blocker.Interval.End.Add(r.g.cfg.RetryPad())
	r.queue.Push(retry)

	c := Conflict{Kind: kind, TrainID: req.TrainID, BlockerID: blocker.TrainID, Location: at, Wait: w, RetryAt: retry.At}
	r.conflicts = append(r.conflicts, c)
	r.g.log.Debugw("conflict", map[string]any{
		"kind":     string(kind),
		"train":    req.TrainID,
		"blocker":  blocker.TrainID,
		"location": at.Name(),
		"wait":     w.Duration().String(),
	})
	if r.g.onConflict != nil {
		r.g.onConflict(c)
	}
}

func (r *run) commit(req Request, iv schedule.Interval, typ schedule.EventType) {
	ev := r.sched.AddEvent(schedule.Event{
		TrainID:  req.TrainID,
		From:     req.From,
		To:       req.To,
		Interval: iv,
		Type:     typ,
	})
	path := r.paths[req.TrainID]
	r.next[req.TrainID]++
	if i := r.next[req.TrainID]; i < len(path) {
		r.queue.Push(Request{TrainID: req.TrainID, From: req.To, To: path[i], At: ev.Interval.End})
	}
}
