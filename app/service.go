package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/railsched/api"
	"github.com/kilianp07/railsched/app/plugins"
	"github.com/kilianp07/railsched/config"
	"github.com/kilianp07/railsched/core/dispatch"
	"github.com/kilianp07/railsched/core/dispatch/history"
	"github.com/kilianp07/railsched/core/events"
	coremetrics "github.com/kilianp07/railsched/core/metrics"
	coremon "github.com/kilianp07/railsched/core/monitoring"
	"github.com/kilianp07/railsched/core/scenario"
	"github.com/kilianp07/railsched/core/schedule"
	"github.com/kilianp07/railsched/core/scheduler"
	"github.com/kilianp07/railsched/infra/logger"
	"github.com/kilianp07/railsched/infra/metrics"
	"github.com/kilianp07/railsched/infra/monitoring"
	"github.com/kilianp07/railsched/infra/mqtt"
	"github.com/kilianp07/railsched/internal/eventbus"
)

// ErrNoPlan is returned when a dispatch is requested before any schedule
// has been generated.
var ErrNoPlan = errors.New("no schedule generated yet")

// Option overrides a component built from configuration.
type Option func(*options)

type options struct {
	sink     coremetrics.MetricsSink
	notifier dispatch.Notifier
	log      logger.Logger
}

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option {
	return func(o *options) { o.sink = s }
}

// WithNotifier replaces the MQTT notifier.
func WithNotifier(n dispatch.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Service plans the trains of a scenario and commits them on request.
type Service struct {
	Scenario   *scenario.Scenario
	Generator  *scheduler.Generator
	Schedules  *schedule.Store
	Dispatcher *dispatch.Dispatcher

	history  history.Store
	notifier dispatch.Notifier
	sink     coremetrics.MetricsSink
	bus      *eventbus.Bus[events.Event]
	log      logger.Logger

	cancel    context.CancelFunc
	collected <-chan struct{}

	mu   sync.Mutex
	last *scheduler.Plan
}

// New wires a Service from the configuration.
func New(ctx context.Context, cfg *config.Config, sc *scenario.Scenario, opts ...Option) (*Service, error) {
	if cfg == nil || sc == nil {
		return nil, errors.New("app: config and scenario are required")
	}
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	logg := o.log
	if logg == nil {
		logg = logger.New("service")
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	timer, err := plugins.NewTravelTimer(cfg.Travel)
	if err != nil {
		return nil, fmt.Errorf("travel model: %w", err)
	}
	gen, err := scheduler.NewGenerator(cfg.Scheduler, sc.Topology, timer,
		scheduler.WithLogger(logger.New("scheduler")))
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	sink := o.sink
	if sink == nil {
		if sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	notifier := o.notifier
	if notifier == nil && cfg.MQTT.Enabled() {
		n, err := mqtt.NewPahoNotifier(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		notifier = n
	}

	bus := eventbus.New[events.Event](eventbus.WithBuffer(256))
	dopts := []dispatch.Option{dispatch.WithBus(bus), dispatch.WithLogger(logger.New("dispatch"))}
	if notifier != nil {
		dopts = append(dopts, dispatch.WithNotifier(notifier))
	}
	disp, err := dispatch.NewDispatcher(ctx, store, dopts...)
	if err != nil {
		bus.Close()
		_ = store.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s := &Service{
		Scenario:   sc,
		Generator:  gen,
		Schedules:  schedule.NewStore(),
		Dispatcher: disp,
		history:    store,
		notifier:   notifier,
		sink:       sink,
		bus:        bus,
		log:        logg,
		cancel:     cancel,
	}
	s.collected = metrics.StartEventCollector(runCtx, bus, sink, logger.New("metrics"))
	if addr := cfg.API.Addr; addr != "" {
		router := api.NewRouter(s.Schedules, store, cfg.API.Token, nil)
		coremon.Go(func() {
			if err := api.Serve(runCtx, addr, router); err != nil {
				s.log.Errorf("api server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "api"})
			}
		})
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		coremon.Go(func() {
			if err := metrics.StartPromServer(runCtx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "metrics"})
			}
		})
	}
	return s, nil
}

// Plan generates a new schedule for every train of the scenario. Trains
// already dispatched keep their committed events.
func (s *Service) Plan(ctx context.Context) (*scheduler.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.Schedules.NextID()
	prev, err := s.Dispatcher.Previous(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load dispatched trains: %w", err)
	}
	plan, err := s.Generator.Generate(ctx, id, s.Dispatcher.Apply(s.Scenario.Trains), prev)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "scheduler"})
		return nil, err
	}
	if err := s.Schedules.Add(plan.Schedule); err != nil {
		return nil, err
	}
	s.last = plan
	s.publish(plan)
	return plan, nil
}

func (s *Service) publish(plan *scheduler.Plan) {
	now := time.Now()
	rep := schedule.Summarize(plan.Schedule)
	s.bus.Publish(events.PlanEvent{
		ScheduleID: plan.Schedule.ID,
		Trains:     len(plan.Trains),
		Excluded:   len(plan.Excluded),
		Events:     plan.Schedule.Len(),
		Conflicts:  len(plan.Conflicts),
		Requests:   plan.Requests,
		Waiting:    rep.TotalLost,
		Duration:   plan.Elapsed,
		Time:       now,
	})
	for _, c := range plan.Conflicts {
		s.bus.Publish(events.ConflictEvent{
			ScheduleID: plan.Schedule.ID,
			TrainID:    c.TrainID,
			BlockerID:  c.BlockerID,
			Kind:       string(c.Kind),
			Location:   c.Location.Name(),
			Wait:       c.Wait,
			Time:       now,
		})
	}
}

// Latest returns the most recent plan, if any.
func (s *Service) Latest() (*scheduler.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.last != nil
}

// Dispatch commits trainID from the most recent plan.
func (s *Service) Dispatch(ctx context.Context, trainID int) (history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return history.Record{}, ErrNoPlan
	}
	return s.Dispatcher.Commit(ctx, s.last, trainID)
}

// History returns the dispatch records matching q.
func (s *Service) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	return s.history.Query(ctx, q)
}

// Close drains pending metrics and releases every resource.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.collected:
	case <-time.After(5 * time.Second):
		s.log.Warnf("metrics collector did not drain in time")
	}
	s.cancel()
	if n, ok := s.notifier.(*mqtt.PahoNotifier); ok {
		n.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return s.history.Close()
}
