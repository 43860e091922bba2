package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/railsched/core/metrics"
)

// PromSink records scheduling activity in Prometheus metrics.
type PromSink struct {
	plans     prometheus.Counter
	conflicts *prometheus.CounterVec
	dispatch  prometheus.Counter
	duration  prometheus.Histogram
	waiting   prometheus.Histogram
}

// NewPromSink registers scheduling metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.plans, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railsched_plans_total",
		Help: "Number of generated schedules",
	})); err != nil {
		return nil, err
	}
	if s.conflicts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsched_conflicts_total",
		Help: "Waits inserted by the generator, by conflict kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.dispatch, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railsched_dispatch_total",
		Help: "Number of trains whose plan was committed",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railsched_plan_duration_seconds",
		Help:    "Wall time spent generating a schedule",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if s.waiting, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railsched_waiting_seconds",
		Help:    "Length of each inserted wait",
		Buckets: prometheus.ExponentialBuckets(10, 2, 12),
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the run and observes its duration.
func (s *PromSink) RecordPlan(stats coremetrics.PlanStats) error {
	s.plans.Inc()
	s.duration.Observe(stats.Duration.Seconds())
	return nil
}

// RecordConflict counts the conflict and observes the wait.
func (s *PromSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	s.conflicts.WithLabelValues(ev.Kind).Inc()
	s.waiting.Observe(ev.Wait.Seconds())
	return nil
}

// RecordDispatch counts a committed train.
func (s *PromSink) RecordDispatch(coremetrics.DispatchEvent) error {
	s.dispatch.Inc()
	return nil
}
