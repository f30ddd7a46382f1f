package sched

import (
	"context"
	"sync"
	"time"

	"github.com/dresden-mesh/meshgwd/common"
	"github.com/dresden-mesh/meshgwd/eventbus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TimerTick is the logical timer resolution (SPEC_FULL §4.13).
const TimerTick = 1 * time.Second

// EventBusTick is the fast tick the event bus is drained on.
const EventBusTick = 50 * time.Millisecond

var tickDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "meshgwd_sched_tick_duration_seconds",
	Help:    "Duration of one scheduler tick, by phase (timers, eventbus).",
	Buckets: prometheus.DefBuckets,
}, []string{"phase"})

func init() { prometheus.MustRegister(tickDuration) }

var tracer = otel.Tracer("github.com/dresden-mesh/meshgwd/sched")

// Scheduler is the single cooperative tick dispatcher: all state
// mutation happens on the goroutine that calls RunOnce/Run (SPEC_FULL
// §5: "single-threaded cooperative").
type Scheduler struct {
	mu     sync.Mutex
	timers []*timer
	nextID uint64

	bus     *eventbus.Bus
	handler func(eventbus.Event)
	log     *logrus.Entry
}

// New builds a Scheduler that drains bus on its fast tick.
func New(bus *eventbus.Bus, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = common.NewComponentLogger("sched")
	}
	return &Scheduler{bus: bus, log: log.WithField("component", "sched")}
}

// SetHandler installs the callback RunOnce hands each drained event to.
func (s *Scheduler) SetHandler(handler func(eventbus.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// RunOnce executes one fast tick: due timer callbacks first, then one
// event-bus drain pass (SPEC_FULL §4.13: "within one tick, timer
// callbacks run before event-bus drain").
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	timerStart := time.Now()
	for _, t := range s.dueTimers(now) {
		t.fn(now)
	}
	tickDuration.WithLabelValues("timers").Observe(time.Since(timerStart).Seconds())

	if s.bus == nil {
		return
	}

	_, span := tracer.Start(ctx, "sched.drain_event_bus", trace.WithAttributes())
	defer span.End()

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		handler = func(eventbus.Event) {}
	}

	busStart := time.Now()
	s.bus.Drain(handler)
	tickDuration.WithLabelValues("eventbus").Observe(time.Since(busStart).Seconds())
}

// Run drives RunOnce on the fast tick until ctx is cancelled, grounded
// on worker.Pool's start/stop select loop but single-threaded: one
// goroutine, one tick at a time, no worker fan-out.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(EventBusTick)
	defer ticker.Stop()
	s.log.Info("scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.RunOnce(ctx, now)
		}
	}
}
