package eventbus

import (
	"container/list"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SoftCap bounds the non-urgent lane (SPEC_FULL §4.3): once reached, the
// oldest events are kept and every further non-urgent enqueue is rejected.
const SoftCap = 1024

// TickBudget is the wall-clock time a single Drain call may spend before
// yielding back to the scheduler.
const TickBudget = 10 * time.Millisecond

var (
	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meshgwd_eventbus_dropped_total",
		Help: "Non-urgent events rejected because the soft cap was reached.",
	})
	dispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meshgwd_eventbus_dispatched_total",
		Help: "Events handed to a tick's handler, by lane.",
	}, []string{"lane"})
)

func init() {
	prometheus.MustRegister(droppedTotal, dispatchedTotal)
}

// Bus is the single-threaded, cooperative event queue of SPEC_FULL §4.3.
// It is not safe for concurrent use: Enqueue and Drain must both be
// called from the owning scheduler tick.
type Bus struct {
	urgent    *list.List
	nonUrgent *list.List
	seen      map[dedupKey]*list.Element // non-urgent dedup index
}

func New() *Bus {
	return &Bus{
		urgent:    list.New(),
		nonUrgent: list.New(),
		seen:      make(map[dedupKey]*list.Element),
	}
}

// Enqueue posts an event. Urgent events always queue. Non-urgent events
// dedup against every not-yet-dispatched non-urgent event sharing the
// same (resource, suffix, numeric, device, payload-size) key; once the
// soft cap is reached, any new non-urgent event is rejected and existing
// entries keep their place (oldest-kept backpressure).
func (b *Bus) Enqueue(e Event) {
	if e.Urgent {
		b.urgent.PushBack(e)
		return
	}

	k := keyOf(e)
	if _, dup := b.seen[k]; dup {
		return
	}
	if b.nonUrgent.Len() >= SoftCap {
		droppedTotal.Inc()
		return
	}
	el := b.nonUrgent.PushBack(e)
	b.seen[k] = el
}

// Drain dispatches events to handle for up to TickBudget: it empties the
// urgent lane completely, then alternates one non-urgent event at a time
// with a fresh urgent-lane drain, matching SPEC_FULL §4.3's "drain urgent
// completely, then take one from non-urgent, then repeat". Handlers may
// call Enqueue from within handle: the new event joins the back of its
// lane and is dispatched by this loop or a later Drain, never by a nested
// handler call. Handlers must not call Drain themselves.
func (b *Bus) Drain(handle func(Event)) {
	deadline := time.Now().Add(TickBudget)

	for time.Now().Before(deadline) {
		drainedAny := b.drainUrgent(handle)

		if el := b.nonUrgent.Front(); el != nil {
			e := el.Value.(Event)
			b.nonUrgent.Remove(el)
			delete(b.seen, keyOf(e))
			dispatchedTotal.WithLabelValues("non-urgent").Inc()
			handle(e)
			drainedAny = true
		}

		if !drainedAny {
			return
		}
	}
}

func (b *Bus) drainUrgent(handle func(Event)) bool {
	drained := false
	for {
		el := b.urgent.Front()
		if el == nil {
			return drained
		}
		e := el.Value.(Event)
		b.urgent.Remove(el)
		dispatchedTotal.WithLabelValues("urgent").Inc()
		handle(e)
		drained = true
	}
}

// Len reports the current size of each lane, for tests and diagnostics.
func (b *Bus) Len() (urgent, nonUrgent int) {
	return b.urgent.Len(), b.nonUrgent.Len()
}
