package binding

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaxActiveTasks bounds concurrent in-progress tasks (SPEC_FULL §4.7).
const MaxActiveTasks = 3

// OTABusyWindow mirrors ota.BusyWindow for callers that construct a
// Coordinator without an OTAGate and so fall back to the coordinator's
// own single-timestamp tracking.
const OTABusyWindow = 60 * time.Second

// EndDeviceRecentWindow bounds how long ago an end device must have been
// heard from to be considered reachable for fair scheduling.
const EndDeviceRecentWindow = 7 * time.Second

var activeTasksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "meshgwd_binding_active_tasks",
	Help: "Binding/reporting tasks currently in progress.",
})

func init() { prometheus.MustRegister(activeTasksGauge) }

// DeviceReachability reports whether a device is presently reachable,
// used to decide which idle task is eligible to start.
type DeviceReachability interface {
	Reachable(extAddress uint64, endDevice bool, now time.Time) bool
}

// OTAGate reports whether OTA traffic should back-pressure new binding
// traffic right now. *ota.Tracker satisfies this via AnyBusy.
type OTAGate interface {
	AnyBusy(now time.Time) bool
}

// Coordinator holds the BindingTask queue and drives fair scheduling,
// correlation, and back-pressure under OTA traffic (SPEC_FULL §4.7).
type Coordinator struct {
	mu         sync.Mutex
	tasks      []*Task
	nextTaskID uint32
	lastOTAAt  time.Time
	reachable  DeviceReachability
	ota        OTAGate
}

func NewCoordinator(reachable DeviceReachability) *Coordinator {
	return &Coordinator{reachable: reachable}
}

// NewCoordinatorWithOTAGate constructs a Coordinator that delegates OTA
// back-pressure decisions to gate (typically an *ota.Tracker) instead of
// tracking a local timestamp, so the two packages share one notion of
// "OTA busy".
func NewCoordinatorWithOTAGate(reachable DeviceReachability, gate OTAGate) *Coordinator {
	return &Coordinator{reachable: reachable, ota: gate}
}

// NoteOTATraffic records that an OTA image block transfer just happened;
// consulted by ShouldBackpressure. No-op when the coordinator was built
// with an OTAGate — that gate is the source of truth instead.
func (c *Coordinator) NoteOTATraffic(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ota != nil {
		return
	}
	c.lastOTAAt = now
}

// ShouldBackpressure reports whether new (non-urgent) binding traffic
// should be paused because OTA was busy within OTABusyWindow.
func (c *Coordinator) ShouldBackpressure(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ShouldBackpressureLocked(now)
}

// Enqueue adds a new Idle task to the queue.
func (c *Coordinator) Enqueue(kind Kind, key BindingKey, endDevice bool, now time.Time) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextTaskID++
	t := NewTask(c.nextTaskID, kind, key, endDevice, now)
	c.tasks = append(c.tasks, t)
	return t
}

// countActive returns how many tasks are neither Idle nor Finished.
func (c *Coordinator) countActive() int {
	n := 0
	for _, t := range c.tasks {
		if t.State != TaskIdle && t.State != TaskFinished {
			n++
		}
	}
	return n
}

// NextToStart picks the oldest Idle task whose device is currently
// reachable, honoring MaxActiveTasks and OTA back-pressure. Urgent is
// reserved for callers that must bypass back-pressure (SPEC_FULL §4.7:
// "pauses new binding traffic except for high-priority control paths");
// this coordinator only implements the default, non-urgent path.
func (c *Coordinator) NextToStart(now time.Time) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ShouldBackpressureLocked(now) {
		return nil
	}
	if c.countActive() >= MaxActiveTasks {
		return nil
	}

	for _, t := range c.tasks {
		if t.State != TaskIdle {
			continue
		}
		if c.reachable != nil && !c.reachable.Reachable(t.Key.SrcExtAddress, t.EndDevice, now) {
			continue
		}
		activeTasksGauge.Inc()
		return t
	}
	return nil
}

// ShouldBackpressureLocked is ShouldBackpressure without re-acquiring c.mu.
func (c *Coordinator) ShouldBackpressureLocked(now time.Time) bool {
	if c.ota != nil {
		return c.ota.AnyBusy(now)
	}
	return !c.lastOTAAt.IsZero() && now.Sub(c.lastOTAAt) < OTABusyWindow
}

// SweepTimeouts retries or finishes every in-flight task whose timeout
// window has elapsed, decrementing the active-task gauge for each one
// that leaves the in-progress set.
func (c *Coordinator) SweepTimeouts(now time.Time) (retried, abandoned []*Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.tasks {
		if !t.TimedOut(now) {
			continue
		}
		if t.Retry() {
			retried = append(retried, t)
		} else {
			abandoned = append(abandoned, t)
		}
		activeTasksGauge.Dec()
	}
	return retried, abandoned
}

// PendingBindings computes the decision set of SPEC_FULL §4.7 steps
// 2-4: required bindings missing from the present set get a Bind task,
// present bindings outside the required set get an Unbind task when
// policy allows it, and every required binding gets a ConfigureReport
// task once bound (whether freshly bound or already present).
func PendingBindings(required, present []BindingKey, unbindExtraneous bool) (toBind, toConfigureReport, toUnbind []BindingKey) {
	presentSet := make(map[BindingKey]bool, len(present))
	for _, k := range present {
		presentSet[k] = true
	}
	requiredSet := make(map[BindingKey]bool, len(required))
	for _, k := range required {
		requiredSet[k] = true
	}

	for _, k := range required {
		if !presentSet[k] {
			toBind = append(toBind, k)
		}
		toConfigureReport = append(toConfigureReport, k)
	}

	if unbindExtraneous {
		for _, k := range present {
			if !requiredSet[k] {
				toUnbind = append(toUnbind, k)
			}
		}
	}
	return toBind, toConfigureReport, toUnbind
}
