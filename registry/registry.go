package registry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

var activeDevicesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "meshgwd_registry_devices_by_phase",
	Help: "Number of registered devices currently in each registry phase.",
}, []string{"phase"})

func init() { prometheus.MustRegister(activeDevicesGauge) }

// Registry owns every tracked device's DeviceState, mirroring
// coordinator.PhaseManager's map-of-states-plus-callback shape but keyed
// by device uniqueid instead of workflow id.
type Registry struct {
	mu             sync.RWMutex
	devices        map[string]*DeviceState
	onPhaseChanged func(*DeviceState)
}

func New() *Registry {
	return &Registry{devices: make(map[string]*DeviceState)}
}

// OnPhaseChanged installs a callback invoked (synchronously, from the
// owning scheduler tick — never from a goroutine) after every successful
// transition.
func (r *Registry) OnPhaseChanged(fn func(*DeviceState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPhaseChanged = fn
}

// RegisterDevice creates a device's state machine at PhaseNew, or
// returns the existing one if already registered.
func (r *Registry) RegisterDevice(uniqueID string, now time.Time) *DeviceState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.devices[uniqueID]; ok {
		return s
	}
	s := &DeviceState{DeviceUniqueID: uniqueID, Phase: PhaseNew, ChangedAt: now}
	r.devices[uniqueID] = s
	activeDevicesGauge.WithLabelValues(string(PhaseNew)).Inc()
	return s
}

// State returns the tracked state for a device, if any.
func (r *Registry) State(uniqueID string) (*DeviceState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.devices[uniqueID]
	return s, ok
}

// TransitionTo validates and applies a phase change, updating the
// phase-count gauge and invoking the OnPhaseChanged callback on success.
func (r *Registry) TransitionTo(uniqueID string, target Phase, reason string, now time.Time) error {
	r.mu.Lock()
	s, ok := r.devices[uniqueID]
	if !ok {
		r.mu.Unlock()
		return drcerr.New(drcerr.NotFound, "Registry.TransitionTo", "device not registered").WithDetailsf("uniqueid=%s", uniqueID)
	}
	prev := s.Phase
	if err := s.TransitionTo(target, reason, now); err != nil {
		r.mu.Unlock()
		return drcerr.Wrap(err, drcerr.InvalidState, "Registry.TransitionTo", "illegal phase transition")
	}
	cb := r.onPhaseChanged
	r.mu.Unlock()

	activeDevicesGauge.WithLabelValues(string(prev)).Dec()
	activeDevicesGauge.WithLabelValues(string(target)).Inc()

	if cb != nil {
		cb(s)
	}
	return nil
}

// RetryReady returns every device parked in Backoff whose delay has
// elapsed and is ready to resume its pre-backoff phase.
func (r *Registry) RetryReady(now time.Time) []*DeviceState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ready []*DeviceState
	for _, s := range r.devices {
		if s.ReadyToRetry(now) {
			ready = append(ready, s)
		}
	}
	return ready
}

// StateChange is one pending managed write (SPEC_FULL §4.6): a target
// sub-device, the desired (suffix, value) pairs, and the two deadlines
// that bound how long the engine will wait for confirmation.
type StateChange struct {
	SubDeviceUniqueID string
	Desired           map[string]interface{} // suffix -> target value
	StateTimeout      time.Duration          // per-value confirmation wait
	ChangeTimeout     time.Time              // absolute deadline for the whole change
	CreatedAt         time.Time
	confirmed         map[string]bool
}

// NewStateChange starts tracking confirmation state for desired.
func NewStateChange(subDeviceUniqueID string, desired map[string]interface{}, stateTimeout time.Duration, changeTimeout time.Time, now time.Time) *StateChange {
	return &StateChange{
		SubDeviceUniqueID: subDeviceUniqueID,
		Desired:           desired,
		StateTimeout:      stateTimeout,
		ChangeTimeout:     changeTimeout,
		CreatedAt:         now,
		confirmed:         make(map[string]bool),
	}
}

// Confirm marks one suffix as having reached its desired value via the
// device's normal reporting.
func (c *StateChange) Confirm(suffix string) { c.confirmed[suffix] = true }

// Pending returns the (suffix, value) pairs not yet confirmed. It only
// reports them; StateChange and Registry issue no write-hook requests.
func (c *StateChange) Pending() map[string]interface{} {
	out := make(map[string]interface{})
	for suffix, v := range c.Desired {
		if !c.confirmed[suffix] {
			out[suffix] = v
		}
	}
	return out
}

// Done reports whether every desired value has been confirmed.
func (c *StateChange) Done() bool { return len(c.Pending()) == 0 }

// Expired reports whether the absolute change deadline has passed.
func (c *StateChange) Expired(now time.Time) bool { return now.After(c.ChangeTimeout) }
