// Package ota implements the OTA Bookkeeping of SPEC_FULL §4.10: no
// firmware is transferred by the core, it only observes OTA traffic to
// track device firmware versions and back-pressure the binding
// coordinator while an image transfer is in flight.
package ota

import (
	"sync"
	"time"
)

// BusyWindow is how recently an OTA block/page request must have
// happened for a device to be considered busy.
const BusyWindow = 60 * time.Second

// Tracker records per-device OTA activity timestamps and the firmware
// version last reported by each device.
type Tracker struct {
	mu           sync.Mutex
	lastActivity map[uint64]time.Time
	lastVersion  map[uint64]uint32
	enabled      bool
}

func NewTracker() *Tracker {
	return &Tracker{
		lastActivity: make(map[uint64]time.Time),
		lastVersion:  make(map[uint64]uint32),
		enabled:      true,
	}
}

// SetEnabled toggles whether IsBusy/AnyBusy can ever report busy; OTA is
// disabled administratively without losing the recorded activity.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// NoteActivity records an OTA image block/page request for extAddress.
func (t *Tracker) NoteActivity(extAddress uint64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastActivity[extAddress] = now
}

// IsBusy reports whether extAddress had OTA activity within BusyWindow
// and OTA is enabled (SPEC_FULL §4.10: "is_ota_busy()").
func (t *Tracker) IsBusy(extAddress uint64, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isBusyLocked(extAddress, now)
}

func (t *Tracker) isBusyLocked(extAddress uint64, now time.Time) bool {
	if !t.enabled {
		return false
	}
	last, ok := t.lastActivity[extAddress]
	return ok && now.Sub(last) < BusyWindow
}

// AnyBusy reports whether any tracked device is currently OTA-busy; the
// binding coordinator consumes this as its global back-pressure gate.
func (t *Tracker) AnyBusy(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return false
	}
	for addr := range t.lastActivity {
		if t.isBusyLocked(addr, now) {
			return true
		}
	}
	return false
}

// LastBusyDelta returns how long ago extAddress last had OTA activity
// (SPEC_FULL §4.10: "last_busy_delta()").
func (t *Tracker) LastBusyDelta(extAddress uint64, now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastActivity[extAddress]
	if !ok {
		return 0, false
	}
	return now.Sub(last), true
}

// ReportVersion records a device's current firmware version and reports
// whether it changed since the last report. The first report for a
// device is never a "change" — there is nothing to compare it against.
func (t *Tracker) ReportVersion(extAddress uint64, version uint32) (changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.lastVersion[extAddress]
	t.lastVersion[extAddress] = version
	return ok && prev != version
}

// Version returns the last reported firmware version for extAddress.
func (t *Tracker) Version(extAddress uint64) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.lastVersion[extAddress]
	return v, ok
}
