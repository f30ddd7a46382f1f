// Package registry implements the device registry and its per-device
// state machine (SPEC_FULL §4.6), grounded on coordinator.PhaseManager's
// map-of-states-plus-ValidTransitions shape.
package registry

import (
	"fmt"
	"time"
)

// Phase is a device's position in the discovery/operational pipeline.
type Phase string

const (
	PhaseNew                Phase = "new"
	PhaseNodeDescriptorRead Phase = "node-descriptor-read"
	PhaseSimpleDescriptorRead Phase = "simple-descriptor-read"
	PhaseDDFMatched         Phase = "ddf-matched"
	PhaseBindings           Phase = "bindings"
	PhaseReporting          Phase = "reporting"
	PhaseOperational        Phase = "operational"
	PhaseBackoff            Phase = "backoff"
)

// ValidTransitions enumerates the legal forward edges of SPEC_FULL §4.6's
// state diagram. Backoff is reachable from every phase except Backoff
// itself (Operational included) via CanTransitionTo's special-case
// below, rather than being listed here.
var ValidTransitions = map[Phase][]Phase{
	PhaseNew:                  {PhaseNodeDescriptorRead},
	PhaseNodeDescriptorRead:   {PhaseSimpleDescriptorRead},
	PhaseSimpleDescriptorRead: {PhaseDDFMatched},
	PhaseDDFMatched:           {PhaseBindings},
	PhaseBindings:             {PhaseReporting},
	PhaseReporting:            {PhaseOperational},
	PhaseOperational:          {},
	PhaseBackoff:              {PhaseNew, PhaseNodeDescriptorRead, PhaseSimpleDescriptorRead, PhaseDDFMatched, PhaseBindings, PhaseReporting},
}

// CanTransitionTo reports whether p -> target is legal. Backoff is always
// reachable (SPEC_FULL §4.6: "* → Backoff: a hard failure"); every other
// transition must appear in ValidTransitions.
func (p Phase) CanTransitionTo(target Phase) bool {
	if target == PhaseBackoff {
		return p != PhaseBackoff
	}
	for _, valid := range ValidTransitions[p] {
		if valid == target {
			return true
		}
	}
	return false
}

// MaxBackoff is the cap SPEC_FULL §4.6 places on the linear backoff delay.
const MaxBackoff = 30 * time.Minute

// BackoffStep is the linear increment applied per consecutive failure.
const BackoffStep = time.Minute

// BackoffDelay returns the delay before retrying after consecutive
// failures, linear and capped at MaxBackoff.
func BackoffDelay(consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return 0
	}
	d := time.Duration(consecutiveFailures) * BackoffStep
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}

// DeviceState tracks one device's phase and backoff bookkeeping.
type DeviceState struct {
	DeviceUniqueID      string
	Phase               Phase
	PreBackoffPhase     Phase // the phase to resume once backoff elapses
	ChangedAt           time.Time
	ConsecutiveFailures int
	BackoffUntil        time.Time
	Reason              string
}

// TransitionTo validates and applies p -> target, recording the reason
// and timestamp. Entering Backoff remembers the current phase so the
// state can resume where it left off once the delay elapses.
func (s *DeviceState) TransitionTo(target Phase, reason string, now time.Time) error {
	if !s.Phase.CanTransitionTo(target) {
		return fmt.Errorf("registry: invalid transition %s -> %s for device %s", s.Phase, target, s.DeviceUniqueID)
	}

	if target == PhaseBackoff {
		s.PreBackoffPhase = s.Phase
		s.ConsecutiveFailures++
		s.BackoffUntil = now.Add(BackoffDelay(s.ConsecutiveFailures))
	} else if s.Phase == PhaseBackoff {
		s.ConsecutiveFailures = 0
	}

	s.Phase = target
	s.ChangedAt = now
	s.Reason = reason
	return nil
}

// ReadyToRetry reports whether a device parked in Backoff has waited out
// its delay and may resume PreBackoffPhase.
func (s *DeviceState) ReadyToRetry(now time.Time) bool {
	return s.Phase == PhaseBackoff && !now.Before(s.BackoffUntil)
}
