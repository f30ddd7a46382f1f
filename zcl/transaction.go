package zcl

import (
	"sync"
	"time"
)

// ConfirmTimeout bounds how long a pending request waits for the local
// APS confirm before it is marked failed.
const ConfirmTimeout = 8 * time.Second

// ResponseTimeout bounds how long a pending request waits for the
// application response after its APS confirm, for mains-powered devices.
const ResponseTimeout = 16 * time.Second

// ResponseTimeoutEndDevice is ResponseTimeout for end devices.
const ResponseTimeoutEndDevice = 72 * time.Second

// CorrelationWindow bounds how long an inbound response may still be
// matched against the request that carried its sequence number
// (SPEC_FULL §4.8: "matched against the set of outstanding requests
// within a 6-second window").
const CorrelationWindow = 6 * time.Second

// RequestState is the PendingRequest state machine (SPEC_FULL §4.8).
type RequestState string

const (
	RequestSentWaitConfirm  RequestState = "sent-wait-confirm"
	RequestSentWaitResponse RequestState = "sent-wait-response"
	RequestFinished         RequestState = "finished"
	RequestFailed           RequestState = "failed"
	RequestTimedOut         RequestState = "timed-out"
)

// PendingRequest tracks one outstanding unicast cluster request awaiting
// its APS confirm and application response.
type PendingRequest struct {
	SequenceNumber uint8
	ClusterID      uint16
	EndDevice      bool
	State          RequestState
	SentAt         time.Time
	ConfirmedAt    time.Time
}

// NewPendingRequest records a request as just sent.
func NewPendingRequest(seq uint8, clusterID uint16, endDevice bool, now time.Time) *PendingRequest {
	return &PendingRequest{
		SequenceNumber: seq,
		ClusterID:      clusterID,
		EndDevice:      endDevice,
		State:          RequestSentWaitConfirm,
		SentAt:         now,
	}
}

// responseTimeout returns the application-response window for this
// request's device class.
func (p *PendingRequest) responseTimeout() time.Duration {
	if p.EndDevice {
		return ResponseTimeoutEndDevice
	}
	return ResponseTimeout
}

// ConfirmReceived moves SentWaitConfirm -> SentWaitResponse on the local
// APS confirm.
func (p *PendingRequest) ConfirmReceived(now time.Time) bool {
	if p.State != RequestSentWaitConfirm {
		return false
	}
	p.State = RequestSentWaitResponse
	p.ConfirmedAt = now
	return true
}

// MatchesResponse reports whether an inbound response with the given
// sequence number may still be correlated with this request.
func (p *PendingRequest) MatchesResponse(seq uint8, now time.Time) bool {
	if p.State != RequestSentWaitResponse || seq != p.SequenceNumber {
		return false
	}
	return now.Sub(p.SentAt) <= CorrelationWindow || now.Sub(p.ConfirmedAt) <= CorrelationWindow
}

// ResponseReceived moves SentWaitResponse -> Finished for a matching
// response.
func (p *PendingRequest) ResponseReceived(seq uint8, now time.Time) bool {
	if !p.MatchesResponse(seq, now) {
		return false
	}
	p.State = RequestFinished
	return true
}

// Sweep advances p to Failed or TimedOut if its window has elapsed; it
// reports whether a transition happened.
func (p *PendingRequest) Sweep(now time.Time) bool {
	switch p.State {
	case RequestSentWaitConfirm:
		if now.Sub(p.SentAt) > ConfirmTimeout {
			p.State = RequestFailed
			return true
		}
	case RequestSentWaitResponse:
		if now.Sub(p.ConfirmedAt) > p.responseTimeout() {
			p.State = RequestTimedOut
			return true
		}
	}
	return false
}

// Tracker holds the set of outstanding requests and notifies callers
// when one finishes, fails, or times out.
type Tracker struct {
	mu       sync.Mutex
	pending  map[uint8]*PendingRequest
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[uint8]*PendingRequest)}
}

// Track begins tracking a freshly sent request.
func (t *Tracker) Track(seq uint8, clusterID uint16, endDevice bool, now time.Time) *PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := NewPendingRequest(seq, clusterID, endDevice, now)
	t.pending[seq] = p
	return p
}

// Confirm applies an APS confirm to the tracked request with the given
// sequence number, if any.
func (t *Tracker) Confirm(seq uint8, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[seq]
	if !ok {
		return false
	}
	return p.ConfirmReceived(now)
}

// Resolve applies an inbound response to the tracked request with the
// given sequence number, removing it from tracking on success.
func (t *Tracker) Resolve(seq uint8, now time.Time) (*PendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[seq]
	if !ok || !p.ResponseReceived(seq, now) {
		return nil, false
	}
	delete(t.pending, seq)
	return p, true
}

// Sweep advances every tracked request's timeout and removes the ones
// that transitioned away from an in-flight state.
func (t *Tracker) Sweep(now time.Time) (failed, timedOut []*PendingRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for seq, p := range t.pending {
		if !p.Sweep(now) {
			continue
		}
		switch p.State {
		case RequestFailed:
			failed = append(failed, p)
		case RequestTimedOut:
			timedOut = append(timedOut, p)
		}
		delete(t.pending, seq)
	}
	return failed, timedOut
}
