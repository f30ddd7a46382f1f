// Package zcl implements the Cluster Protocol Engine of SPEC_FULL §4.8:
// frame encode/decode, the attribute codec, per-cluster handler dispatch,
// and outstanding-request correlation, grounded on executor.Registry's
// CanHandle/Register shape.
package zcl

import "sync/atomic"

// SequenceGenerator hands out the per-process ZCL transaction sequence
// number: 8-bit, wrapping, and never zero (0 is reserved so a zeroed
// PendingRequest can never collide with a live sequence number).
type SequenceGenerator struct {
	next uint32
}

// NewSequenceGenerator returns a generator whose first call to Next
// yields 1.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Next returns the next sequence number, skipping zero on wraparound.
func (g *SequenceGenerator) Next() uint8 {
	for {
		v := uint8(atomic.AddUint32(&g.next, 1))
		if v != 0 {
			return v
		}
	}
}
