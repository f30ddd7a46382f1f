// Package eventbus implements the single-threaded, cooperative event
// queue described in SPEC_FULL §4.3. Its tick loop follows the same
// shape as worker.Worker.Start's select-with-default drain pattern, but
// the bus itself is not goroutine-driven: it is drained synchronously by
// package sched once per tick so ordering stays deterministic.
package eventbus

import "github.com/dresden-mesh/meshgwd/resource"

// Event is the unit the bus carries. A non-zero Suffix names the item
// whose value changed; zero means the event is not about a single item
// (e.g. a newly materialized resource).
type Event struct {
	Resource resource.Handle
	Suffix   uint32 // atom.Atom, kept untyped here to avoid an import cycle on item suffixes
	Numeric  int64
	Payload  []byte // small inline payload; callers must not retain beyond dispatch
	DeviceID string // optional device key, used for dedup scoping
	Urgent   bool
}

// dedupKey identifies events eligible for non-urgent dedup: identical
// (resource, suffix, numeric, device id, payload size) per SPEC_FULL §4.3.
type dedupKey struct {
	resource resource.Handle
	suffix   uint32
	numeric  int64
	device   string
	size     int
}

func keyOf(e Event) dedupKey {
	return dedupKey{resource: e.Resource, suffix: e.Suffix, numeric: e.Numeric, device: e.DeviceID, size: len(e.Payload)}
}
