package zcl

import (
	"sync"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Handler processes one decoded indication for the cluster(s) it claims
// via CanHandle.
type Handler interface {
	CanHandle(ind Indication) bool
	Handle(ind Indication) error
	Name() string
}

// HandlerRegistry dispatches indications to the first registered handler
// willing to take them, grounded on executor.Registry's CanHandle/
// Register shape.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register appends h to the dispatch order; earlier registrations take
// priority over later ones for overlapping CanHandle claims.
func (r *HandlerRegistry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Dispatch finds the first handler willing to take ind and runs it.
func (r *HandlerRegistry) Dispatch(ind Indication) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.handlers {
		if h.CanHandle(ind) {
			return h.Handle(ind)
		}
	}
	return drcerr.New(drcerr.Unsupported, "zcl.Dispatch", "no handler registered for indication").
		WithDetailsf("cluster=0x%04x endpoint=%d", ind.ClusterID, ind.SrcEndpoint)
}
