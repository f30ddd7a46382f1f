package resource

import (
	"sync"

	"github.com/dresden-mesh/meshgwd/atom"
)

// DescriptorRegistry holds the built-in item descriptors plus any dynamic
// descriptors allocated for DDF-declared suffixes the built-in set does
// not know about (SPEC_FULL §4.2). Registration of a given suffix is
// idempotent: a second RegisterDynamic call for the same suffix returns
// the existing descriptor rather than allocating a new one.
type DescriptorRegistry struct {
	mu      sync.RWMutex
	builtin map[atom.Atom]Descriptor
	dynamic map[atom.Atom]Descriptor
}

func NewDescriptorRegistry() *DescriptorRegistry {
	return &DescriptorRegistry{
		builtin: make(map[atom.Atom]Descriptor),
		dynamic: make(map[atom.Atom]Descriptor),
	}
}

// RegisterBuiltin installs a fixed descriptor known ahead of time (e.g.
// state/buttonevent, config/on). Built-ins are expected to be registered
// once at startup, before any device is initialized.
func (r *DescriptorRegistry) RegisterBuiltin(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtin[d.Suffix] = d
}

// RegisterDynamic allocates (or returns the existing) runtime descriptor
// for a suffix the built-in set does not cover. The suffix must already
// be interned by the caller so its backing string outlives the descriptor.
func (r *DescriptorRegistry) RegisterDynamic(suffix atom.Atom, typ ValueType, access Access) Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.dynamic[suffix]; ok {
		return d
	}
	d := Descriptor{Suffix: suffix, Type: typ, Access: access, Dynamic: true}
	r.dynamic[suffix] = d
	return d
}

// Lookup resolves a suffix to its descriptor, checking built-ins first.
func (r *DescriptorRegistry) Lookup(suffix atom.Atom) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.builtin[suffix]; ok {
		return d, true
	}
	d, ok := r.dynamic[suffix]
	return d, ok
}
