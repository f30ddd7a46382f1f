package resource

import (
	"github.com/dresden-mesh/meshgwd/atom"
)

// Prefix identifies which kind of Resource a header belongs to.
type Prefix uint8

const (
	PrefixDevice Prefix = iota
	PrefixLight
	PrefixSensor
	PrefixGroup
	PrefixResourcelinks
)

// Handle is a stable (index, generation) pair identifying a Resource
// across ticks without holding a pointer into a slice the registry may
// reallocate (SPEC_FULL §9, "cyclic ownership").
type Handle struct {
	Index      uint32
	Generation uint32
}

// Invalid reports whether h is the zero handle.
func (h Handle) Invalid() bool { return h.Index == 0 && h.Generation == 0 }

// Header is the data every Resource variant shares.
type Header struct {
	Handle   Handle
	Prefix   Prefix
	UniqueID string // globally unique within the registry (SPEC_FULL §3 invariant)
	Parent   Handle // opaque parent handle; zero for top-level Resources
	Items    []*Item
}

// ItemBySuffix returns the item with the given suffix, if present.
func (h *Header) ItemBySuffix(suffix atom.Atom) *Item {
	for _, it := range h.Items {
		if it.Descriptor.Suffix == suffix {
			return it
		}
	}
	return nil
}

// AddItem appends it unless a same-suffix item already exists, in which
// case it is replaced (reload semantics: DDF reload redefines templates).
func (h *Header) AddItem(it *Item) {
	for i, existing := range h.Items {
		if existing.Descriptor.Suffix == it.Descriptor.Suffix {
			h.Items[i] = it
			return
		}
	}
	h.Items = append(h.Items, it)
}

// DeviceBody carries Device-specific state (SPEC_FULL §3 Device entity).
type DeviceBody struct {
	Header
	ExtAddress   uint64
	NetAddress   uint16
	Endpoints    []uint8
	Bindings     []Binding
	MatchedDDF   uint32 // DDF table index, Invalid (0) until matched
	SubDevices   []Handle
	LastSeen     int64 // logical seconds; used for end-device reachability
}

// SubDeviceBody is "a Resource whose uniqueid is derived from
// <device ext address>-<endpoint>[-<cluster>]" (SPEC_FULL §3).
type SubDeviceBody struct {
	Header
	Device    Handle
	Endpoint  uint8
	ClusterID uint16 // 0 if not cluster-qualified
}

// GroupBody carries Group-specific state, including the scene list and
// member sub-devices supplemented from original_source/group.cpp
// (SPEC_FULL §4.13 supplemented features).
type GroupBody struct {
	Header
	Scenes     []uint16
	Members    []Handle
	AutoGroup  bool // created implicitly by a config/group write; eligible for GC
}

// Binding is a device-resident forwarding rule (SPEC_FULL §3 Binding
// entity); declared here so DeviceBody can hold a list without an import
// cycle with package binding.
type Binding struct {
	SrcExtAddress uint64
	SrcEndpoint   uint8
	ClusterID     uint16
	DstGroup      bool
	DstExtAddress uint64
	DstEndpoint   uint8
	DstGroupID    uint16
	Report        *ReportConfig
}

// ReportConfig mirrors the DDF "report" block (SPEC_FULL §4.7).
type ReportConfig struct {
	AttributeID       uint16
	DataType          uint8
	MinInterval       uint16
	MaxInterval       uint16
	ReportableChange  uint64
	ManufacturerCode  uint16
	LastConfigured    int64 // logical seconds, 0 if never configured
}
