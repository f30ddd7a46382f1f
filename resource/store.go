package resource

import (
	"sync"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Store owns every Resource in the runtime and enforces the uniqueid
// uniqueness invariant (SPEC_FULL §3: "attempting to create a second
// Resource with the same uniqueid yields the existing one"). Handles are
// (index, generation) pairs so callers can hold a Handle across ticks
// without pinning a pointer into a slice the Store may compact.
type Store struct {
	mu sync.RWMutex

	devices     []*DeviceBody
	subdevices  []*SubDeviceBody
	groups      []*GroupBody
	slots       []slot   // flat handle-index space shared by all variants
	generations []uint32 // parallel to slots

	byUniqueID map[string]Handle
	freeIndex  []uint32 // recycled slots after a Remove
}

// slot resolves a flat handle index back to the variant-specific slice
// position it belongs to, so a bare Handle can be dereferenced without
// knowing its Prefix ahead of time.
type slot struct {
	prefix Prefix
	pos    int // index into devices/subdevices/groups
	live   bool
}

func NewStore() *Store {
	s := &Store{byUniqueID: make(map[string]Handle)}
	s.slots = append(s.slots, slot{}) // index 0 reserved, matches Handle zero value
	s.generations = append(s.generations, 0)
	return s
}

func (s *Store) allocSlot(prefix Prefix, pos int) Handle {
	var idx uint32
	if n := len(s.freeIndex); n > 0 {
		idx = s.freeIndex[n-1]
		s.freeIndex = s.freeIndex[:n-1]
		s.slots[idx] = slot{prefix: prefix, pos: pos, live: true}
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{prefix: prefix, pos: pos, live: true})
		s.generations = append(s.generations, 0)
	}
	return Handle{Index: idx, Generation: s.generations[idx]}
}

// CreateDevice creates a new Device Resource, or returns the existing one
// if uniqueID is already registered.
func (s *Store) CreateDevice(uniqueID string, extAddr uint64) (*DeviceBody, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.byUniqueID[uniqueID]; ok {
		return s.deviceAt(h), false
	}

	d := &DeviceBody{Header: Header{Prefix: PrefixDevice, UniqueID: uniqueID}, ExtAddress: extAddr}
	pos := len(s.devices)
	s.devices = append(s.devices, d)
	d.Handle = s.allocSlot(PrefixDevice, pos)
	s.byUniqueID[uniqueID] = d.Handle
	return d, true
}

// CreateSubDevice creates a sub-device under parent, deriving uniqueness
// from the SPEC_FULL §3 uniqueid rule "<ext address>-<endpoint>[-<cluster>]".
// Returns the existing sub-device and false if uniqueID is already known.
func (s *Store) CreateSubDevice(parent Handle, uniqueID string, endpoint uint8, clusterID uint16) (*SubDeviceBody, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.byUniqueID[uniqueID]; ok {
		return s.subDeviceAt(h), false
	}

	sd := &SubDeviceBody{
		Header:    Header{Prefix: PrefixLight, UniqueID: uniqueID, Parent: parent},
		Device:    parent,
		Endpoint:  endpoint,
		ClusterID: clusterID,
	}
	pos := len(s.subdevices)
	s.subdevices = append(s.subdevices, sd)
	sd.Handle = s.allocSlot(PrefixLight, pos)
	s.byUniqueID[uniqueID] = sd.Handle

	if dev := s.deviceAt(parent); dev != nil {
		dev.SubDevices = append(dev.SubDevices, sd.Handle)
	}
	return sd, true
}

// CreateGroup creates a group. autoGroup marks it eligible for garbage
// collection once Members becomes empty (SPEC_FULL §9 Open Question 2);
// explicitly user-created groups (autoGroup=false) are never auto-removed.
func (s *Store) CreateGroup(uniqueID string, autoGroup bool) (*GroupBody, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.byUniqueID[uniqueID]; ok {
		return s.groupAt(h), false
	}

	g := &GroupBody{Header: Header{Prefix: PrefixGroup, UniqueID: uniqueID}, AutoGroup: autoGroup}
	pos := len(s.groups)
	s.groups = append(s.groups, g)
	g.Handle = s.allocSlot(PrefixGroup, pos)
	s.byUniqueID[uniqueID] = g.Handle
	return g, true
}

// GCAutoGroups removes every auto-created group whose Members list is
// empty, per SPEC_FULL §9 Open Question 2.
func (s *Store) GCAutoGroups() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.groups[:0]
	for _, g := range s.groups {
		if g.AutoGroup && len(g.Members) == 0 {
			delete(s.byUniqueID, g.UniqueID)
			s.freeIndex = append(s.freeIndex, g.Handle.Index)
			s.generations[g.Handle.Index]++
			removed++
			continue
		}
		kept = append(kept, g)
	}
	s.groups = kept
	return removed
}

func (s *Store) deviceAt(h Handle) *DeviceBody {
	sl := s.slotAt(h)
	if sl == nil || sl.prefix != PrefixDevice {
		return nil
	}
	return s.devices[sl.pos]
}

func (s *Store) subDeviceAt(h Handle) *SubDeviceBody {
	sl := s.slotAt(h)
	if sl == nil || sl.prefix != PrefixLight {
		return nil
	}
	return s.subdevices[sl.pos]
}

func (s *Store) groupAt(h Handle) *GroupBody {
	sl := s.slotAt(h)
	if sl == nil || sl.prefix != PrefixGroup {
		return nil
	}
	return s.groups[sl.pos]
}

func (s *Store) slotAt(h Handle) *slot {
	if int(h.Index) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[h.Index]
	if !sl.live || s.generations[h.Index] != h.Generation {
		return nil
	}
	return sl
}

// Device resolves a Handle to its DeviceBody, or nil if stale/wrong kind.
func (s *Store) Device(h Handle) *DeviceBody {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceAt(h)
}

// SubDevice resolves a Handle to its SubDeviceBody, or nil if stale/wrong kind.
func (s *Store) SubDevice(h Handle) *SubDeviceBody {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subDeviceAt(h)
}

// Group resolves a Handle to its GroupBody, or nil if stale/wrong kind.
func (s *Store) Group(h Handle) *GroupBody {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupAt(h)
}

// ByUniqueID looks up any Resource's Handle by its uniqueid string.
func (s *Store) ByUniqueID(uniqueID string) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byUniqueID[uniqueID]
	return h, ok
}

// RemoveDevice deletes a device, all of its sub-devices, and their
// uniqueid entries. Returns drcerr.NotFound if the handle does not
// resolve to a live device.
func (s *Store) RemoveDevice(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev := s.deviceAt(h)
	if dev == nil {
		return drcerr.New(drcerr.NotFound, "Store.RemoveDevice", "no such device").
			WithDetailsf("index=%d gen=%d", h.Index, h.Generation)
	}

	for _, sdh := range dev.SubDevices {
		if sd := s.subDeviceAt(sdh); sd != nil {
			delete(s.byUniqueID, sd.UniqueID)
			s.freeIndex = append(s.freeIndex, sdh.Index)
			s.generations[sdh.Index]++
		}
	}

	delete(s.byUniqueID, dev.UniqueID)
	s.freeIndex = append(s.freeIndex, h.Index)
	s.generations[h.Index]++
	return nil
}
