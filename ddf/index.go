package ddf

import (
	"sync"

	"github.com/dresden-mesh/meshgwd/atom"
)

// pairKey is the (manufacturer atom, model atom) key the index is built
// from, per SPEC_FULL §4.4 step 1.
type pairKey struct {
	manufacturer atom.Atom
	model        atom.Atom
}

// Index holds every loaded Device, the generic item/subdevice templates
// they inherit from, and the constants table used to expand them.
// LoadCounter increments on every (re)load and is embedded in item
// handles so stale handles can be detected in O(1) (SPEC_FULL §4.4).
type Index struct {
	mu sync.RWMutex

	cache *atom.Cache

	LoadCounter uint8 // wraps at 16 per the 4-bit handle field

	constants      *ConstantsTable
	genericItems   map[atom.Atom]ItemTemplate  // keyed by suffix
	genericSubdevs map[string]SubDeviceTemplate // keyed by subdevice type

	devices []Device
	byPair  map[pairKey][]int // indices into devices, in load order
}

func NewIndex(cache *atom.Cache) *Index {
	return &Index{
		cache:          cache,
		constants:      NewConstantsTable(),
		genericItems:   make(map[atom.Atom]ItemTemplate),
		genericSubdevs: make(map[string]SubDeviceTemplate),
		byPair:         make(map[pairKey][]int),
	}
}

// BeginReload bumps LoadCounter and clears the generic item/subdevice
// templates ahead of a full rescan; already-added devices and the
// constants table are left in place.
func (ix *Index) BeginReload() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.LoadCounter = (ix.LoadCounter + 1) & 0xF
	ix.genericItems = make(map[atom.Atom]ItemTemplate)
	ix.genericSubdevs = make(map[string]SubDeviceTemplate)
}

// DefineConstant installs a $NAME constant (SPEC_FULL §4.4 step 2).
func (ix *Index) DefineConstant(name, value string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.constants.Define(name, value)
}

// SetGenericItem installs or fully replaces the generic template for a
// suffix (SPEC_FULL §4.4 step 3: "later reloads fully replace earlier entries").
func (ix *Index) SetGenericItem(t ItemTemplate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.genericItems[t.Suffix] = t
}

// SetGenericSubdevice installs the generic template for a sub-device type.
func (ix *Index) SetGenericSubdevice(t SubDeviceTemplate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.genericSubdevs[t.Type] = t
}

// MergeItem fills in any zero field of t from the generic item sharing
// its suffix, marking each filled field IsGeneric* (SPEC_FULL §4.4 merge
// rule). t is returned unmodified if no generic template exists.
func (ix *Index) MergeItem(t ItemTemplate) ItemTemplate {
	ix.mu.RLock()
	generic, ok := ix.genericItems[t.Suffix]
	ix.mu.RUnlock()
	if !ok {
		return t
	}

	if t.Default == atom.Invalid {
		t.Default = generic.Default
		t.IsGenericDefault = true
	}
	if t.Parse == "" {
		t.Parse = generic.Parse
		t.IsGenericParse = true
	}
	if t.Read == "" {
		t.Read = generic.Read
		t.IsGenericRead = true
	}
	if t.Write == "" {
		t.Write = generic.Write
		t.IsGenericWrite = true
	}
	if t.Refresh == 0 {
		t.Refresh = generic.Refresh
		t.IsGenericRefresh = true
	}
	return t
}

// AddDevice appends a fully decoded device and indexes it by every
// (manufacturer, model) pair it declares.
func (ix *Index) AddDevice(d Device) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos := len(ix.devices)
	ix.devices = append(ix.devices, d)

	for _, mfg := range d.ManufacturerNames {
		mfgAtom, err := ix.cache.Intern(mfg)
		if err != nil {
			return err
		}
		for _, model := range d.ModelIDs {
			modelAtom, err := ix.cache.Intern(model)
			if err != nil {
				return err
			}
			k := pairKey{manufacturer: mfgAtom, model: modelAtom}
			ix.byPair[k] = append(ix.byPair[k], pos)
		}
	}
	return nil
}

// Candidates returns every loaded Device whose manufacturer/model pair
// matches, using case-insensitive manufacturer comparison and exact
// model comparison (SPEC_FULL §4.4 matching step).
func (ix *Index) Candidates(manufacturer, model string) []Device {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []Device
	mfgAtom, err := ix.cache.Intern(manufacturer)
	if err != nil {
		return nil
	}
	modelAtom, err := ix.cache.Intern(model)
	if err != nil {
		return nil
	}

	for k, idxs := range ix.byPair {
		if k.model != modelAtom {
			continue
		}
		if k.manufacturer != mfgAtom && !ix.cache.EqualFold(k.manufacturer, mfgAtom) {
			continue
		}
		for _, i := range idxs {
			out = append(out, ix.devices[i])
		}
	}
	return out
}
