package persistence

import (
	"sync"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// MemoryAdapter is an in-process Adapter implementation: the reference
// used by tests and by a standalone daemon run without Redis/SQLite
// wired in.
type MemoryAdapter struct {
	mu sync.Mutex

	secrets map[string]secretEntry
	items   map[string][]ResourceItemRecord
	zclCache map[zclKey]int64
	pairs   []IdentifierPair
	alarms  map[string]AlarmSystem
}

type secretEntry struct {
	blob  []byte
	state int
}

type zclKey struct {
	deviceUniqueID string
	clusterID      uint16
	attributeID    uint16
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		secrets:  make(map[string]secretEntry),
		items:    make(map[string][]ResourceItemRecord),
		zclCache: make(map[zclKey]int64),
		alarms:   make(map[string]AlarmSystem),
	}
}

func (a *MemoryAdapter) StoreSecret(uniqueID string, blob []byte, state int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	a.secrets[uniqueID] = secretEntry{blob: cp, state: state}
	return nil
}

func (a *MemoryAdapter) LoadSecret(uniqueID string) ([]byte, int, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.secrets[uniqueID]
	if !ok {
		return nil, 0, false, nil
	}
	return e.blob, e.state, true, nil
}

func (a *MemoryAdapter) SaveResourceItem(ownerUniqueID string, rec ResourceItemRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := a.items[ownerUniqueID]
	for i, existing := range items {
		if existing.Name == rec.Name {
			items[i] = rec
			return nil
		}
	}
	a.items[ownerUniqueID] = append(items, rec)
	return nil
}

func (a *MemoryAdapter) LoadResourceItems(ownerUniqueID string) ([]ResourceItemRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ResourceItemRecord, len(a.items[ownerUniqueID]))
	copy(out, a.items[ownerUniqueID])
	return out, nil
}

func (a *MemoryAdapter) PutIfAbsent(deviceUniqueID string, clusterID, attributeID uint16, value int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := zclKey{deviceUniqueID, clusterID, attributeID}
	if _, ok := a.zclCache[key]; ok {
		return false, nil
	}
	a.zclCache[key] = value
	return true, nil
}

func (a *MemoryAdapter) Get(deviceUniqueID string, clusterID, attributeID uint16) (int64, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.zclCache[zclKey{deviceUniqueID, clusterID, attributeID}]
	return v, ok, nil
}

func (a *MemoryAdapter) EnumerateIdentifierPairs() ([]IdentifierPair, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]IdentifierPair, len(a.pairs))
	copy(out, a.pairs)
	return out, nil
}

// AddIdentifierPair records a (manufacturer, model) pair as in use; test
// and cold-start-seeding helper, not part of the Adapter interface.
func (a *MemoryAdapter) AddIdentifierPair(p IdentifierPair) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pairs = append(a.pairs, p)
}

func (a *MemoryAdapter) SaveAlarmSystem(sys AlarmSystem) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sys.ID == "" {
		return drcerr.New(drcerr.InvalidArg, "persistence.SaveAlarmSystem", "alarm system id must not be empty")
	}
	a.alarms[sys.ID] = sys
	return nil
}

func (a *MemoryAdapter) LoadAlarmSystems() ([]AlarmSystem, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AlarmSystem, 0, len(a.alarms))
	for _, sys := range a.alarms {
		out = append(out, sys)
	}
	return out, nil
}

var _ Adapter = (*MemoryAdapter)(nil)
