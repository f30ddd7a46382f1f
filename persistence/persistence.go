// Package persistence declares the External Interfaces of SPEC_FULL §6
// the Device Runtime Core consumes from its persistence adapter: opaque
// secrets, per-resource items, a ZCL value cache, identifier-pair
// enumeration, and alarm system tables. The core never reads back its
// own writes from disk — every getter here is for cold-start load only.
package persistence

import (
	"time"

	"github.com/google/uuid"
)

// SecretStore persists an opaque blob (e.g. a device's network key
// material) keyed by uniqueid, alongside a small state integer the
// caller defines the meaning of.
type SecretStore interface {
	StoreSecret(uniqueID string, blob []byte, state int) error
	LoadSecret(uniqueID string) (blob []byte, state int, found bool, err error)
}

// ResourceItemRecord is one persisted (name, value, timestamp) tuple for
// a sub-device or device resource item.
type ResourceItemRecord struct {
	Name        string
	Value       interface{}
	TimestampMS int64
}

// ResourceItemStore persists per-sub-device and per-device resource
// items.
type ResourceItemStore interface {
	SaveResourceItem(ownerUniqueID string, rec ResourceItemRecord) error
	LoadResourceItems(ownerUniqueID string) ([]ResourceItemRecord, error)
}

// ZCLValueCache records a numeric attribute value per (device, cluster,
// attribute) key, written only when the key appears for the first time;
// a later, different value for the same key is not stored.
type ZCLValueCache interface {
	// PutIfAbsent stores value for (deviceUniqueID, clusterID, attributeID)
	// only if nothing is cached yet for that key, reporting whether the
	// write happened.
	PutIfAbsent(deviceUniqueID string, clusterID uint16, attributeID uint16, value int64) (wrote bool, err error)
	Get(deviceUniqueID string, clusterID uint16, attributeID uint16) (value int64, found bool, err error)
}

// IdentifierPair is one (manufacturer, model) atom-index pair present in
// the database, as consumed by the DDF loader's index build phase.
type IdentifierPair struct {
	ManufacturerAtomIndex uint32
	ModelAtomIndex        uint32
}

// IdentifierPairStore enumerates the (manufacturer, model) pairs in use.
type IdentifierPairStore interface {
	EnumerateIdentifierPairs() ([]IdentifierPair, error)
}

// AlarmSystem is one persisted alarm system: an id, the resource item
// suffixes it tracks, and its member device uniqueids.
type AlarmSystem struct {
	ID              string
	ResourceSuffixes []string
	DeviceUniqueIDs []string
}

// NewAlarmSystemID mints a fresh alarm system identifier, used when a
// client provisions a new alarm system rather than updating one loaded
// from storage.
func NewAlarmSystemID() string {
	return uuid.NewString()
}

// AlarmSystemStore persists alarm system tables.
type AlarmSystemStore interface {
	SaveAlarmSystem(sys AlarmSystem) error
	LoadAlarmSystems() ([]AlarmSystem, error)
}

// Adapter aggregates every persistence concern the core consumes, so a
// component can depend on one narrow interface instead of five.
type Adapter interface {
	SecretStore
	ResourceItemStore
	ZCLValueCache
	IdentifierPairStore
	AlarmSystemStore
}

// Clock is the thin time source persistence debouncing depends on, kept
// as an interface so tests can control it without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real wall-clock Clock.
var SystemClock Clock = systemClock{}
