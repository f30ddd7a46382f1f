package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemClockReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	got := SystemClock.Now()
	after := time.Now()

	require.False(t, got.Before(before))
	require.False(t, got.After(after))
}

func TestMemoryAdapterSecretRoundTrip(t *testing.T) {
	a := NewMemoryAdapter()

	_, _, found, err := a.LoadSecret("dev-1")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, a.StoreSecret("dev-1", []byte{0x01, 0x02}, 3))

	blob, state, found, err := a.LoadSecret("dev-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{0x01, 0x02}, blob)
	require.Equal(t, 3, state)
}

func TestMemoryAdapterResourceItemsUpsertByName(t *testing.T) {
	a := NewMemoryAdapter()

	require.NoError(t, a.SaveResourceItem("dev-1", ResourceItemRecord{Name: "state/on", Value: true, TimestampMS: 1}))
	require.NoError(t, a.SaveResourceItem("dev-1", ResourceItemRecord{Name: "state/on", Value: false, TimestampMS: 2}))
	require.NoError(t, a.SaveResourceItem("dev-1", ResourceItemRecord{Name: "state/bri", Value: 200, TimestampMS: 2}))

	items, err := a.LoadResourceItems("dev-1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, it := range items {
		if it.Name == "state/on" {
			require.Equal(t, false, it.Value)
			require.Equal(t, int64(2), it.TimestampMS)
		}
	}
}

func TestMemoryAdapterZCLValueCacheWritesOnlyFirstValue(t *testing.T) {
	a := NewMemoryAdapter()

	wrote, err := a.PutIfAbsent("dev-1", 0x0402, 0x0000, 2100)
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = a.PutIfAbsent("dev-1", 0x0402, 0x0000, 2200)
	require.NoError(t, err)
	require.False(t, wrote)

	v, found, err := a.Get("dev-1", 0x0402, 0x0000)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2100), v)
}

func TestMemoryAdapterIdentifierPairsEnumerate(t *testing.T) {
	a := NewMemoryAdapter()
	a.AddIdentifierPair(IdentifierPair{ManufacturerAtomIndex: 1, ModelAtomIndex: 2})
	a.AddIdentifierPair(IdentifierPair{ManufacturerAtomIndex: 3, ModelAtomIndex: 4})

	pairs, err := a.EnumerateIdentifierPairs()
	require.NoError(t, err)
	require.ElementsMatch(t, []IdentifierPair{
		{ManufacturerAtomIndex: 1, ModelAtomIndex: 2},
		{ManufacturerAtomIndex: 3, ModelAtomIndex: 4},
	}, pairs)
}

func TestMemoryAdapterAlarmSystemRoundTrip(t *testing.T) {
	a := NewMemoryAdapter()

	err := a.SaveAlarmSystem(AlarmSystem{ID: ""})
	require.Error(t, err)

	require.NoError(t, a.SaveAlarmSystem(AlarmSystem{
		ID:               "alarm-1",
		ResourceSuffixes: []string{"state/armed"},
		DeviceUniqueIDs:  []string{"dev-1", "dev-2"},
	}))

	systems, err := a.LoadAlarmSystems()
	require.NoError(t, err)
	require.Len(t, systems, 1)
	require.Equal(t, "alarm-1", systems[0].ID)
}

func TestNewAlarmSystemIDIsUniquePerCall(t *testing.T) {
	first := NewAlarmSystemID()
	second := NewAlarmSystemID()

	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}
