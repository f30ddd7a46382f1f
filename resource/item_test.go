package resource

import (
	"testing"
	"time"

	"github.com/dresden-mesh/meshgwd/atom"
	"github.com/stretchr/testify/require"
)

func TestSetValueRejectsAPIWriteToReadOnlyItem(t *testing.T) {
	it := NewItem(Descriptor{Suffix: atom.Atom(1), Type: TypeBool, Access: AccessRO}, true)
	err := it.SetValue(BoolValue(true), SourceAPI, time.Now())
	require.Error(t, err)
}

func TestSetValueAllowsDeviceWriteToReadOnlyItem(t *testing.T) {
	it := NewItem(Descriptor{Suffix: atom.Atom(1), Type: TypeBool, Access: AccessRO}, true)
	err := it.SetValue(BoolValue(true), SourceDevice, time.Now())
	require.NoError(t, err)
}

func TestSetValueOnlyAdvancesLastChangedWhenValueDiffers(t *testing.T) {
	it := NewItem(Descriptor{Suffix: atom.Atom(1), Type: TypeReal, Access: AccessRW}, false)

	t1 := time.Now()
	require.NoError(t, it.SetValue(RealValue(1.0), SourceDevice, t1))
	require.True(t, it.LastChanged.Equal(t1))

	t2 := t1.Add(time.Second)
	require.NoError(t, it.SetValue(RealValue(1.0), SourceDevice, t2))
	require.True(t, it.LastSet.Equal(t2))
	require.True(t, it.LastChanged.Equal(t1), "unchanged value must not advance LastChanged")

	t3 := t2.Add(time.Second)
	require.NoError(t, it.SetValue(RealValue(2.0), SourceDevice, t3))
	require.True(t, it.LastChanged.Equal(t3))
}

func TestSetValueRaisesNeedsPushOnlyForPublicItems(t *testing.T) {
	pub := NewItem(Descriptor{Suffix: atom.Atom(1), Type: TypeBool, Access: AccessRW}, true)
	require.NoError(t, pub.SetValue(BoolValue(true), SourceDevice, time.Now()))
	require.True(t, pub.NeedsPush())

	priv := NewItem(Descriptor{Suffix: atom.Atom(2), Type: TypeBool, Access: AccessRW}, false)
	require.NoError(t, priv.SetValue(BoolValue(true), SourceDevice, time.Now()))
	require.False(t, priv.NeedsPush())
}

func TestSetValueAlwaysRaisesNeedsStore(t *testing.T) {
	it := NewItem(Descriptor{Suffix: atom.Atom(1), Type: TypeBool, Access: AccessRW}, false)
	require.NoError(t, it.SetValue(BoolValue(true), SourceDevice, time.Now()))
	require.True(t, it.NeedsStore())

	it.ClearNeedsStore()
	require.False(t, it.NeedsStore())
}

func TestValueEqualAcrossTypes(t *testing.T) {
	require.True(t, BoolValue(true).Equal(BoolValue(true)))
	require.False(t, BoolValue(true).Equal(BoolValue(false)))
	require.False(t, BoolValue(true).Equal(RealValue(1)))
	require.True(t, RealValue(1.5).Equal(RealValue(1.5)))
}

func TestDescriptorRegistryDynamicRegistrationIsIdempotent(t *testing.T) {
	cache := atom.New()
	suffix, err := cache.Intern("config/custom")
	require.NoError(t, err)

	reg := NewDescriptorRegistry()
	d1 := reg.RegisterDynamic(suffix, TypeUint8, AccessRO)
	d2 := reg.RegisterDynamic(suffix, TypeUint8, AccessRO)
	require.Equal(t, d1, d2)

	got, ok := reg.Lookup(suffix)
	require.True(t, ok)
	require.Equal(t, d1, got)
}

func TestDescriptorRegistryBuiltinTakesPrecedence(t *testing.T) {
	cache := atom.New()
	suffix, _ := cache.Intern("state/on")

	reg := NewDescriptorRegistry()
	reg.RegisterBuiltin(Descriptor{Suffix: suffix, Type: TypeBool, Access: AccessRW})
	reg.RegisterDynamic(suffix, TypeUint8, AccessRO)

	got, ok := reg.Lookup(suffix)
	require.True(t, ok)
	require.Equal(t, TypeBool, got.Type)
}
