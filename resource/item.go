// Package resource implements the typed ResourceItem/Resource data model
// (SPEC_FULL §3, §4.2): attribute cells with timestamps and change
// tracking, grouped into Resources that represent devices, sub-devices,
// and groups. The variant shape follows SPEC_FULL §9's guidance to
// replace the teacher domain's multiple-inheritance tree with a tagged
// ResourceBody sharing a common ResourceHeader.
package resource

import (
	"time"

	"github.com/dresden-mesh/meshgwd/atom"
	"github.com/dresden-mesh/meshgwd/drcerr"
)

// ValueType is the tagged-union discriminant for an Item's Value.
type ValueType uint8

const (
	TypeBool ValueType = iota
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeReal
	TypeString // interned short string
	TypeTime   // milliseconds since epoch
	TypeTimePattern
)

// Access describes how an item may be read or written.
type Access uint8

const (
	AccessRO Access = iota
	AccessRW
)

// Source identifies who produced a value, for change-tracking semantics.
type Source uint8

const (
	SourceAPI Source = iota
	SourceDevice
	SourceInternal
)

// ItemFlags are bit flags carried by an Item.
type ItemFlags uint16

const (
	FlagPublic ItemFlags = 1 << iota
	FlagNeedsPush
	FlagNeedsStore
	FlagDynamic
	FlagStatic
	FlagAwake
)

// Descriptor is the immutable shape of an item: its suffix, type, access
// mode and optional numeric range. Descriptors for built-in suffixes are
// registered once at process start; DDF-declared suffixes unknown to the
// built-in set get a dynamic descriptor (SPEC_FULL §4.2).
type Descriptor struct {
	Suffix   atom.Atom
	Type     ValueType
	Access   Access
	Dynamic  bool
	HasRange bool
	Min, Max float64
}

// Value is a tagged-union value matching Descriptor.Type.
type Value struct {
	Type ValueType
	B    bool
	I    int64
	U    uint64
	F    float64
	S    atom.Atom
	T    time.Time
}

func BoolValue(b bool) Value       { return Value{Type: TypeBool, B: b} }
func IntValue(i int64) Value       { return Value{Type: TypeInt32, I: i} }
func UintValue(u uint64) Value     { return Value{Type: TypeUint32, U: u} }
func RealValue(f float64) Value    { return Value{Type: TypeReal, F: f} }
func TimeValue(t time.Time) Value  { return Value{Type: TypeTime, T: t} }
func StringValue(s atom.Atom) Value { return Value{Type: TypeString, S: s} }

// Equal reports whether two values are identical in both type and content.
// ResourceItem.SetValue uses this to decide whether LastChanged advances.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeBool:
		return v.B == o.B
	case TypeReal:
		return v.F == o.F
	case TypeString:
		return v.S == o.S
	case TypeTime:
		return v.T.Equal(o.T)
	default:
		return v.I == o.I && v.U == o.U
	}
}

// Item is a single typed, timestamped attribute cell (SPEC_FULL §4.2).
type Item struct {
	Descriptor   Descriptor
	Value        Value
	LastSet      time.Time
	LastChanged  time.Time
	Flags        ItemFlags
	// DDFHandle resolves this item's backing DDF item template. It is
	// validated against the DDF load generation by the registry, not by
	// the item itself (SPEC_FULL §4.4 handle round-trip contract).
	DDFHandle uint32
}

// NewItem creates an item with its descriptor and zero value, optionally
// public (raises FlagPublic so SetValue marks it for REST push).
func NewItem(d Descriptor, public bool) *Item {
	it := &Item{Descriptor: d}
	if public {
		it.Flags |= FlagPublic
	}
	return it
}

// SetValue applies a new value from the given source (SPEC_FULL §4.2,
// testable property 2). LastSet always advances; LastChanged advances
// only when the value actually differs. Public items raise NeedsPush on
// any accepted write, and every accepted write raises NeedsStore.
func (it *Item) SetValue(v Value, source Source, now time.Time) error {
	if d := it.Descriptor; d.Access == AccessRO && source == SourceAPI {
		return drcerr.New(drcerr.InvalidState, "Item.SetValue", "item is read-only").
			WithDetailsf("suffix=%d", d.Suffix)
	}

	changed := !it.Value.Equal(v)
	it.Value = v
	it.LastSet = now
	if changed {
		it.LastChanged = now
	}

	if it.Flags&FlagPublic != 0 {
		it.Flags |= FlagNeedsPush
	}
	it.Flags |= FlagNeedsStore

	return nil
}

func (it *Item) ToVariant() Value { return it.Value }

func (it *Item) ToBool() (bool, bool) {
	if it.Value.Type != TypeBool {
		return false, false
	}
	return it.Value.B, true
}

func (it *Item) ToNumber() (float64, bool) {
	switch it.Value.Type {
	case TypeReal:
		return it.Value.F, true
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64:
		return float64(it.Value.U), true
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return float64(it.Value.I), true
	default:
		return 0, false
	}
}

func (it *Item) ToString(cache *atom.Cache) (string, bool) {
	if it.Value.Type != TypeString {
		return "", false
	}
	return cache.Get(it.Value.S), true
}

// ClearNeedsStore is called by the persistence adapter once a dirty item
// has been written; ClearNeedsPush is called by the REST view model once
// it has been reported. Both are no-ops if already clear.
func (it *Item) ClearNeedsStore() { it.Flags &^= FlagNeedsStore }
func (it *Item) ClearNeedsPush()  { it.Flags &^= FlagNeedsPush }

func (it *Item) NeedsStore() bool { return it.Flags&FlagNeedsStore != 0 }
func (it *Item) NeedsPush() bool  { return it.Flags&FlagNeedsPush != 0 }
