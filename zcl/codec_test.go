package zcl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUintRoundTripsAllWidths(t *testing.T) {
	for width := 1; width <= 8; width++ {
		var max uint64 = 1<<(uint(width)*8) - 1
		buf := EncodeUint(nil, max, width)
		got, err := DecodeUint(buf, width)
		require.NoError(t, err)
		require.Equal(t, max, got)
	}
}

func TestDecodeUintRejectsShortBuffer(t *testing.T) {
	_, err := DecodeUint([]byte{0x01, 0x02}, 4)
	require.Error(t, err)
}

func TestDecodeAttributeSignExtendsNegativeInt16(t *testing.T) {
	buf := EncodeUint(nil, uint64(uint16(int16(-1))), 2)
	v, consumed, err := DecodeAttribute(buf, TypeInt16)
	require.NoError(t, err)
	require.Equal(t, 2, consumed)
	require.Equal(t, int64(-1), v)
}

func TestDecodeAttributeBool(t *testing.T) {
	v, consumed, err := DecodeAttribute([]byte{0x01}, TypeBool)
	require.NoError(t, err)
	require.Equal(t, 1, consumed)
	require.Equal(t, true, v)
}

func TestDecodeAttributeOctetString(t *testing.T) {
	buf := []byte{0x03, 'f', 'o', 'o'}
	v, consumed, err := DecodeAttribute(buf, TypeString8)
	require.NoError(t, err)
	require.Equal(t, 4, consumed)
	require.Equal(t, []byte("foo"), v)
}

func TestDecodeAttributeRejectsOverrunLength(t *testing.T) {
	buf := []byte{0x05, 'f', 'o', 'o'}
	_, _, err := DecodeAttribute(buf, TypeString8)
	require.Error(t, err)
}

func TestDecodeAttributeRejectsShortUint48(t *testing.T) {
	_, _, err := DecodeAttribute([]byte{0x01, 0x02, 0x03}, TypeUint48)
	require.Error(t, err)
}

func TestEncodeAttributeRoundTripsUint32(t *testing.T) {
	buf, err := EncodeAttribute(nil, TypeUint32, uint64(0xdeadbeef))
	require.NoError(t, err)
	v, consumed, err := DecodeAttribute(buf, TypeUint32)
	require.NoError(t, err)
	require.Equal(t, 4, consumed)
	require.Equal(t, uint64(0xdeadbeef), v)
}

func TestEncodeAttributeRejectsWrongValueKind(t *testing.T) {
	_, err := EncodeAttribute(nil, TypeUint16, "not a number")
	require.Error(t, err)
}
