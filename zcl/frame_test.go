package zcl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeParseHeaderRoundTrip(t *testing.T) {
	h := Header{
		ClusterSpecific:      true,
		ManufacturerSpecific: true,
		ManufacturerCode:     0x1135,
		Direction:            DirectionServerToClient,
		DisableDefaultResp:   true,
		SequenceNumber:       42,
		CommandID:            0x0a,
	}
	buf := EncodeHeader(nil, h)
	got, rest, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.True(t, got.ClusterSpecific)
	require.True(t, got.ManufacturerSpecific)
	require.Equal(t, uint16(0x1135), got.ManufacturerCode)
	require.Equal(t, DirectionServerToClient, got.Direction)
	require.True(t, got.DisableDefaultResp)
	require.Equal(t, uint8(42), got.SequenceNumber)
	require.Equal(t, uint8(0x0a), got.CommandID)
}

func TestParseHeaderWithoutManufacturerCode(t *testing.T) {
	h := Header{SequenceNumber: 1, CommandID: 0x00}
	buf := EncodeHeader(nil, h)
	require.Len(t, buf, 3)
	got, rest, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.False(t, got.ManufacturerSpecific)
	require.Equal(t, DirectionClientToServer, got.Direction)
}

func TestParseHeaderLeavesPayloadIntact(t *testing.T) {
	h := Header{SequenceNumber: 5, CommandID: 0x01}
	buf := EncodeHeader(nil, h)
	buf = append(buf, 0xaa, 0xbb)
	_, rest, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb}, rest)
}

func TestParseHeaderRejectsTruncatedFrame(t *testing.T) {
	_, _, err := ParseHeader([]byte{0x00})
	require.Error(t, err)
}

func TestParseHeaderRejectsTruncatedManufacturerCode(t *testing.T) {
	_, _, err := ParseHeader([]byte{fcManufacturerBit, 0x01})
	require.Error(t, err)
}
