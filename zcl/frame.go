package zcl

import "github.com/dresden-mesh/meshgwd/drcerr"

// Direction is the ZCL frame-control direction bit.
type Direction uint8

const (
	DirectionClientToServer Direction = 0
	DirectionServerToClient Direction = 1
)

const (
	fcFrameTypeMask       = 0x03
	fcManufacturerBit     = 0x04
	fcDirectionBit        = 0x08
	fcDisableDefaultRespBit = 0x10
)

// Header is a decoded ZCL frame header (SPEC_FULL §4.8: "frame control,
// command id, optional manufacturer code, sequence number, direction").
type Header struct {
	FrameControl        byte
	ClusterSpecific      bool
	ManufacturerSpecific bool
	ManufacturerCode     uint16
	Direction            Direction
	DisableDefaultResp   bool
	SequenceNumber       uint8
	CommandID            uint8
}

// ParseHeader decodes a ZCL header from the front of buf and returns the
// remaining payload bytes.
func ParseHeader(buf []byte) (Header, []byte, error) {
	if len(buf) < 2 {
		return Header{}, nil, drcerr.New(drcerr.Decode, "zcl.ParseHeader", "frame shorter than a minimal ZCL header")
	}
	fc := buf[0]
	h := Header{
		FrameControl:         fc,
		ClusterSpecific:      fc&fcFrameTypeMask == 0x01,
		ManufacturerSpecific: fc&fcManufacturerBit != 0,
		DisableDefaultResp:   fc&fcDisableDefaultRespBit != 0,
	}
	if fc&fcDirectionBit != 0 {
		h.Direction = DirectionServerToClient
	} else {
		h.Direction = DirectionClientToServer
	}

	i := 1
	if h.ManufacturerSpecific {
		if len(buf) < i+2 {
			return Header{}, nil, drcerr.New(drcerr.Decode, "zcl.ParseHeader", "truncated manufacturer code")
		}
		code, err := DecodeUint(buf[i:], 2)
		if err != nil {
			return Header{}, nil, drcerr.Wrap(err, drcerr.Decode, "zcl.ParseHeader", "decoding manufacturer code")
		}
		h.ManufacturerCode = uint16(code)
		i += 2
	}

	if len(buf) < i+2 {
		return Header{}, nil, drcerr.New(drcerr.Decode, "zcl.ParseHeader", "truncated sequence number/command id")
	}
	h.SequenceNumber = buf[i]
	h.CommandID = buf[i+1]
	return h, buf[i+2:], nil
}

// EncodeHeader appends the wire encoding of h to buf.
func EncodeHeader(buf []byte, h Header) []byte {
	fc := h.FrameControl &^ (fcFrameTypeMask | fcManufacturerBit | fcDirectionBit | fcDisableDefaultRespBit)
	if h.ClusterSpecific {
		fc |= 0x01
	}
	if h.ManufacturerSpecific {
		fc |= fcManufacturerBit
	}
	if h.Direction == DirectionServerToClient {
		fc |= fcDirectionBit
	}
	if h.DisableDefaultResp {
		fc |= fcDisableDefaultRespBit
	}
	buf = append(buf, fc)
	if h.ManufacturerSpecific {
		buf = EncodeUint(buf, uint64(h.ManufacturerCode), 2)
	}
	return append(buf, h.SequenceNumber, h.CommandID)
}

// Indication is a decoded incoming cluster frame handed to a registered
// handler.
type Indication struct {
	SrcShortAddress uint16
	SrcExtAddress   uint64
	SrcEndpoint     uint8
	ClusterID       uint16
	ProfileID       uint16
	Header          Header
	Payload         []byte
}
