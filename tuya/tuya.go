// Package tuya implements the Vendor Tunnel Handler of SPEC_FULL §4.9: a
// cluster-over-cluster codec that carries typed datapoints inside a
// vendor cluster (cluster id 0xEF00), and the DDF-declared (dp_id,
// dp_type) to resource item mapping used to translate them in both
// directions.
package tuya

import (
	"encoding/binary"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// ClusterID is the vendor cluster the tunnel rides on.
const ClusterID = 0xEF00

// DPType is the Tuya datapoint type tag.
type DPType uint8

const (
	DPTypeRaw    DPType = 0x00
	DPTypeBool   DPType = 0x01
	DPTypeValue  DPType = 0x02
	DPTypeString DPType = 0x03
	DPTypeEnum   DPType = 0x04
	DPTypeFault  DPType = 0x05
)

// Datapoint is one decoded entry from a tunnel frame's datapoint list.
type Datapoint struct {
	DPID uint8
	Type DPType
	Data []byte
}

// Frame is a decoded tunnel command/response: status, transaction id,
// and the list of datapoints it carries.
type Frame struct {
	Status        uint8
	TransactionID uint8
	Datapoints    []Datapoint
}

// ParseFrame decodes the outer frame: a 1-byte status, a 1-byte
// transaction id, then repeated (dp_id, dp_type, length, data) records
// with a 2-byte big-endian length.
func ParseFrame(payload []byte) (Frame, error) {
	if len(payload) < 2 {
		return Frame{}, drcerr.New(drcerr.Decode, "tuya.ParseFrame", "payload shorter than the status/transaction-id header")
	}
	f := Frame{Status: payload[0], TransactionID: payload[1]}
	buf := payload[2:]

	for len(buf) > 0 {
		if len(buf) < 4 {
			return Frame{}, drcerr.New(drcerr.Decode, "tuya.ParseFrame", "truncated datapoint header")
		}
		dpID := buf[0]
		dpType := DPType(buf[1])
		length := int(binary.BigEndian.Uint16(buf[2:4]))
		buf = buf[4:]
		if len(buf) < length {
			return Frame{}, drcerr.New(drcerr.Decode, "tuya.ParseFrame", "datapoint length exceeds remaining bytes").
				WithDetailsf("dp_id=%d declared=%d have=%d", dpID, length, len(buf))
		}
		data := make([]byte, length)
		copy(data, buf[:length])
		f.Datapoints = append(f.Datapoints, Datapoint{DPID: dpID, Type: dpType, Data: data})
		buf = buf[length:]
	}
	return f, nil
}

// EncodeFrame appends the wire encoding of f to buf.
func EncodeFrame(buf []byte, f Frame) []byte {
	buf = append(buf, f.Status, f.TransactionID)
	for _, dp := range f.Datapoints {
		buf = append(buf, dp.DPID, byte(dp.Type))
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(dp.Data)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, dp.Data...)
	}
	return buf
}

// DecodeValue interprets a datapoint's raw bytes according to its type:
// value is a 32-bit signed big-endian integer, bool and enum are a
// single byte, string and raw and fault are returned as their raw bytes
// (SPEC_FULL §4.9 payload specifics).
func DecodeValue(dp Datapoint) (interface{}, error) {
	switch dp.Type {
	case DPTypeValue:
		if len(dp.Data) != 4 {
			return nil, drcerr.New(drcerr.Decode, "tuya.DecodeValue", "value datapoint must be 4 bytes").WithDetailsf("dp_id=%d have=%d", dp.DPID, len(dp.Data))
		}
		return int32(binary.BigEndian.Uint32(dp.Data)), nil
	case DPTypeBool:
		if len(dp.Data) != 1 {
			return nil, drcerr.New(drcerr.Decode, "tuya.DecodeValue", "bool datapoint must be 1 byte").WithDetailsf("dp_id=%d have=%d", dp.DPID, len(dp.Data))
		}
		return dp.Data[0] != 0, nil
	case DPTypeEnum:
		if len(dp.Data) != 1 {
			return nil, drcerr.New(drcerr.Decode, "tuya.DecodeValue", "enum datapoint must be 1 byte").WithDetailsf("dp_id=%d have=%d", dp.DPID, len(dp.Data))
		}
		return dp.Data[0], nil
	case DPTypeString, DPTypeRaw, DPTypeFault:
		return dp.Data, nil
	default:
		return nil, drcerr.New(drcerr.Decode, "tuya.DecodeValue", "unsupported datapoint type").WithDetailsf("dp_id=%d type=0x%02x", dp.DPID, dp.Type)
	}
}

// EncodeValue is the reverse of DecodeValue, used when a StateChange
// write becomes an outbound tunnel command.
func EncodeValue(t DPType, v interface{}) ([]byte, error) {
	switch t {
	case DPTypeValue:
		iv, ok := v.(int32)
		if !ok {
			return nil, drcerr.New(drcerr.InvalidArg, "tuya.EncodeValue", "value datapoint requires an int32")
		}
		var out [4]byte
		binary.BigEndian.PutUint32(out[:], uint32(iv))
		return out[:], nil
	case DPTypeBool:
		bv, ok := v.(bool)
		if !ok {
			return nil, drcerr.New(drcerr.InvalidArg, "tuya.EncodeValue", "bool datapoint requires a bool")
		}
		if bv {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	case DPTypeEnum:
		ev, ok := v.(uint8)
		if !ok {
			return nil, drcerr.New(drcerr.InvalidArg, "tuya.EncodeValue", "enum datapoint requires a uint8")
		}
		return []byte{ev}, nil
	case DPTypeString, DPTypeRaw, DPTypeFault:
		bv, ok := v.([]byte)
		if !ok {
			return nil, drcerr.New(drcerr.InvalidArg, "tuya.EncodeValue", "string/raw/fault datapoint requires []byte")
		}
		return bv, nil
	default:
		return nil, drcerr.New(drcerr.InvalidArg, "tuya.EncodeValue", "unsupported datapoint type").WithDetailsf("type=0x%02x", t)
	}
}

// Mapping is one DDF-declared (dp_id, dp_type) to resource item
// translation, as carried in the DDF parse hook parameters.
type Mapping struct {
	DPID   uint8
	Type   DPType
	Suffix string
	// Scale divides a decoded value datapoint's raw integer to produce
	// the resource item's value (e.g. 10 for a heatsetpoint reported in
	// tenths of a degree); ignored for non-value types.
	Scale float64
}

// FindMapping looks up the mapping for an inbound datapoint.
func FindMapping(mappings []Mapping, dp Datapoint) (Mapping, bool) {
	for _, m := range mappings {
		if m.DPID == dp.DPID && m.Type == dp.Type {
			return m, true
		}
	}
	return Mapping{}, false
}

// ApplyDatapoint decodes dp through its mapping, applying the value
// scale, and returns the resource item suffix and value to set.
func ApplyDatapoint(mappings []Mapping, dp Datapoint) (suffix string, value interface{}, err error) {
	m, ok := FindMapping(mappings, dp)
	if !ok {
		return "", nil, drcerr.New(drcerr.NotFound, "tuya.ApplyDatapoint", "no mapping for datapoint").WithDetailsf("dp_id=%d type=0x%02x", dp.DPID, dp.Type)
	}
	raw, err := DecodeValue(dp)
	if err != nil {
		return "", nil, drcerr.Wrap(err, drcerr.Decode, "tuya.ApplyDatapoint", "decoding mapped datapoint")
	}
	if m.Type == DPTypeValue && m.Scale != 0 {
		return m.Suffix, float64(raw.(int32)) / m.Scale, nil
	}
	return m.Suffix, raw, nil
}

// BuildCommand reverses ApplyDatapoint: a StateChange write targeting a
// mapped item becomes an outbound tunnel datapoint with the configured
// dp_id and dp_type.
func BuildCommand(mappings []Mapping, suffix string, value interface{}) (Datapoint, error) {
	var m Mapping
	found := false
	for _, cand := range mappings {
		if cand.Suffix == suffix {
			m = cand
			found = true
			break
		}
	}
	if !found {
		return Datapoint{}, drcerr.New(drcerr.NotFound, "tuya.BuildCommand", "no mapping for resource item suffix").WithDetailsf("suffix=%s", suffix)
	}

	if m.Type == DPTypeValue && m.Scale != 0 {
		fv, ok := value.(float64)
		if !ok {
			return Datapoint{}, drcerr.New(drcerr.InvalidArg, "tuya.BuildCommand", "scaled value datapoint requires a float64")
		}
		value = int32(fv * m.Scale)
	}

	data, err := EncodeValue(m.Type, value)
	if err != nil {
		return Datapoint{}, drcerr.Wrap(err, drcerr.InvalidArg, "tuya.BuildCommand", "encoding mapped value")
	}
	return Datapoint{DPID: m.DPID, Type: m.Type, Data: data}, nil
}

// TransactionCounter hands out the single-byte tunnel transaction id,
// wrapping at 0xff. Unlike the ZCL sequence generator this counter may
// legitimately return zero — Tuya devices don't reserve it.
type TransactionCounter struct {
	next uint8
}

func (c *TransactionCounter) Next() uint8 {
	v := c.next
	c.next++
	return v
}
