package zcl

import "github.com/dresden-mesh/meshgwd/drcerr"

// DataType is a ZCL attribute data type identifier (ZCL spec table 2-10,
// the subset SPEC_FULL §4.8 requires a codec for).
type DataType uint8

const (
	TypeBool    DataType = 0x10
	TypeUint8   DataType = 0x20
	TypeUint16  DataType = 0x21
	TypeUint24  DataType = 0x22
	TypeUint32  DataType = 0x23
	TypeUint40  DataType = 0x24
	TypeUint48  DataType = 0x25
	TypeUint56  DataType = 0x26
	TypeUint64  DataType = 0x27
	TypeInt8    DataType = 0x28
	TypeInt16   DataType = 0x29
	TypeInt24   DataType = 0x2a
	TypeInt32   DataType = 0x2b
	TypeInt40   DataType = 0x2c
	TypeInt48   DataType = 0x2d
	TypeInt56   DataType = 0x2e
	TypeInt64   DataType = 0x2f
	TypeEnum8   DataType = 0x30
	TypeEnum16  DataType = 0x31
	TypeString8 DataType = 0x42 // octet string, 1-byte length prefix
)

// Width returns the on-wire byte width of a fixed-width type, or 0 for a
// variable-width type such as TypeString8.
func Width(t DataType) int {
	switch t {
	case TypeBool, TypeUint8, TypeInt8, TypeEnum8:
		return 1
	case TypeUint16, TypeInt16, TypeEnum16:
		return 2
	case TypeUint24, TypeInt24:
		return 3
	case TypeUint32, TypeInt32:
		return 4
	case TypeUint40, TypeInt40:
		return 5
	case TypeUint48, TypeInt48:
		return 6
	case TypeUint56, TypeInt56:
		return 7
	case TypeUint64, TypeInt64:
		return 8
	default:
		return 0
	}
}

// DecodeUint reads an n-byte little-endian unsigned integer (n in 1..8,
// covering the 24/40/48/56-bit variants ZCL uses alongside the regular
// power-of-two widths) starting at offset 0 of buf. It rejects a buffer
// shorter than the declared width rather than reading past it.
func DecodeUint(buf []byte, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, drcerr.New(drcerr.Decode, "zcl.DecodeUint", "unsupported integer width").WithDetailsf("width=%d", width)
	}
	if len(buf) < width {
		return 0, drcerr.New(drcerr.Decode, "zcl.DecodeUint", "buffer shorter than declared width").WithDetailsf("width=%d have=%d", width, len(buf))
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

// EncodeUint appends the little-endian n-byte encoding of v to buf.
func EncodeUint(buf []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(v))
		v >>= 8
	}
	return buf
}

// DecodeAttribute reads one attribute value of the given type from the
// front of buf, returning the value (as int64 for signed types, uint64
// for unsigned/enum/bool, or []byte for TypeString8) and the number of
// bytes consumed. A frame whose declared length exceeds the remaining
// bytes is rejected outright rather than partially applied (SPEC_FULL
// §4.8: "report a decode error rather than partially apply state
// changes").
func DecodeAttribute(buf []byte, t DataType) (value interface{}, consumed int, err error) {
	if t == TypeString8 {
		if len(buf) < 1 {
			return nil, 0, drcerr.New(drcerr.Decode, "zcl.DecodeAttribute", "missing octet-string length prefix")
		}
		n := int(buf[0])
		if len(buf) < 1+n {
			return nil, 0, drcerr.New(drcerr.Decode, "zcl.DecodeAttribute", "octet string length exceeds remaining bytes").WithDetailsf("declared=%d have=%d", n, len(buf)-1)
		}
		out := make([]byte, n)
		copy(out, buf[1:1+n])
		return out, 1 + n, nil
	}

	width := Width(t)
	if width == 0 {
		return nil, 0, drcerr.New(drcerr.Decode, "zcl.DecodeAttribute", "unsupported data type").WithDetailsf("type=0x%02x", t)
	}
	raw, err := DecodeUint(buf, width)
	if err != nil {
		return nil, 0, drcerr.Wrap(err, drcerr.Decode, "zcl.DecodeAttribute", "decoding fixed-width attribute")
	}

	switch t {
	case TypeBool:
		return raw != 0, width, nil
	case TypeInt8, TypeInt16, TypeInt24, TypeInt32, TypeInt40, TypeInt48, TypeInt56, TypeInt64:
		return signExtend(raw, width), width, nil
	default:
		return raw, width, nil
	}
}

// signExtend reinterprets the low width*8 bits of raw as a signed
// two's-complement integer.
func signExtend(raw uint64, width int) int64 {
	bits := uint(width * 8)
	signBit := uint64(1) << (bits - 1)
	if raw&signBit == 0 {
		return int64(raw)
	}
	return int64(raw) - int64(uint64(1)<<bits)
}

// EncodeAttribute appends the wire encoding of an attribute value to buf.
func EncodeAttribute(buf []byte, t DataType, value interface{}) ([]byte, error) {
	if t == TypeString8 {
		s, ok := value.([]byte)
		if !ok {
			return nil, drcerr.New(drcerr.InvalidArg, "zcl.EncodeAttribute", "octet string value must be []byte")
		}
		if len(s) > 0xff {
			return nil, drcerr.New(drcerr.InvalidArg, "zcl.EncodeAttribute", "octet string longer than 255 bytes")
		}
		buf = append(buf, byte(len(s)))
		return append(buf, s...), nil
	}

	width := Width(t)
	if width == 0 {
		return nil, drcerr.New(drcerr.InvalidArg, "zcl.EncodeAttribute", "unsupported data type").WithDetailsf("type=0x%02x", t)
	}

	var raw uint64
	switch v := value.(type) {
	case bool:
		if v {
			raw = 1
		}
	case uint64:
		raw = v
	case int64:
		raw = uint64(v)
	default:
		return nil, drcerr.New(drcerr.InvalidArg, "zcl.EncodeAttribute", "unsupported value type for attribute encoding")
	}
	return EncodeUint(buf, raw, width), nil
}
