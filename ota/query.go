package ota

import (
	"encoding/binary"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

const queryNextImageHardwareVersionBit = 0x01

// QueryNextImage is the decoded "query next image" request payload: the
// source of the firmware version and manufacturer/image identifiers OTA
// bookkeeping observes in passing (SPEC_FULL §4.10).
type QueryNextImage struct {
	ManufacturerCode uint16
	ImageType        uint16
	FileVersion      uint32
	HardwareVersion  uint16
	HasHardwareVersion bool
}

// ParseQueryNextImage decodes the payload without consuming/validating
// anything beyond what OTA bookkeeping needs: it never transfers
// firmware, only extracts the version.
func ParseQueryNextImage(payload []byte) (QueryNextImage, error) {
	if len(payload) < 9 {
		return QueryNextImage{}, drcerr.New(drcerr.Decode, "ota.ParseQueryNextImage", "payload shorter than the fixed query-next-image fields")
	}
	fieldControl := payload[0]
	q := QueryNextImage{
		ManufacturerCode: binary.LittleEndian.Uint16(payload[1:3]),
		ImageType:        binary.LittleEndian.Uint16(payload[3:5]),
		FileVersion:      binary.LittleEndian.Uint32(payload[5:9]),
	}
	if fieldControl&queryNextImageHardwareVersionBit != 0 {
		if len(payload) < 11 {
			return QueryNextImage{}, drcerr.New(drcerr.Decode, "ota.ParseQueryNextImage", "field control declares a hardware version the payload doesn't carry")
		}
		q.HardwareVersion = binary.LittleEndian.Uint16(payload[9:11])
		q.HasHardwareVersion = true
	}
	return q, nil
}
