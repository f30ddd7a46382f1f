package binding

import (
	"time"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// AttributeStatus is one attribute's configure-report outcome.
type AttributeStatus struct {
	AttributeID uint16
	Status      uint8 // ZCL status code; 0x00 = success
}

// ConfigureReportResponse is the parsed Configure Reporting response
// payload (SPEC_FULL §4.7): either a single trailing status byte that
// applies to every requested attribute, or one (status, direction,
// attribute id) record per attribute.
type ConfigureReportResponse struct {
	Statuses []AttributeStatus
}

// ParseConfigureReportResponse decodes both response shapes. A 1-byte
// payload is the "single status applies to all" form; attrIDs supplies
// the attribute ids that status then applies to (the request the engine
// itself sent, since the single-status form doesn't echo them). Anything
// longer is parsed as repeated 4-byte (status, direction, attrID-LE)
// per-attribute records.
func ParseConfigureReportResponse(payload []byte, attrIDs []uint16) (ConfigureReportResponse, error) {
	if len(payload) == 1 {
		status := payload[0]
		statuses := make([]AttributeStatus, 0, len(attrIDs))
		for _, id := range attrIDs {
			statuses = append(statuses, AttributeStatus{AttributeID: id, Status: status})
		}
		return ConfigureReportResponse{Statuses: statuses}, nil
	}

	if len(payload)%4 != 0 {
		return ConfigureReportResponse{}, drcerr.New(drcerr.Decode, "binding.ParseConfigureReportResponse", "payload length is not a multiple of the per-attribute record size")
	}

	var resp ConfigureReportResponse
	for i := 0; i+4 <= len(payload); i += 4 {
		status := payload[i]
		// payload[i+1] is the direction byte, carried but not surfaced.
		attrID := uint16(payload[i+2]) | uint16(payload[i+3])<<8
		resp.Statuses = append(resp.Statuses, AttributeStatus{AttributeID: attrID, Status: status})
	}
	return resp, nil
}

// ItemBookkeeping is the per-ResourceItem record the coordinator updates
// once an attribute's reporting is confirmed configured.
type ItemBookkeeping struct {
	AttributeID   uint16
	LastConfigured time.Time
}

// ApplyConfigureReportResponse updates bookkeeping for every
// successfully configured attribute and returns the updated records.
func ApplyConfigureReportResponse(resp ConfigureReportResponse, now time.Time) []ItemBookkeeping {
	var out []ItemBookkeeping
	for _, s := range resp.Statuses {
		if s.Status == 0x00 {
			out = append(out, ItemBookkeeping{AttributeID: s.AttributeID, LastConfigured: now})
		}
	}
	return out
}
