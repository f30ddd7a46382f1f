package binding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseConfigureReportResponseSingleStatusAppliesToAll(t *testing.T) {
	resp, err := ParseConfigureReportResponse([]byte{0x00}, []uint16{0x0000, 0x0020})
	require.NoError(t, err)
	require.Equal(t, []AttributeStatus{
		{AttributeID: 0x0000, Status: 0x00},
		{AttributeID: 0x0020, Status: 0x00},
	}, resp.Statuses)
}

func TestParseConfigureReportResponsePerAttributeRecords(t *testing.T) {
	payload := []byte{
		0x00, 0x00, 0x00, 0x00, // success, direction=0, attr 0x0000
		0x8c, 0x00, 0x20, 0x00, // unsupported attribute, direction=0, attr 0x0020
	}
	resp, err := ParseConfigureReportResponse(payload, nil)
	require.NoError(t, err)
	require.Equal(t, []AttributeStatus{
		{AttributeID: 0x0000, Status: 0x00},
		{AttributeID: 0x0020, Status: 0x8c},
	}, resp.Statuses)
}

func TestParseConfigureReportResponseRejectsMisalignedPayload(t *testing.T) {
	_, err := ParseConfigureReportResponse([]byte{0x00, 0x00, 0x00}, nil)
	require.Error(t, err)
}

func TestApplyConfigureReportResponseOnlyRecordsSuccesses(t *testing.T) {
	resp := ConfigureReportResponse{Statuses: []AttributeStatus{
		{AttributeID: 0x0000, Status: 0x00},
		{AttributeID: 0x0020, Status: 0x8c},
	}}
	now := time.Now()

	got := ApplyConfigureReportResponse(resp, now)
	require.Len(t, got, 1)
	require.Equal(t, uint16(0x0000), got[0].AttributeID)
	require.Equal(t, now, got[0].LastConfigured)
}
