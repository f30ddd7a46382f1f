package tuya

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeParseScheduleRoundTrip(t *testing.T) {
	slots := []ScheduleSlot{
		{Hour: 6, Minute: 0, Setpoint: 21},
		{Hour: 8, Minute: 30, Setpoint: 18},
		{Hour: 22, Minute: 0, Setpoint: 16},
	}
	buf := EncodeSchedule(nil, slots)
	require.Len(t, buf, 9)

	got, err := ParseSchedule(buf)
	require.NoError(t, err)
	require.Equal(t, slots, got)
}

func TestParseScheduleRejectsMisalignedData(t *testing.T) {
	_, err := ParseSchedule([]byte{0x06, 0x00})
	require.Error(t, err)
}
