package pollcontrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingUpdater struct {
	deviceUniqueID string
	at             time.Time
	calls          int
}

func (u *recordingUpdater) SetLastCheckin(deviceUniqueID string, now time.Time) {
	u.deviceUniqueID = deviceUniqueID
	u.at = now
	u.calls++
}

func TestHandleCheckInUpdatesSubDevicesAndKeepsFastPollOff(t *testing.T) {
	updater := &recordingUpdater{}
	now := time.Now()

	resp := HandleCheckIn("00:11:22:33:44:55:66:77-01", updater, now)

	require.Equal(t, 1, updater.calls)
	require.Equal(t, "00:11:22:33:44:55:66:77-01", updater.deviceUniqueID)
	require.Equal(t, now, updater.at)
	require.False(t, resp.StartFastPolling)
}

func TestNewPendingConfigStartsWithBothFlagsSet(t *testing.T) {
	p := NewPendingConfig()
	require.True(t, p.Pending(PendingWriteCheckinInterval))
	require.True(t, p.Pending(PendingSetLongPollInterval))
}

func TestWriteCheckinIntervalAttributeClearsFlagOnce(t *testing.T) {
	p := NewPendingConfig()

	v, ok := p.WriteCheckinIntervalAttribute()
	require.True(t, ok)
	require.Equal(t, DefaultCheckinInterval, v)
	require.False(t, p.Pending(PendingWriteCheckinInterval))

	_, ok = p.WriteCheckinIntervalAttribute()
	require.False(t, ok)
}

func TestSetLongPollIntervalCommandClearsFlagOnce(t *testing.T) {
	p := NewPendingConfig()

	v, ok := p.SetLongPollIntervalCommand()
	require.True(t, ok)
	require.Equal(t, DefaultLongPollInterval, v)
	require.False(t, p.Pending(PendingSetLongPollInterval))

	_, ok = p.SetLongPollIntervalCommand()
	require.False(t, ok)
}

func TestPendingFlagsAreIndependent(t *testing.T) {
	p := NewPendingConfig()
	p.Clear(PendingWriteCheckinInterval)
	require.False(t, p.Pending(PendingWriteCheckinInterval))
	require.True(t, p.Pending(PendingSetLongPollInterval))
}
