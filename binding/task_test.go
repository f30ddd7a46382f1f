package binding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskLifecycleHappyPath(t *testing.T) {
	now := time.Now()
	task := NewTask(1, KindBind, BindingKey{SrcExtAddress: 1, SrcEndpoint: 1}, false, now)

	task.Send(7, now)
	require.Equal(t, TaskInProgress, task.State)

	require.True(t, task.ConfirmReceived(7))
	require.Equal(t, TaskWaitConfirm, task.State)

	require.True(t, task.ZDPRequestSent(42))
	require.Equal(t, TaskWaitResponse, task.State)

	require.True(t, task.ResponseReceived(42, true))
	require.Equal(t, TaskFinished, task.State)
}

func TestConfirmReceivedRejectsMismatchedRequestID(t *testing.T) {
	now := time.Now()
	task := NewTask(1, KindBind, BindingKey{}, false, now)
	task.Send(7, now)
	require.False(t, task.ConfirmReceived(8))
	require.Equal(t, TaskInProgress, task.State)
}

func TestTimedOutUsesEndDeviceWindow(t *testing.T) {
	now := time.Now()
	task := NewTask(1, KindBind, BindingKey{}, true, now)
	task.Send(1, now)

	require.False(t, task.TimedOut(now.Add(60*time.Second)))
	require.True(t, task.TimedOut(now.Add(73*time.Second)))
}

func TestTimedOutUsesMainsPoweredWindow(t *testing.T) {
	now := time.Now()
	task := NewTask(1, KindBind, BindingKey{}, false, now)
	task.Send(1, now)

	require.True(t, task.TimedOut(now.Add(17*time.Second)))
}

func TestRetryExhaustionMarksFinished(t *testing.T) {
	task := NewTask(1, KindBind, BindingKey{}, false, time.Now())
	for i := 0; i < MaxRetries; i++ {
		require.True(t, task.Retry())
		require.Equal(t, TaskIdle, task.State)
	}
	require.False(t, task.Retry())
	require.Equal(t, TaskFinished, task.State)
}

func TestPendingBindingsComputesBindConfigureUnbind(t *testing.T) {
	required := []BindingKey{{SrcExtAddress: 1, ClusterID: 6}, {SrcExtAddress: 1, ClusterID: 8}}
	present := []BindingKey{{SrcExtAddress: 1, ClusterID: 6}, {SrcExtAddress: 1, ClusterID: 768}}

	toBind, toConfigure, toUnbind := PendingBindings(required, present, true)
	require.ElementsMatch(t, []BindingKey{{SrcExtAddress: 1, ClusterID: 8}}, toBind)
	require.ElementsMatch(t, required, toConfigure)
	require.ElementsMatch(t, []BindingKey{{SrcExtAddress: 1, ClusterID: 768}}, toUnbind)
}

func TestPendingBindingsSkipsUnbindWhenPolicyDisallows(t *testing.T) {
	required := []BindingKey{{SrcExtAddress: 1, ClusterID: 6}}
	present := []BindingKey{{SrcExtAddress: 1, ClusterID: 768}}

	_, _, toUnbind := PendingBindings(required, present, false)
	require.Empty(t, toUnbind)
}
