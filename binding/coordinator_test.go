package binding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type alwaysReachable struct{}

func (alwaysReachable) Reachable(extAddress uint64, endDevice bool, now time.Time) bool { return true }

type neverReachable struct{}

func (neverReachable) Reachable(extAddress uint64, endDevice bool, now time.Time) bool { return false }

func TestNextToStartPicksOldestReachableIdleTask(t *testing.T) {
	c := NewCoordinator(alwaysReachable{})
	now := time.Now()
	first := c.Enqueue(KindBind, BindingKey{SrcExtAddress: 1}, false, now)
	c.Enqueue(KindBind, BindingKey{SrcExtAddress: 2}, false, now.Add(time.Second))

	got := c.NextToStart(now)
	require.Equal(t, first.ID, got.ID)
}

func TestNextToStartSkipsUnreachableDevices(t *testing.T) {
	c := NewCoordinator(neverReachable{})
	now := time.Now()
	c.Enqueue(KindBind, BindingKey{SrcExtAddress: 1}, false, now)

	require.Nil(t, c.NextToStart(now))
}

func TestNextToStartRespectsOTABackpressure(t *testing.T) {
	c := NewCoordinator(alwaysReachable{})
	now := time.Now()
	c.Enqueue(KindBind, BindingKey{SrcExtAddress: 1}, false, now)
	c.NoteOTATraffic(now)

	require.Nil(t, c.NextToStart(now.Add(time.Second)))
	require.NotNil(t, c.NextToStart(now.Add(OTABusyWindow+time.Second)))
}

func TestNextToStartRespectsMaxActiveTasks(t *testing.T) {
	c := NewCoordinator(alwaysReachable{})
	now := time.Now()
	for i := 0; i < MaxActiveTasks+1; i++ {
		task := c.Enqueue(KindBind, BindingKey{SrcExtAddress: uint64(i)}, false, now)
		task.Send(uint8(i), now)
	}

	require.Nil(t, c.NextToStart(now))
}

func TestSweepTimeoutsRetriesThenAbandons(t *testing.T) {
	c := NewCoordinator(alwaysReachable{})
	now := time.Now()
	task := c.Enqueue(KindBind, BindingKey{SrcExtAddress: 1}, false, now)
	task.Send(1, now)

	retried, abandoned := c.SweepTimeouts(now.Add(20 * time.Second))
	require.Len(t, retried, 1)
	require.Empty(t, abandoned)
	require.Equal(t, TaskIdle, task.State)

	for i := 0; i < MaxRetries; i++ {
		task.Send(1, now)
		now = now.Add(20 * time.Second)
		c.SweepTimeouts(now)
	}
	require.Equal(t, TaskFinished, task.State)
}
