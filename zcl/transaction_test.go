package zcl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerHappyPath(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	p := tr.Track(5, 0x0006, false, now)
	require.Equal(t, RequestSentWaitConfirm, p.State)

	require.True(t, tr.Confirm(5, now.Add(time.Second)))
	require.Equal(t, RequestSentWaitResponse, p.State)

	done, ok := tr.Resolve(5, now.Add(2*time.Second))
	require.True(t, ok)
	require.Equal(t, RequestFinished, done.State)
}

func TestTrackerResolveRejectsStaleCorrelation(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Track(9, 0x0006, false, now)
	tr.Confirm(9, now)

	_, ok := tr.Resolve(9, now.Add(CorrelationWindow+time.Second))
	require.False(t, ok)
}

func TestTrackerSweepMarksConfirmTimeoutAsFailed(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Track(1, 0x0006, false, now)

	failed, timedOut := tr.Sweep(now.Add(ConfirmTimeout + time.Second))
	require.Len(t, failed, 1)
	require.Empty(t, timedOut)
}

func TestTrackerSweepUsesEndDeviceResponseWindow(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Track(1, 0x0006, true, now)
	tr.Confirm(1, now)

	_, timedOut := tr.Sweep(now.Add(ResponseTimeout + time.Second))
	require.Empty(t, timedOut, "mains-powered response window must not time out an end device request early")

	_, timedOut = tr.Sweep(now.Add(ResponseTimeoutEndDevice + time.Second))
	require.Len(t, timedOut, 1)
}

func TestTrackerSweepRemovesResolvedEntries(t *testing.T) {
	tr := NewTracker()
	now := time.Now()
	tr.Track(3, 0x0006, false, now)
	tr.Confirm(3, now)
	tr.Resolve(3, now)

	failed, timedOut := tr.Sweep(now.Add(ResponseTimeout + time.Second))
	require.Empty(t, failed)
	require.Empty(t, timedOut)
}
