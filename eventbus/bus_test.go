package eventbus

import (
	"testing"

	"github.com/dresden-mesh/meshgwd/resource"
	"github.com/stretchr/testify/require"
)

func TestUrgentDrainsBeforeNonUrgent(t *testing.T) {
	b := New()
	h := resource.Handle{Index: 1}

	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 1})
	b.Enqueue(Event{Resource: h, Suffix: 2, Numeric: 2, Urgent: true})

	var order []int64
	b.Drain(func(e Event) { order = append(order, e.Numeric) })

	require.Equal(t, []int64{2, 1}, order)
}

func TestNonUrgentDedupRejectsIdenticalEvent(t *testing.T) {
	b := New()
	h := resource.Handle{Index: 1}

	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 42})
	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 42})

	_, nonUrgent := b.Len()
	require.Equal(t, 1, nonUrgent)
}

func TestNonUrgentDedupAllowsDifferingNumeric(t *testing.T) {
	b := New()
	h := resource.Handle{Index: 1}

	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 1})
	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 2})

	_, nonUrgent := b.Len()
	require.Equal(t, 2, nonUrgent)
}

func TestSoftCapKeepsOldestAndRejectsNewEvents(t *testing.T) {
	b := New()
	for i := 0; i < SoftCap+10; i++ {
		b.Enqueue(Event{Resource: resource.Handle{Index: uint32(i)}, Suffix: uint32(i), Numeric: int64(i)})
	}
	_, nonUrgent := b.Len()
	require.Equal(t, SoftCap, nonUrgent)
}

func TestDrainEmptiesBothLanesEventually(t *testing.T) {
	b := New()
	h := resource.Handle{Index: 1}
	for i := 0; i < 5; i++ {
		b.Enqueue(Event{Resource: h, Suffix: uint32(i), Numeric: int64(i)})
	}

	var count int
	b.Drain(func(Event) { count++ })

	require.Equal(t, 5, count)
	u, n := b.Len()
	require.Equal(t, 0, u)
	require.Equal(t, 0, n)
}

func TestDispatchedEventIsRemovedFromDedupIndex(t *testing.T) {
	b := New()
	h := resource.Handle{Index: 1}
	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 1})

	b.Drain(func(Event) {})

	b.Enqueue(Event{Resource: h, Suffix: 1, Numeric: 1})
	_, nonUrgent := b.Len()
	require.Equal(t, 1, nonUrgent, "dedup index must be cleared on dispatch so a repeated event can be re-enqueued")
}
