package base

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPendingJobTable(t *testing.T) {
	table := NewPendingJobTable()
	_, found := table.Lookup(3)
	require.False(t, found)

	first := &PendingJob{JobId: "first"}
	table.Store(3, first)
	job, found := table.Lookup(3)
	require.True(t, found)
	require.Same(t, first, job)

	second := &PendingJob{JobId: "second"}
	table.Store(3+PendingJobSlots, second)
	job, _ = table.Lookup(3)
	require.Same(t, second, job)
	require.Equal(t, 1, table.Len())
}

func TestPendingJobTable_Bound(t *testing.T) {
	table := NewPendingJobTable()
	for i := 0; i < 1000; i++ {
		table.Store(byte(i), &PendingJob{})
	}
	require.Equal(t, PendingJobSlots, table.Len())
	table.Invalidate()
	require.Equal(t, 0, table.Len())
	_, found := table.Lookup(0)
	require.False(t, found)
}
