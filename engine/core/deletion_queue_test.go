package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionQueueFlushRunsInReverse(t *testing.T) {
	var dq DeletionQueue
	var order []string
	for _, name := range []string{"instance", "surface", "device", "swapchain"} {
		name := name
		dq.Push(func() { order = append(order, name) })
	}
	assert.Equal(t, 4, dq.Len())

	dq.Flush()

	assert.Equal(t, []string{"swapchain", "device", "surface", "instance"}, order)
	assert.Zero(t, dq.Len())

	// A second flush has nothing left to run.
	dq.Flush()
	assert.Len(t, order, 4)
}

func TestDeletionQueueReusableAfterFlush(t *testing.T) {
	var dq DeletionQueue
	calls := 0
	dq.Push(func() { calls++ })
	dq.Flush()
	dq.Push(func() { calls += 10 })
	dq.Flush()
	assert.Equal(t, 11, calls)
}
