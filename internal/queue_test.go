package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDroppingQueuePushAndDrain(t *testing.T) {
	q := NewDroppingQueue[int](2, "test-queue", "test_queue_full")

	require.True(t, q.Push(1), "expected first push to be accepted")
	require.True(t, q.Push(2), "expected second push to be accepted")

	assert.Equal(t, 1, <-q.C())
	assert.Equal(t, 2, <-q.C())
}

func TestDroppingQueueDropsOnceFull(t *testing.T) {
	q := NewDroppingQueue[int](1, "test-queue-full", "test_queue_full")

	require.True(t, q.Push(1), "expected push into empty capacity-1 queue to be accepted")
	assert.False(t, q.Push(2), "expected push into a full queue to be dropped")

	assert.Equal(t, 1, <-q.C(), "drained value should be the item that was actually accepted")
}

func TestDroppingQueueClose(t *testing.T) {
	q := NewDroppingQueue[int](1, "test-queue-close", "test_queue_full")
	q.Close()

	_, ok := <-q.C()
	assert.False(t, ok, "expected receive from a closed empty queue to report !ok")
}
