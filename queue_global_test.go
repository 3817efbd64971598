package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalQueue_FIFOAcrossChunkBoundary(t *testing.T) {
	q := newGlobalQueue()

	total := gqChunkSize + 10
	for i := 0; i < total; i++ {
		q.push(&recordingRunnable{id: i})
	}
	require.Equal(t, total, q.len())

	for i := 0; i < total; i++ {
		r := q.pop()
		require.NotNil(t, r)
		assert.Equal(t, i, r.(*recordingRunnable).id, "global queue must preserve FIFO order across chunk boundaries")
	}
	assert.Nil(t, q.pop())
	assert.Equal(t, 0, q.len())
}

func TestGlobalQueue_PopBatchBoundedByAvailable(t *testing.T) {
	q := newGlobalQueue()
	for i := 0; i < 3; i++ {
		q.push(&recordingRunnable{id: i})
	}

	batch := q.popBatch(10)
	assert.Len(t, batch, 3)
	assert.Equal(t, 0, q.len())
}

func TestGlobalQueue_PushBatchThenDrain(t *testing.T) {
	q := newGlobalQueue()
	items := []runnable{&recordingRunnable{id: 1}, &recordingRunnable{id: 2}}
	q.pushBatch(items)

	drained := q.drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, q.len())
}
