package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunnable is a minimal runnable for queue tests: it never runs,
// it only needs to be a distinguishable identity.
type recordingRunnable struct{ id int }

func (r *recordingRunnable) run(*worker) {}
func (r *recordingRunnable) wake()       {}
func (r *recordingRunnable) cancel()     {}

func TestLocalQueue_PushPopLIFO(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue()}
	q := newLocalQueue(8)

	for i := 0; i < 4; i++ {
		q.pushOwner(&recordingRunnable{id: i}, rt)
	}

	// Owner pops are LIFO: most recently pushed comes back first.
	for i := 3; i >= 0; i-- {
		r := q.popOwner()
		require.NotNil(t, r)
		assert.Equal(t, i, r.(*recordingRunnable).id)
	}
	assert.Nil(t, q.popOwner())
}

func TestLocalQueue_OverflowDrainsHalfToGlobal(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue()}
	q := newLocalQueue(4)

	for i := 0; i < 4; i++ {
		q.pushOwner(&recordingRunnable{id: i}, rt)
	}
	assert.Equal(t, 4, q.len())

	// Pushing a 5th onto a full queue must overflow half to the global
	// queue rather than drop anything.
	q.pushOwner(&recordingRunnable{id: 4}, rt)

	assert.Equal(t, 2, rt.global.len(), "half of a 4-slot queue should drain")
	assert.Equal(t, 3, q.len())
}

func TestLocalQueue_StealTakesHalfFIFO(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue()}
	victim := newLocalQueue(16)
	thief := newLocalQueue(16)

	for i := 0; i < 8; i++ {
		victim.pushOwner(&recordingRunnable{id: i}, rt)
	}

	n := victim.steal(thief, rt)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, victim.len())
	assert.Equal(t, 4, thief.len())

	// Stolen entries are the oldest (lowest id) half, taken FIFO.
	got := thief.drain()
	ids := make(map[int]bool, len(got))
	for _, r := range got {
		ids[r.(*recordingRunnable).id] = true
	}
	for i := 0; i < 4; i++ {
		assert.True(t, ids[i], "expected id %d among stolen entries", i)
	}
}

func TestLocalQueue_StealFromEmptyIsNoop(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue()}
	victim := newLocalQueue(8)
	thief := newLocalQueue(8)

	assert.Equal(t, 0, victim.steal(thief, rt))
}

func TestLocalQueue_DrainReturnsEverythingRemaining(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue()}
	q := newLocalQueue(8)
	for i := 0; i < 3; i++ {
		q.pushOwner(&recordingRunnable{id: i}, rt)
	}

	drained := q.drain()
	assert.Len(t, drained, 3)
	assert.Equal(t, 0, q.len())
	assert.Nil(t, q.popOwner())
}
