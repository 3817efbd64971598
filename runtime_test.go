package asyncrt

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1 (spec.md §8.1): spawn and join.
func TestScenario_SpawnAndJoin(t *testing.T) {
	rt, err := NewBuilder().WorkerCount(2).With(WithIOEnabled(false)).Build()
	require.NoError(t, err)
	defer rt.Stop()

	h, err := SpawnValue[int](rt, FuncFuture[int](func() (int, error) { return 1 + 2, nil }))
	require.NoError(t, err)

	out := BlockOn[Outcome[int]](rt, h)
	require.NoError(t, out.Err)
	assert.Equal(t, 3, out.Value)
}

// Scenario 2 (spec.md §8.2): cooperative yield / fan-out. 1,000 tasks each
// increment a shared counter once; after joining all, the counter is
// exactly 1,000 regardless of which worker ran which task.
func TestScenario_FanOutIncrementsSharedCounter(t *testing.T) {
	rt, err := NewBuilder().WorkerCount(4).With(WithIOEnabled(false)).Build()
	require.NoError(t, err)
	defer rt.Stop()

	var counter atomic.Int64
	const n = 1000
	handles := make([]*JoinHandle[struct{}], n)
	for i := 0; i < n; i++ {
		h, err := SpawnValue[struct{}](rt, FuncFuture[struct{}](func() (struct{}, error) {
			counter.Add(1)
			return struct{}{}, nil
		}))
		require.NoError(t, err)
		handles[i] = h
	}

	for _, h := range handles {
		out := BlockOn[Outcome[struct{}]](rt, h)
		require.NoError(t, out.Err)
	}

	assert.Equal(t, int64(n), counter.Load())
}

// Scenario 3 (spec.md §8.3): timer precision. sleep(50ms) never resolves
// in under 50ms, measured from outside the runtime.
func TestScenario_SleepNeverFiresEarly(t *testing.T) {
	rt, err := NewBuilder().WorkerCount(1).Build()
	require.NoError(t, err)
	defer rt.Stop()

	start := time.Now()
	h, err := SpawnValue(rt, Sleep(rt, 50*time.Millisecond))
	require.NoError(t, err)

	out := BlockOn[Outcome[struct{}]](rt, h)
	require.NoError(t, out.Err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

// Scenario 4 (spec.md §8.4): work stealing. Inject many no-op tasks from
// outside any worker; completion should spread across workers rather than
// pile onto one (checked loosely here: total completions matches, and the
// run finishes promptly, which would not happen if stealing were broken
// and only one worker ever made progress).
func TestScenario_WorkStealingDrainsGlobalQueue(t *testing.T) {
	rt, err := NewBuilder().WorkerCount(4).With(WithIOEnabled(false)).Build()
	require.NoError(t, err)
	defer rt.Stop()

	const n = 2000
	var completed atomic.Int64
	handles := make([]*JoinHandle[struct{}], n)
	for i := 0; i < n; i++ {
		h, err := SpawnValue[struct{}](rt, FuncFuture[struct{}](func() (struct{}, error) {
			completed.Add(1)
			return struct{}{}, nil
		}))
		require.NoError(t, err)
		handles[i] = h
	}
	for _, h := range handles {
		out := BlockOn[Outcome[struct{}]](rt, h)
		require.NoError(t, out.Err)
	}
	assert.Equal(t, int64(n), completed.Load())
}

// Scenario 5 (spec.md §8.5): cancellation. A task sleeping 1s is aborted
// after 10ms; its join resolves Cancelled promptly rather than after the
// full second.
func TestScenario_AbortResolvesCancelledPromptly(t *testing.T) {
	rt, err := NewBuilder().WorkerCount(1).Build()
	require.NoError(t, err)
	defer rt.Stop()

	h, err := SpawnValue(rt, Sleep(rt, time.Second))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	h.Abort()

	start := time.Now()
	out := BlockOn[Outcome[struct{}]](rt, h)
	assert.ErrorIs(t, out.Err, ErrCancelled)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "cancellation must not wait out the full sleep")
}
