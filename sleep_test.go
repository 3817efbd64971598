package asyncrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepFuture_CancelFutureRemovesArmedWheelEntry(t *testing.T) {
	rt := &Runtime{timer: newTimerWheel(time.Now())}

	f := Sleep(rt, time.Hour).(*sleepFuture)
	cx := &Context{waker: NoOpWaker}

	_, status := f.Poll(cx)
	require.Equal(t, Pending, status)
	require.True(t, f.armed)

	_, ok := rt.timer.byHandle[f.handle]
	require.True(t, ok, "poll must have armed a wheel entry")

	f.cancelFuture()

	_, ok = rt.timer.byHandle[f.handle]
	assert.False(t, ok, "cancelFuture must remove the wheel entry")
	assert.False(t, f.armed)
}

func TestSleepFuture_CancelFutureBeforeFirstPollIsNoop(t *testing.T) {
	rt := &Runtime{timer: newTimerWheel(time.Now())}
	f := Sleep(rt, time.Hour).(*sleepFuture)

	assert.NotPanics(t, func() { f.cancelFuture() })
}

func TestTask_AbortOfSleepingTaskRemovesWheelEntry(t *testing.T) {
	rt := &Runtime{global: newGlobalQueue(), timer: newTimerWheel(time.Now())}

	task := newTask[struct{}](rt, Sleep(rt, time.Hour))
	task.run(nil)
	require.False(t, task.done)
	require.Equal(t, statusIdle, task.status.load())

	sf := task.future.(*sleepFuture)
	require.True(t, sf.armed)
	_, ok := rt.timer.byHandle[sf.handle]
	require.True(t, ok)

	task.cancel()

	assert.True(t, task.done)
	assert.ErrorIs(t, task.outcome.Err, ErrCancelled)
	_, ok = rt.timer.byHandle[sf.handle]
	assert.False(t, ok, "aborting a sleeping task must release its timer-wheel entry")
}
