package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{
		0:   2,
		1:   2,
		2:   2,
		3:   4,
		4:   4,
		5:   8,
		100: 128,
		256: 256,
	}
	for in, want := range cases {
		assert.Equal(t, want, nextPowerOfTwo(in), "nextPowerOfTwo(%d)", in)
	}
}

func TestResolveConfig_DefaultsAndRounding(t *testing.T) {
	c, err := resolveConfig([]Option{WithLocalQueueCapacity(100)})
	require.NoError(t, err)
	assert.True(t, c.enableIO)
	assert.True(t, c.enableTimer)
	assert.Equal(t, 128, c.localQueueCapacity)
	assert.NotNil(t, c.logger)
}

func TestResolveConfig_NonPositiveWorkerCountFallsBackToNumCPU(t *testing.T) {
	c, err := resolveConfig([]Option{WithWorkerCount(0)})
	require.NoError(t, err)
	assert.Greater(t, c.workerCount, 0)
}

func TestResolveConfig_NilOptionIsSkipped(t *testing.T) {
	c, err := resolveConfig([]Option{nil, WithWorkerCount(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, c.workerCount)
}

func TestBuilder_BuildWithNegativeWorkerCountFallsBackToNumCPU(t *testing.T) {
	// A negative count still falls back to NumCPU per resolveConfig, so this
	// only fails if something else made workerCount <= 0 survive resolution.
	rt, err := NewBuilder().WorkerCount(-1).With(WithIOEnabled(false), WithTimerEnabled(false)).Build()
	require.NoError(t, err)
	defer rt.Stop()
	assert.NotEmpty(t, rt.workers)
}
