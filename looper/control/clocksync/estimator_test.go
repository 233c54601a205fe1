package clocksync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_FirstObservationIsUnused(t *testing.T) {
	e := NewEstimator()
	_, used := e.Observe(1_000_000)
	assert.False(t, used)
}

func TestEstimator_ConvergesOnSteadyTempo(t *testing.T) {
	e := NewEstimator()
	ts := int64(0)
	const period = 20_833 // 120 BPM at 24 PPQN
	e.Observe(ts)

	var last int64
	for i := 0; i < 50; i++ {
		ts += period
		p, used := e.Observe(ts)
		require.True(t, used)
		last = p
	}
	assert.InDelta(t, period, last, 5)
}

func TestEstimator_RejectsOutOfGateJitter(t *testing.T) {
	e := NewEstimator()
	ts := int64(0)
	e.Observe(ts)
	ts += 20_000
	_, used := e.Observe(ts)
	require.True(t, used)
	before := e.Estimate()

	ts += 1_000_000 // way outside the gate
	_, used = e.Observe(ts)
	assert.False(t, used)
	assert.Equal(t, before, e.Estimate())
}
