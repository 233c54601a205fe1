package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampBlock(n int, start int16) []int16 {
	b := make([]int16, n)
	for i := range b {
		b[i] = start + int16(i)
	}
	return b
}

// TestStutter_Scenario5 matches spec.md §8 scenario 5: FUNC+STUTTER both
// free, button held across 15,000 samples of audio.
func TestStutter_Scenario5_FreeCaptureHeldThenReleased(t *testing.T) {
	blockSize := 128
	s := NewStutter(44_100, 100_000)
	require.Equal(t, IdleNoLoop, s.State())

	s.SetHeld(true)
	s.RequestCaptureBegin(true, 0)

	out := make([]int16, blockSize)
	pos := uint64(0)
	captured := 0
	for captured < 15_000 {
		in := rampBlock(blockSize, int16(captured))
		s.ProcessBlock(pos, in, in, out, out)
		pos += uint64(blockSize)
		captured += blockSize
	}
	require.Equal(t, Capturing, s.State())

	s.RequestCaptureEnd(true, 0)
	in := rampBlock(blockSize, 0)
	s.ProcessBlock(pos, in, in, out, out)
	pos += uint64(blockSize)

	// held was true at release time, so the post-capture destination is
	// PLAYING, not IDLE_WITH_LOOP.
	assert.Equal(t, Playing, s.State())
	assert.Greater(t, s.CaptureLength(), uint32(0))
	assert.LessOrEqual(t, s.CaptureLength(), uint32(s.BufferLen()))

	s.SetHeld(false)
	s.RequestPlaybackEnd(true, 0)
	s.ProcessBlock(pos, in, in, out, out)
	assert.Equal(t, IdleWithLoop, s.State())
}

func TestStutter_CaptureEndWithoutHeldGoesToIdleWithLoop(t *testing.T) {
	blockSize := 64
	s := NewStutter(44_100, 100_000)
	s.RequestCaptureBegin(true, 0)

	out := make([]int16, blockSize)
	in := rampBlock(blockSize, 1)
	s.ProcessBlock(0, in, in, out, out)
	require.Equal(t, Capturing, s.State())

	s.RequestCaptureEnd(true, 0)
	s.ProcessBlock(uint64(blockSize), in, in, out, out)
	assert.Equal(t, IdleWithLoop, s.State())
	assert.Greater(t, s.CaptureLength(), uint32(0))
}

func TestStutter_ZeroLengthCaptureGoesToIdleNoLoop(t *testing.T) {
	s := NewStutter(44_100, 100_000)
	s.RequestCaptureBegin(true, 0)

	empty := make([]int16, 0)
	s.ProcessBlock(0, empty, empty, empty, empty)
	require.Equal(t, Capturing, s.State())

	s.RequestCaptureEnd(true, 0)
	s.ProcessBlock(0, empty, empty, empty, empty)
	assert.Equal(t, IdleNoLoop, s.State())
	assert.Equal(t, uint32(0), s.CaptureLength())
}

// TestStutter_BufferFullOverridesScheduledCaptureEnd reproduces the buffer-
// full tie-break rule: a pending quantized capture-end schedule is dropped
// once the buffer actually fills.
func TestStutter_BufferFullOverridesScheduledCaptureEnd(t *testing.T) {
	blockSize := 16
	s := NewStutter(44_100, 0) // n<1 falls back to sampleRate frames; buf is replaced below
	s.buf = make([][2]int16, blockSize*2)

	s.RequestCaptureBegin(true, 0)
	in := rampBlock(blockSize, 1)
	out := make([]int16, blockSize)
	s.ProcessBlock(0, in, in, out, out)
	require.Equal(t, Capturing, s.State())

	// schedule a capture-end far in the future; the buffer should fill
	// first and override it.
	s.RequestCaptureEnd(false, 1_000_000)
	require.Equal(t, WaitCaptureEnd, s.State())

	s.ProcessBlock(uint64(blockSize), in, in, out, out)
	assert.Equal(t, uint32(blockSize*2), s.CaptureLength())
	assert.Contains(t, []StutterState{IdleWithLoop, Playing}, s.State())
	assert.Equal(t, uint64(0), s.scheduledCaptureEnd.Load())
}

func TestStutter_ReadPosStaysWithinCaptureLength(t *testing.T) {
	blockSize := 32
	s := NewStutter(44_100, 100_000)
	s.RequestCaptureBegin(true, 0)

	in := rampBlock(blockSize, 1)
	out := make([]int16, blockSize)
	s.ProcessBlock(0, in, in, out, out)

	s.RequestCaptureEnd(true, 0)
	s.ProcessBlock(uint64(blockSize), in, in, out, out)
	require.Equal(t, IdleWithLoop, s.State())

	s.RequestPlaybackBegin(true, 0)
	s.ProcessBlock(uint64(blockSize*2), in, in, out, out)
	require.Equal(t, Playing, s.State())

	for i := 0; i < 5; i++ {
		s.ProcessBlock(uint64(blockSize*(3+i)), in, in, out, out)
		assert.GreaterOrEqual(t, s.readPos, 0)
		assert.Less(t, s.readPos, int(s.CaptureLength()))
	}
}

func TestStutter_CancelCaptureStartReturnsToIdleNoLoop(t *testing.T) {
	s := NewStutter(44_100, 100_000)
	s.RequestCaptureBegin(false, 5000)
	require.Equal(t, WaitCaptureStart, s.State())
	s.CancelCaptureStart()
	assert.Equal(t, IdleNoLoop, s.State())
}
