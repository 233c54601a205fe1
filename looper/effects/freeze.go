package effects

import "sync/atomic"

// DefaultFreezeMs is the length, in milliseconds, of FREEZE's circular
// capture buffer. Chosen deliberately as ~3ms per channel (see DESIGN.md for
// the open-question resolution versus the conflicting 50/100ms figures seen
// elsewhere): long enough to be a musically useful micro-loop, short enough
// to stay audibly tight when looped.
const DefaultFreezeMs = 3.0

// Freeze continuously records a short circular buffer of input and, when
// engaged, switches to looping it instead of passing input through.
type Freeze struct {
	buf      [][2]int16 // stereo circular buffer, N_f frames
	writePos int        // AC-only
	readPos  int        // AC-only

	enabled          atomic.Bool
	scheduledOnset   atomic.Uint64
	scheduledRelease atomic.Uint64

	onsetMode  Mode
	lengthMode Mode
}

// NewFreeze builds a FREEZE engine sized for freezeMs of audio at
// sampleRate.
func NewFreeze(sampleRate int, freezeMs float64) *Freeze {
	n := int(freezeMs*float64(sampleRate)/1000.0 + 0.5)
	if n < 1 {
		n = 1
	}
	return &Freeze{buf: make([][2]int16, n)}
}

// BufferLen returns N_f, the circular buffer length in stereo frames.
func (f *Freeze) BufferLen() int {
	return len(f.buf)
}

func (f *Freeze) SetModes(onset, length Mode) {
	f.onsetMode = onset
	f.lengthMode = length
}

func (f *Freeze) Modes() (onset, length Mode) {
	return f.onsetMode, f.lengthMode
}

// Enabled reports whether FREEZE is currently looping its captured buffer.
func (f *Freeze) Enabled() bool {
	return f.enabled.Load()
}

// Enable engages FREEZE immediately: readPos snaps to writePos at the same
// instant, per the invariant that engaging always starts playback from the
// most recently recorded sample.
func (f *Freeze) Enable() {
	f.scheduledOnset.Store(0)
	f.readPos = f.writePos
	f.enabled.Store(true)
}

// Disable releases FREEZE immediately, returning to passthrough.
func (f *Freeze) Disable() {
	f.scheduledRelease.Store(0)
	f.enabled.Store(false)
}

func (f *Freeze) Toggle() {
	if f.Enabled() {
		f.Disable()
	} else {
		f.Enable()
	}
}

func (f *Freeze) ScheduleOnset(pos uint64)   { f.scheduledOnset.Store(pos) }
func (f *Freeze) ScheduleRelease(pos uint64) { f.scheduledRelease.Store(pos) }
func (f *Freeze) CancelOnset()               { f.scheduledOnset.Store(0) }
func (f *Freeze) HasScheduledOnset() bool    { return f.scheduledOnset.Load() != 0 }

// ProcessBlock evaluates scheduling, then either records input while passing
// it through (disengaged) or reads looped output from the circular buffer
// while discarding input (engaged). AC-only.
func (f *Freeze) ProcessBlock(blockStart uint64, leftIn, rightIn []int16, leftOut, rightOut []int16) {
	blockSize := len(leftIn)
	n := len(f.buf)

	if onset := f.scheduledOnset.Load(); inBlock(onset, blockStart, blockSize) {
		f.readPos = f.writePos
		f.enabled.Store(true)
		f.scheduledOnset.Store(0)
	}
	if release := f.scheduledRelease.Load(); inBlock(release, blockStart, blockSize) {
		f.enabled.Store(false)
		f.scheduledRelease.Store(0)
	}

	if f.enabled.Load() {
		for i := 0; i < blockSize; i++ {
			frame := f.buf[f.readPos]
			leftOut[i], rightOut[i] = frame[0], frame[1]
			f.readPos++
			if f.readPos >= n {
				f.readPos = 0
			}
		}
		return
	}

	for i := 0; i < blockSize; i++ {
		f.buf[f.writePos] = [2]int16{leftIn[i], rightIn[i]}
		f.writePos++
		if f.writePos >= n {
			f.writePos = 0
		}
		leftOut[i], rightOut[i] = leftIn[i], rightIn[i]
	}
}
