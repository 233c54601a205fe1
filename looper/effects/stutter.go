package effects

import "sync/atomic"

// StutterState enumerates the eight states of the STUTTER machine.
type StutterState uint32

const (
	IdleNoLoop StutterState = iota
	IdleWithLoop
	WaitCaptureStart
	Capturing
	WaitCaptureEnd
	WaitPlaybackOnset
	Playing
	WaitPlaybackLength
)

func (s StutterState) String() string {
	switch s {
	case IdleNoLoop:
		return "idle_no_loop"
	case IdleWithLoop:
		return "idle_with_loop"
	case WaitCaptureStart:
		return "wait_capture_start"
	case Capturing:
		return "capturing"
	case WaitCaptureEnd:
		return "wait_capture_end"
	case WaitPlaybackOnset:
		return "wait_playback_onset"
	case Playing:
		return "playing"
	case WaitPlaybackLength:
		return "wait_playback_length"
	default:
		return "unknown"
	}
}

// barsAtMinTempo is how many bars the non-circular capture buffer is sized
// to hold at the slowest supported tempo.
const barsAtMinTempo = 1

// Stutter is the arm/capture/play engine: a non-circular buffer that
// records one bar's worth of audio at the slowest supported tempo, then
// loops whatever span was actually captured.
type Stutter struct {
	buf           [][2]int16 // AC-only, N_s stereo frames
	writePos      int        // AC-only
	readPos       int        // AC-only
	captureLength atomic.Uint32

	state atomic.Uint32

	scheduledCaptureStart   atomic.Uint64
	scheduledCaptureEnd     atomic.Uint64
	scheduledPlaybackOnset  atomic.Uint64
	scheduledPlaybackLength atomic.Uint64

	// immediate ("free") transition requests: single-shot latches the
	// controller sets and the audio callback consumes on its next block,
	// the same way a scheduled field is consumed — just with no grid.
	reqCaptureNow     atomic.Bool
	reqCaptureEndNow  atomic.Bool
	reqPlaybackNow    atomic.Bool
	reqPlaybackEndNow atomic.Bool

	held atomic.Bool // latched "stutter button held" flag

	captureStartMode Mode
	captureEndMode   Mode
	onsetMode        Mode
	lengthMode       Mode
}

// NewStutter builds a STUTTER engine whose buffer holds one bar of audio at
// the given sample rate and minimum supported tempo (expressed as the
// maximum samples-per-beat the timekeeper will accept).
func NewStutter(sampleRate int, maxSamplesPerBeat int) *Stutter {
	n := maxSamplesPerBeat * 4 * barsAtMinTempo
	if n < 1 {
		n = sampleRate
	}
	return &Stutter{buf: make([][2]int16, n)}
}

// BufferLen returns N_s, the capture buffer's capacity in stereo frames.
func (s *Stutter) BufferLen() int { return len(s.buf) }

// State returns the current state. Safe from either context.
func (s *Stutter) State() StutterState { return StutterState(s.state.Load()) }

// CaptureLength returns the number of frames actually captured (0 if empty).
func (s *Stutter) CaptureLength() uint32 { return s.captureLength.Load() }

func (s *Stutter) SetModes(captureStart, captureEnd, onset, length Mode) {
	s.captureStartMode = captureStart
	s.captureEndMode = captureEnd
	s.onsetMode = onset
	s.lengthMode = length
}

func (s *Stutter) Modes() (captureStart, captureEnd, onset, length Mode) {
	return s.captureStartMode, s.captureEndMode, s.onsetMode, s.lengthMode
}

// SetHeld updates the latched "STUTTER button currently held" flag the
// controller maintains; it is read only when a capture ends, to decide
// whether to land in PLAYING or IDLE_WITH_LOOP.
func (s *Stutter) SetHeld(held bool) { s.held.Store(held) }
func (s *Stutter) Held() bool        { return s.held.Load() }

// RequestCaptureBegin starts a capture, either immediately (free) or once
// the given sample position arrives (quantized). Valid from IDLE_NO_LOOP or
// IDLE_WITH_LOOP.
func (s *Stutter) RequestCaptureBegin(free bool, quantPos uint64) {
	if free {
		s.reqCaptureNow.Store(true)
		return
	}
	s.scheduledCaptureStart.Store(quantPos)
	s.state.Store(uint32(WaitCaptureStart))
}

// CancelCaptureStart aborts a pending WAIT_CAPTURE_START, returning to
// IDLE_NO_LOOP without ever capturing.
func (s *Stutter) CancelCaptureStart() {
	s.scheduledCaptureStart.Store(0)
	s.state.Store(uint32(IdleNoLoop))
}

// RequestCaptureEnd ends the in-progress capture, either immediately (free)
// or at the given sample position (quantized, transitioning to
// WAIT_CAPTURE_END in the meantime).
func (s *Stutter) RequestCaptureEnd(free bool, quantPos uint64) {
	if free {
		s.reqCaptureEndNow.Store(true)
		return
	}
	s.scheduledCaptureEnd.Store(quantPos)
	s.state.Store(uint32(WaitCaptureEnd))
}

// RequestPlaybackBegin starts playback of the captured loop, either
// immediately or at the given sample position. Valid from IDLE_WITH_LOOP.
func (s *Stutter) RequestPlaybackBegin(free bool, quantPos uint64) {
	if free {
		s.reqPlaybackNow.Store(true)
		return
	}
	s.scheduledPlaybackOnset.Store(quantPos)
	s.state.Store(uint32(WaitPlaybackOnset))
}

// CancelPlaybackOnset aborts a pending WAIT_PLAYBACK_ONSET, returning to
// IDLE_WITH_LOOP.
func (s *Stutter) CancelPlaybackOnset() {
	s.scheduledPlaybackOnset.Store(0)
	s.state.Store(uint32(IdleWithLoop))
}

// RequestPlaybackEnd ends playback, either immediately or at the given
// sample position (transitioning to WAIT_PLAYBACK_LENGTH in the meantime).
func (s *Stutter) RequestPlaybackEnd(free bool, quantPos uint64) {
	if free {
		s.reqPlaybackEndNow.Store(true)
		return
	}
	s.scheduledPlaybackLength.Store(quantPos)
	s.state.Store(uint32(WaitPlaybackLength))
}

func (s *Stutter) beginCapture(leftIn, rightIn []int16) {
	s.writePos = 0
	s.captureLength.Store(0)
	s.state.Store(uint32(Capturing))
	s.writeCaptureBlock(leftIn, rightIn)
}

func (s *Stutter) beginPlayback() {
	s.readPos = 0
	s.state.Store(uint32(Playing))
}

// postCaptureTransition decides the destination state once a capture has
// ended, per the rule: PLAYING if still held, else IDLE_WITH_LOOP; or
// IDLE_NO_LOOP if nothing was captured.
func (s *Stutter) postCaptureTransition() {
	if s.captureLength.Load() == 0 {
		s.state.Store(uint32(IdleNoLoop))
		return
	}
	if s.held.Load() {
		s.beginPlayback()
		return
	}
	s.state.Store(uint32(IdleWithLoop))
}

// writeCaptureBlock appends a block to the capture buffer, truncating at
// N_s. Returns true if the buffer is now full.
func (s *Stutter) writeCaptureBlock(leftIn, rightIn []int16) (full bool) {
	n := len(s.buf)
	for i := 0; i < len(leftIn) && s.writePos < n; i++ {
		s.buf[s.writePos] = [2]int16{leftIn[i], rightIn[i]}
		s.writePos++
	}
	s.captureLength.Store(uint32(s.writePos))
	return s.writePos >= n
}

// readPlaybackBlock reads one block from the captured loop, wrapping at
// captureLength.
func (s *Stutter) readPlaybackBlock(leftOut, rightOut []int16) {
	length := int(s.captureLength.Load())
	if length == 0 {
		for i := range leftOut {
			leftOut[i], rightOut[i] = 0, 0
		}
		return
	}
	for i := range leftOut {
		if s.readPos >= length {
			s.readPos = 0
		}
		frame := s.buf[s.readPos]
		leftOut[i], rightOut[i] = frame[0], frame[1]
		s.readPos++
	}
}

func passthrough(leftIn, rightIn, leftOut, rightOut []int16) {
	copy(leftOut, leftIn)
	copy(rightOut, rightIn)
}

// ProcessBlock evaluates this block's state transitions and renders audio
// accordingly. AC-only.
func (s *Stutter) ProcessBlock(blockStart uint64, leftIn, rightIn, leftOut, rightOut []int16) {
	blockSize := len(leftIn)

	switch s.State() {
	case IdleNoLoop:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		if s.reqCaptureNow.Swap(false) {
			s.beginCapture(leftIn, rightIn)
		} else if sp := s.scheduledCaptureStart.Load(); inBlock(sp, blockStart, blockSize) {
			s.scheduledCaptureStart.Store(0)
			s.beginCapture(leftIn, rightIn)
		}

	case IdleWithLoop:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		switch {
		case s.reqCaptureNow.Swap(false):
			s.beginCapture(leftIn, rightIn)
		case inBlock(s.scheduledCaptureStart.Load(), blockStart, blockSize):
			s.scheduledCaptureStart.Store(0)
			s.beginCapture(leftIn, rightIn)
		case s.reqPlaybackNow.Swap(false):
			s.beginPlayback()
		case inBlock(s.scheduledPlaybackOnset.Load(), blockStart, blockSize):
			s.scheduledPlaybackOnset.Store(0)
			s.beginPlayback()
		}

	case WaitCaptureStart:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		if sp := s.scheduledCaptureStart.Load(); inBlock(sp, blockStart, blockSize) {
			s.scheduledCaptureStart.Store(0)
			s.beginCapture(leftIn, rightIn)
		}

	case Capturing:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		full := s.writeCaptureBlock(leftIn, rightIn)
		switch {
		case full:
			// buffer-full overrides any pending capture-end schedule,
			// quantized or not.
			s.scheduledCaptureEnd.Store(0)
			s.reqCaptureEndNow.Store(false)
			s.postCaptureTransition()
		case s.reqCaptureEndNow.Swap(false):
			s.postCaptureTransition()
		case inBlock(s.scheduledCaptureEnd.Load(), blockStart, blockSize):
			s.scheduledCaptureEnd.Store(0)
			s.postCaptureTransition()
		}

	case WaitCaptureEnd:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		full := s.writeCaptureBlock(leftIn, rightIn)
		switch {
		case full:
			s.scheduledCaptureEnd.Store(0)
			s.postCaptureTransition()
		case inBlock(s.scheduledCaptureEnd.Load(), blockStart, blockSize):
			s.scheduledCaptureEnd.Store(0)
			s.postCaptureTransition()
		}

	case WaitPlaybackOnset:
		passthrough(leftIn, rightIn, leftOut, rightOut)
		if sp := s.scheduledPlaybackOnset.Load(); inBlock(sp, blockStart, blockSize) {
			s.scheduledPlaybackOnset.Store(0)
			s.beginPlayback()
		}

	case Playing:
		s.readPlaybackBlock(leftOut, rightOut)
		switch {
		case s.reqPlaybackEndNow.Swap(false):
			s.state.Store(uint32(IdleWithLoop))
		case inBlock(s.scheduledPlaybackLength.Load(), blockStart, blockSize):
			s.scheduledPlaybackLength.Store(0)
			s.state.Store(uint32(IdleWithLoop))
		}

	case WaitPlaybackLength:
		s.readPlaybackBlock(leftOut, rightOut)
		if sp := s.scheduledPlaybackLength.Load(); inBlock(sp, blockStart, blockSize) {
			s.scheduledPlaybackLength.Store(0)
			s.state.Store(uint32(IdleWithLoop))
		}
	}
}
