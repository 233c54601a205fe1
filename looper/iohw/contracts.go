// Package iohw defines the narrow contracts the core consumes from or
// exposes to its peripheral collaborators: the audio subsystem, external
// beat clock, buttons, encoders, display, LEDs, and debug console. None of
// these are implemented here — concrete adapters live in audiooto and
// termhw.
package iohw

import (
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/spsc"
	"github.com/loopcore/stompbox/looper/visual"
)

// ClockEventKind enumerates the external beat clock's transport events.
type ClockEventKind uint8

const (
	ClockStart ClockEventKind = iota
	ClockStop
	ClockContinue
)

// ClockEvent is a transport event from the external beat clock.
type ClockEvent struct {
	Kind ClockEventKind
}

// ClockTick is one beat-clock pulse (24 per beat), stamped with a
// monotonic microsecond timestamp as observed by the clock collaborator.
type ClockTick struct {
	TimestampMicros int64
}

// AudioIO is the audio subsystem collaborator. It supplies one block of
// input per callback and accepts the corresponding block of output. The
// callback runs on AC: no locks, no allocation, no blocking calls from
// inside it.
type AudioIO interface {
	// Start begins calling process for each audio block until Stop is
	// called. blockIndex is a monotonically increasing counter.
	Start(process func(blockIndex uint64, leftIn, rightIn []int16, leftOut, rightOut []int16)) error
	Stop() error
	SampleRate() int
	BlockSize() int
}

// ClockSource is the external beat clock collaborator. Events and ticks are
// each delivered over their own SPSC queue (capacity 32 and 256
// respectively, per the external interface contract); the core drains them
// from CC.
type ClockSource interface {
	Events() *EventQueue
	Ticks() *TickQueue
}

// ButtonSource is the button input collaborator. One command queue (FIFO)
// carries both press and release messages; debounce is the collaborator's
// concern.
type ButtonSource interface {
	Commands() *CommandQueue
}

// EncoderReading is one encoder's state as polled by the control loop.
type EncoderReading struct {
	Position      int32
	ButtonPressed bool
}

// EncoderID names the four physical encoders.
type EncoderID uint8

const (
	EncoderFreeze EncoderID = iota
	EncoderStutter
	EncoderChoke
	EncoderQuant
)

// EncoderSource is the encoder input collaborator, polled once per control
// iteration (not event-driven).
type EncoderSource interface {
	Read(id EncoderID) EncoderReading
}

// Display is the OLED bitmap display collaborator. It accepts only a
// bitmap id — the framebuffer itself lives entirely outside the core.
type Display interface {
	ShowBitmap(id visual.BitmapID) error
}

// LED is the status LED collaborator: per-key color plus one beat LED
// digital output.
type LED interface {
	SetLED(effect visual.EffectID, color visual.LEDColor)
	SetBeatLED(on bool)
}

// DebugConsole is the single-character debug command collaborator: 't'
// dump trace, 'c' clear trace, 's' print a timing snapshot. Not part of the
// essential control loop — its absence degrades nothing but debuggability.
type DebugConsole interface {
	Poll() (rune, bool)
	Print(s string)
}

// EventQueue, TickQueue, and CommandQueue are the fixed-capacity SPSC
// queues used at each of these collaborator boundaries. They are thin
// aliases over spsc.Ring so call sites can name the queue by contract
// rather than by generic instantiation.
type (
	EventQueue   = spsc.Ring[ClockEvent]
	TickQueue    = spsc.Ring[ClockTick]
	CommandQueue = spsc.Ring[command.Command]
)
