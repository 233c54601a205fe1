package effects

import "sync/atomic"

// DefaultFadeMs is the default crossfade length for CHOKE's mute/unmute
// ramp.
const DefaultFadeMs = 3.0

// Choke is the gain-ramp mute engine. Engaging CHOKE ramps the output to
// silence over F samples; releasing it ramps back to unity. It has no
// failure path: if ProcessBlock isn't called for a block, the engine simply
// emits nothing for it — silence is the safe default, never a crash.
type Choke struct {
	sampleRate int
	fadeFrames int // F = round(fadeMs * sampleRate / 1000)

	// AC-only: never read cross-context, so plain fields are fine.
	currentGain   float64
	targetGain    float64
	rampIncrement float64 // fixed per-sample step for the in-flight ramp

	// Cross-context: CC writes, AC reads (and, for enabled, also writes).
	enabled          atomic.Bool
	scheduledOnset   atomic.Uint64
	scheduledRelease atomic.Uint64

	// CC-only, single writer/reader: set via SetModes from the controller.
	onsetMode  Mode
	lengthMode Mode
}

// NewChoke builds a Choke engine at the given sample rate with the given
// fade length. currentGain/targetGain start at 1 (passthrough, disengaged).
func NewChoke(sampleRate int, fadeMs float64) *Choke {
	frames := int(fadeMs*float64(sampleRate)/1000.0 + 0.5)
	if frames < 1 {
		frames = 1
	}
	return &Choke{
		sampleRate:  sampleRate,
		fadeFrames:  frames,
		currentGain: 1,
		targetGain:  1,
	}
}

// SetModes sets the onset/length quantization modes the controller consults
// before scheduling. CC-only.
func (c *Choke) SetModes(onset, length Mode) {
	c.onsetMode = onset
	c.lengthMode = length
}

// Modes returns the current onset/length quantization modes.
func (c *Choke) Modes() (onset, length Mode) {
	return c.onsetMode, c.lengthMode
}

// Enabled reports whether CHOKE is currently engaged (muting). Safe from
// either context; used by the visual feedback layer.
func (c *Choke) Enabled() bool {
	return c.enabled.Load()
}

// Enable engages CHOKE immediately, bypassing any schedule. CC-only (reached
// via the command plane's ENABLE dispatch).
func (c *Choke) Enable() {
	c.scheduledOnset.Store(0)
	c.enabled.Store(true)
}

// Disable releases CHOKE immediately, bypassing any schedule.
func (c *Choke) Disable() {
	c.scheduledRelease.Store(0)
	c.enabled.Store(false)
}

// Toggle flips the engaged state immediately.
func (c *Choke) Toggle() {
	if c.Enabled() {
		c.Disable()
	} else {
		c.Enable()
	}
}

// ScheduleOnset arms a future mute at the given sample position. Overwrites
// any previously scheduled onset.
func (c *Choke) ScheduleOnset(pos uint64) {
	c.scheduledOnset.Store(pos)
}

// ScheduleRelease arms a future unmute at the given sample position.
// Releases are not cancellable by design (per the concurrency model) — once
// a button-held period begins, the release is committed — so there is no
// CancelRelease.
func (c *Choke) ScheduleRelease(pos uint64) {
	c.scheduledRelease.Store(pos)
}

// CancelOnset cancels a pending scheduled onset by writing the 0 sentinel.
func (c *Choke) CancelOnset() {
	c.scheduledOnset.Store(0)
}

// HasScheduledOnset reports whether an onset is currently armed.
func (c *Choke) HasScheduledOnset() bool {
	return c.scheduledOnset.Load() != 0
}

// ProcessBlock evaluates any scheduled onset/release that falls within this
// block, then applies the per-sample gain ramp to leftIn/rightIn, writing
// the result to leftOut/rightOut. AC-only.
func (c *Choke) ProcessBlock(blockStart uint64, leftIn, rightIn []int16, leftOut, rightOut []int16) {
	blockSize := len(leftIn)

	if onset := c.scheduledOnset.Load(); inBlock(onset, blockStart, blockSize) {
		c.targetGain = 0
		c.rampIncrement = (c.targetGain - c.currentGain) / float64(c.fadeFrames)
		c.enabled.Store(true)
		c.scheduledOnset.Store(0)
	}
	if release := c.scheduledRelease.Load(); inBlock(release, blockStart, blockSize) {
		c.targetGain = 1
		c.rampIncrement = (c.targetGain - c.currentGain) / float64(c.fadeFrames)
		c.enabled.Store(false)
		c.scheduledRelease.Store(0)
	}

	for i := 0; i < blockSize; i++ {
		if c.currentGain != c.targetGain {
			next := c.currentGain + c.rampIncrement
			if overshot(c.rampIncrement, next, c.targetGain) {
				next = c.targetGain
			}
			c.currentGain = clampGain(next)
		}
		leftOut[i] = saturateInt16(float64(leftIn[i]) * c.currentGain)
		rightOut[i] = saturateInt16(float64(rightIn[i]) * c.currentGain)
	}
}

// overshot reports whether stepping by increment has crossed past target,
// so the ramp can snap to target exactly instead of oscillating around it.
func overshot(increment, next, target float64) bool {
	if increment < 0 {
		return next <= target
	}
	if increment > 0 {
		return next >= target
	}
	return true
}
