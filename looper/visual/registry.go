// Package visual maps effect engine state to the fixed bitmap/LED vocabulary
// the OLED display and status LEDs understand.
package visual

// BitmapID is a fixed-enumeration handle identifying a pre-authored
// framebuffer image. The display collaborator only ever receives one of
// these, never raw pixel data.
type BitmapID uint8

const (
	BitmapDefault BitmapID = iota
	BitmapChokeActive
	BitmapFreezeActive
	BitmapStutterCapture
	BitmapStutterPlay
	BitmapQuant32
	BitmapQuant16
	BitmapQuant8
	BitmapQuant4
	BitmapChokeParamMode
	BitmapFreezeParamMode
	BitmapStutterParamMode
)

// LEDColor is a fixed-enumeration LED color, one per status key plus the
// default idle color.
type LEDColor uint8

const (
	LEDOff LEDColor = iota
	LEDGreen
	LEDRed
	LEDBlue
	LEDCyan
	LEDWhite
)

// EffectID names the three effects for visual-feedback and LED-key purposes.
type EffectID uint8

const (
	EffectNone EffectID = iota
	EffectChoke
	EffectFreeze
	EffectStutter
)

// EngagementState is the subset of an effect's engagement that the visual
// layer cares about — more detail than a plain bool for STUTTER, which
// distinguishes capture/play/idle-with-loop.
type EngagementState uint8

const (
	Disengaged EngagementState = iota
	Engaged
	CaptureActive
	PlayActive
	IdleWithLoop
)

// Feedback is the {bitmap, LED color} pair the registry derives for the
// currently last-activated effect.
type Feedback struct {
	Bitmap BitmapID
	LED    LEDColor
}

// Registry tracks which effect was last activated and derives the
// {bitmap, LED} pair per the "last-activated wins, else fall through to
// the next still-engaged effect, else default" rule. CC-owned exclusively.
type Registry struct {
	lastActivated EffectID
	states        map[EffectID]EngagementState
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[EffectID]EngagementState, 3)}
}

// NoteActivated records that an effect was just engaged, making it the new
// last-activated effect for feedback purposes.
func (r *Registry) NoteActivated(id EffectID) {
	r.lastActivated = id
}

// SetState updates an effect's current engagement state, as polled from its
// engine each control iteration.
func (r *Registry) SetState(id EffectID, state EngagementState) {
	r.states[id] = state
}

// Resolve computes the current {bitmap, LED} pair. Last-activated wins; if
// that effect is no longer engaged, the next still-engaged effect (in fixed
// CHOKE, FREEZE, STUTTER order) is shown instead; otherwise the default.
func (r *Registry) Resolve() Feedback {
	if fb, ok := r.feedbackFor(r.lastActivated); ok {
		return fb
	}
	for _, id := range [...]EffectID{EffectChoke, EffectFreeze, EffectStutter} {
		if fb, ok := r.feedbackFor(id); ok {
			return fb
		}
	}
	return Feedback{Bitmap: BitmapDefault, LED: LEDGreen}
}

func (r *Registry) feedbackFor(id EffectID) (Feedback, bool) {
	state, ok := r.states[id]
	if !ok || state == Disengaged {
		return Feedback{}, false
	}
	switch id {
	case EffectChoke:
		return Feedback{Bitmap: BitmapChokeActive, LED: LEDRed}, true
	case EffectFreeze:
		return Feedback{Bitmap: BitmapFreezeActive, LED: LEDCyan}, true
	case EffectStutter:
		switch state {
		case CaptureActive:
			return Feedback{Bitmap: BitmapStutterCapture, LED: LEDRed}, true
		case PlayActive:
			return Feedback{Bitmap: BitmapStutterPlay, LED: LEDBlue}, true
		case IdleWithLoop:
			return Feedback{Bitmap: BitmapStutterPlay, LED: LEDWhite}, true
		}
	}
	return Feedback{}, false
}

// LEDFor returns the given effect's own key LED color, independent of
// which effect is last-activated: each momentary key lights per its own
// engagement, defaulting to green when disengaged (per the per-key LED
// color rule, distinct from the last-activated-wins bitmap rule).
func (r *Registry) LEDFor(id EffectID) LEDColor {
	if fb, ok := r.feedbackFor(id); ok {
		return fb.LED
	}
	return LEDGreen
}

// QuantBitmap maps a quantization selector index (0..3, matching
// timing.QuantSelector) to its display bitmap.
func QuantBitmap(selector int) BitmapID {
	switch selector {
	case 0:
		return BitmapQuant32
	case 1:
		return BitmapQuant16
	case 2:
		return BitmapQuant8
	default:
		return BitmapQuant4
	}
}
