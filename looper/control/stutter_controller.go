package control

import (
	"time"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
)

// blinkPeriodMillis is the 4 Hz (250ms on/off) cadence for WAIT_CAPTURE_START and
// WAIT_PLAYBACK_ONSET visual feedback.
const blinkPeriodMillis = 250

// StutterController bridges button events to the STUTTER engine. STUTTER is
// the momentary key; FUNC is a modifier that must be held first for a
// STUTTER press to enter capture mode rather than trigger playback. It also
// owns the four independent quantization modes (capture-start, capture-end,
// playback-onset, playback-length).
type StutterController struct {
	engine    *effects.Stutter
	clock     *timing.TimeKeeper
	quant     *QuantState
	lookahead uint64
	registry  *visual.Registry

	funcHeld         bool
	capturingViaFunc bool
}

func NewStutterController(engine *effects.Stutter, clock *timing.TimeKeeper, quant *QuantState, registry *visual.Registry) *StutterController {
	return &StutterController{engine: engine, clock: clock, quant: quant, lookahead: DefaultLookahead, registry: registry}
}

// SetLookahead overrides the quantized-onset lookahead (DefaultLookahead by
// construction).
func (s *StutterController) SetLookahead(samples uint64) {
	s.lookahead = samples
}

func (s *StutterController) quantizedPosition() uint64 {
	dist := s.clock.SamplesToNextSubdivision(s.quant.Selector())
	return quantizedOnset(s.clock.SamplePosition(), dist, s.lookahead)
}

func (s *StutterController) HandleButtonPress(cmd command.Command) Result {
	switch cmd.Target {
	case command.TargetFunc:
		s.funcHeld = true
		return Handled

	case command.TargetStutter:
		s.engine.SetHeld(true)
		captureStartMode, _, onsetMode, _ := s.engine.Modes()

		if s.funcHeld {
			s.capturingViaFunc = true
			if captureStartMode == effects.Free {
				s.engine.RequestCaptureBegin(true, 0)
			} else {
				s.engine.RequestCaptureBegin(false, s.quantizedPosition())
			}
		} else {
			if onsetMode == effects.Free {
				s.engine.RequestPlaybackBegin(true, 0)
			} else {
				s.engine.RequestPlaybackBegin(false, s.quantizedPosition())
			}
		}
		s.registry.NoteActivated(visual.EffectStutter)
		return Handled
	}
	return Passthrough
}

func (s *StutterController) HandleButtonRelease(cmd command.Command) Result {
	switch cmd.Target {
	case command.TargetFunc:
		s.funcHeld = false
		return Handled

	case command.TargetStutter:
		s.engine.SetHeld(false)

		if s.capturingViaFunc {
			s.capturingViaFunc = false
			_, captureEndMode, _, _ := s.engine.Modes()
			if captureEndMode == effects.Free {
				s.engine.RequestCaptureEnd(true, 0)
			} else {
				s.engine.RequestCaptureEnd(false, s.quantizedPosition())
			}
			return Handled
		}

		_, _, _, lengthMode := s.engine.Modes()
		if lengthMode == effects.Quantized {
			return Handled
		}
		s.engine.RequestPlaybackEnd(true, 0)
		return Handled
	}
	return Passthrough
}

// HandleSetParam flips one of STUTTER's four independent mode bits,
// selected by cmd.Param1.
func (s *StutterController) HandleSetParam(cmd command.Command) Result {
	if cmd.Target != command.TargetStutter {
		return Passthrough
	}

	captureStart, captureEnd, onset, length := s.engine.Modes()
	switch cmd.Param1 {
	case command.ParamCaptureStartMode:
		s.engine.SetModes(flipMode(captureStart), captureEnd, onset, length)
	case command.ParamCaptureEndMode:
		s.engine.SetModes(captureStart, flipMode(captureEnd), onset, length)
	case command.ParamOnsetMode:
		s.engine.SetModes(captureStart, captureEnd, flipMode(onset), length)
	case command.ParamLengthMode:
		s.engine.SetModes(captureStart, captureEnd, onset, flipMode(length))
	default:
		return Passthrough
	}
	return Handled
}

// blinkOn reports whether the 4 Hz blink is in its "on" phase at the given
// instant. A pure function of time so it can be tested without a clock.
func blinkOn(now time.Time) bool {
	return now.UnixMilli()%(2*blinkPeriodMillis) < blinkPeriodMillis
}

func (s *StutterController) UpdateVisualFeedback() {
	s.updateVisualFeedbackAt(time.Now())
}

func (s *StutterController) updateVisualFeedbackAt(now time.Time) {
	state := s.engine.State()

	switch state {
	case effects.WaitCaptureStart:
		if blinkOn(now) {
			s.registry.SetState(visual.EffectStutter, visual.CaptureActive)
		} else {
			s.registry.SetState(visual.EffectStutter, visual.Disengaged)
		}
	case effects.WaitPlaybackOnset:
		if blinkOn(now) {
			s.registry.SetState(visual.EffectStutter, visual.PlayActive)
		} else {
			s.registry.SetState(visual.EffectStutter, visual.Disengaged)
		}
	case effects.Capturing, effects.WaitCaptureEnd:
		s.registry.SetState(visual.EffectStutter, visual.CaptureActive)
	case effects.Playing, effects.WaitPlaybackLength:
		s.registry.SetState(visual.EffectStutter, visual.PlayActive)
	case effects.IdleWithLoop:
		s.registry.SetState(visual.EffectStutter, visual.IdleWithLoop)
	default:
		s.registry.SetState(visual.EffectStutter, visual.Disengaged)
	}
}
