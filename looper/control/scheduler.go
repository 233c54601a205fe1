package control

import (
	"time"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/control/clocksync"
	"github.com/loopcore/stompbox/looper/control/encodermenu"
	"github.com/loopcore/stompbox/looper/debugconsole"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
)

// ControlLoopYield is the cooperative scheduler's nominal cadence.
const ControlLoopYield = 2 * time.Millisecond

// Scheduler is the single cooperative control loop described in the
// component design: it pumps the button, encoder, and external-clock
// collaborators, drives the dispatcher and visual feedback layer, and
// pulses the beat LED. CC-only.
type Scheduler struct {
	clock *timing.TimeKeeper

	buttons     *iohw.CommandQueue
	clockEvents *iohw.EventQueue
	clockTicks  *iohw.TickQueue

	dispatcher  *Dispatcher
	controllers []Controller

	led      iohw.LED
	display  iohw.Display
	registry *visual.Registry

	encoders    iohw.EncoderSource
	bindings    []*ParamEncoderBinding
	quant       *QuantState
	quantMenu   *encodermenu.Menu
	tickEstim   *clocksync.Estimator
	lastBitmap  visual.BitmapID
	hasLastShow bool

	beatLEDArmed bool
	beatLEDOffAt uint64

	trace *debugconsole.Trace
}

// SetTrace wires an optional trace recorder; every drained button command
// is then recorded against the clock's sample position. Safe to leave
// unset (nil), in which case no trace is kept.
func (s *Scheduler) SetTrace(t *debugconsole.Trace) {
	s.trace = t
}

// NewScheduler wires a Scheduler from its collaborators. encoders/bindings/
// quantMenu may be nil if encoder hardware isn't present (e.g. a headless
// bench run), and clockEvents/clockTicks may be nil without a clock source;
// the corresponding poll step is then skipped.
func NewScheduler(
	clock *timing.TimeKeeper,
	buttons *iohw.CommandQueue,
	clockEvents *iohw.EventQueue,
	clockTicks *iohw.TickQueue,
	dispatcher *Dispatcher,
	controllers []Controller,
	led iohw.LED,
	display iohw.Display,
	registry *visual.Registry,
	encoders iohw.EncoderSource,
	bindings []*ParamEncoderBinding,
	quant *QuantState,
	quantMenu *encodermenu.Menu,
) *Scheduler {
	return &Scheduler{
		clock: clock, buttons: buttons, clockEvents: clockEvents, clockTicks: clockTicks,
		dispatcher: dispatcher, controllers: controllers,
		led: led, display: display, registry: registry,
		encoders: encoders, bindings: bindings, quant: quant, quantMenu: quantMenu,
		tickEstim: clocksync.NewEstimator(),
	}
}

// RunOnce executes one iteration of the control loop (steps 1-6 of the
// component design). The caller drives the ~2ms cadence via Yield.
func (s *Scheduler) RunOnce(now time.Time) {
	s.drainButtons()
	s.pollEncoders(now)
	s.updateVisualFeedback()
	s.drainClockEvents()
	s.drainClockTicks()
	s.pulseBeatLED()
}

func (s *Scheduler) drainButtons() {
	var cmd command.Command
	for s.buttons.Pop(&cmd) {
		if s.trace != nil {
			s.trace.Record(s.clock.SamplePosition(), cmd.Kind.String()+" "+cmd.Target.String())
		}
		switch cmd.Kind {
		case command.KindPress:
			s.dispatcher.DispatchPress(cmd)
		case command.KindRelease:
			s.dispatcher.DispatchRelease(cmd)
		case command.KindSetParam:
			s.dispatcher.DispatchSetParam(cmd)
		default:
			s.dispatcher.fallback(cmd)
		}
	}
}

func (s *Scheduler) pollEncoders(now time.Time) {
	if s.encoders == nil {
		return
	}
	for _, b := range s.bindings {
		b.Poll(s.encoders, now)
	}
	if s.quantMenu != nil && s.quant != nil {
		reading := s.encoders.Read(iohw.EncoderQuant)
		if s.quantMenu.Update(reading.Position, now) {
			s.quant.SetSelector(timing.QuantSelector(s.quantMenu.Value()))
		}
	}
}

func (s *Scheduler) updateVisualFeedback() {
	for _, c := range s.controllers {
		c.UpdateVisualFeedback()
	}
	fb := s.registry.Resolve()
	if !s.hasLastShow || fb.Bitmap != s.lastBitmap {
		if s.display != nil {
			s.display.ShowBitmap(fb.Bitmap)
		}
		s.lastBitmap = fb.Bitmap
		s.hasLastShow = true
	}
	if s.led != nil {
		for _, id := range [...]visual.EffectID{visual.EffectChoke, visual.EffectFreeze, visual.EffectStutter} {
			s.led.SetLED(id, s.registry.LEDFor(id))
		}
	}
}

func (s *Scheduler) drainClockEvents() {
	if s.clockEvents == nil {
		return
	}
	var ev iohw.ClockEvent
	for s.clockEvents.Pop(&ev) {
		switch ev.Kind {
		case iohw.ClockStart:
			s.clock.Reset()
			s.clock.SetTransportState(timing.Playing)
		case iohw.ClockStop:
			s.clock.SetTransportState(timing.Stopped)
		case iohw.ClockContinue:
			s.clock.SetTransportState(timing.Playing)
		}
	}
}

func (s *Scheduler) drainClockTicks() {
	if s.clockTicks == nil {
		return
	}
	var tick iohw.ClockTick
	for s.clockTicks.Pop(&tick) {
		period, used := s.tickEstim.Observe(tick.TimestampMicros)
		if used {
			s.clock.SyncToExternalClock(period)
		}
		s.clock.IncrementTick()
	}
}

// pulseBeatLED lights the beat LED on every polled beat flag and arms its
// auto-off two ticks' worth of samples later.
func (s *Scheduler) pulseBeatLED() {
	if s.led == nil {
		return
	}
	pos := s.clock.SamplePosition()
	if s.beatLEDArmed && pos >= s.beatLEDOffAt {
		s.led.SetBeatLED(false)
		s.beatLEDArmed = false
	}
	if s.clock.PollBeatFlag() {
		s.led.SetBeatLED(true)
		tickSamples := uint64(s.clock.SamplesPerBeat()) / timing.PPQN
		s.beatLEDOffAt = pos + 2*tickSamples
		s.beatLEDArmed = true
	}
}

// Yield sleeps for the loop's nominal cadence.
func (s *Scheduler) Yield() {
	time.Sleep(ControlLoopYield)
}
