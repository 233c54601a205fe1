// Package looper wires the audio-context effect engines, the control-side
// command plane, and the peripheral collaborator contracts into one unit:
// the AC entry point RunAudioBlock and the CC entry point RunControlOnce.
package looper

import (
	"time"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/control"
	"github.com/loopcore/stompbox/looper/control/encodermenu"
	"github.com/loopcore/stompbox/looper/debugconsole"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
)

// Config bundles the collaborators a Looper is built from. Clock, Encoders,
// Display, LED, and Debug may be nil for a headless run; the corresponding
// functionality is then simply skipped, matching Scheduler's own
// nil-tolerant design. Quant/FadeMs/FreezeMs/Lookahead follow the zero-means-
// default convention used elsewhere in this tree (e.g. audiooto.New's
// sampleRate/blockSize): a caller that leaves them unset gets the component
// defaults.
type Config struct {
	SampleRate        int
	MaxSamplesPerBeat int

	// Quant is the musical-grid denominator (32/16/8/4) the quantization
	// selector starts at; 0 defaults to timing.DefaultQuant (1/16).
	Quant int
	// FadeMs is CHOKE's crossfade length in milliseconds; 0 defaults to
	// effects.DefaultFadeMs.
	FadeMs float64
	// FreezeMs is FREEZE's capture buffer length in milliseconds; 0
	// defaults to effects.DefaultFreezeMs.
	FreezeMs float64
	// Lookahead is the quantized-onset lookahead in samples, shared by all
	// three controllers; 0 defaults to control.DefaultLookahead.
	Lookahead uint64

	Buttons  iohw.ButtonSource
	Clock    iohw.ClockSource
	Encoders iohw.EncoderSource
	Display  iohw.Display
	LED      iohw.LED
	Debug    iohw.DebugConsole
}

// Looper is the top-level orchestrator: three effect engines, the shared
// timeline, the command plane, and the cooperative control scheduler.
type Looper struct {
	clock *timing.TimeKeeper

	Choke   *effects.Choke
	Freeze  *effects.Freeze
	Stutter *effects.Stutter

	dispatcher *control.Dispatcher
	scheduler  *control.Scheduler
	console    *debugconsole.Console
	trace      *debugconsole.Trace

	buttons  iohw.ButtonSource
	extClock iohw.ClockSource
}

// traceCapacity bounds the debug trace ring; large enough to survive a
// burst of button activity between two 's'/'t' console reads.
const traceCapacity = 64

// New wires a complete Looper from its collaborators.
func New(cfg Config) *Looper {
	clock := timing.New(cfg.SampleRate)

	fadeMs := cfg.FadeMs
	if fadeMs <= 0 {
		fadeMs = effects.DefaultFadeMs
	}
	freezeMs := cfg.FreezeMs
	if freezeMs <= 0 {
		freezeMs = effects.DefaultFreezeMs
	}
	lookahead := cfg.Lookahead
	if lookahead == 0 {
		lookahead = control.DefaultLookahead
	}

	choke := effects.NewChoke(cfg.SampleRate, fadeMs)
	freeze := effects.NewFreeze(cfg.SampleRate, freezeMs)
	stutter := effects.NewStutter(cfg.SampleRate, cfg.MaxSamplesPerBeat)

	registry := visual.NewRegistry()
	quant := control.NewQuantState()
	quant.SetSelector(timing.QuantFromDenominator(cfg.Quant))

	chokeCtrl := control.NewChokeController(choke, clock, quant, registry)
	freezeCtrl := control.NewFreezeController(freeze, clock, quant, registry)
	stutterCtrl := control.NewStutterController(stutter, clock, quant, registry)
	chokeCtrl.SetLookahead(lookahead)
	freezeCtrl.SetLookahead(lookahead)
	stutterCtrl.SetLookahead(lookahead)
	controllers := []control.Controller{chokeCtrl, freezeCtrl, stutterCtrl}

	dispatcher := control.NewDispatcher(controllers)
	_ = dispatcher.RegisterEngine(command.TargetChoke, choke)
	_ = dispatcher.RegisterEngine(command.TargetFreeze, freeze)
	dispatcher.RegisterStutter(stutter)

	bindings, quantMenu := buildEncoderBindings(dispatcher, quant.Selector())

	trace := debugconsole.NewTrace(traceCapacity)

	var clockEvents *iohw.EventQueue
	var clockTicks *iohw.TickQueue
	if cfg.Clock != nil {
		clockEvents = cfg.Clock.Events()
		clockTicks = cfg.Clock.Ticks()
	}

	scheduler := control.NewScheduler(
		clock,
		cfg.Buttons.Commands(),
		clockEvents,
		clockTicks,
		dispatcher,
		controllers,
		cfg.LED,
		cfg.Display,
		registry,
		cfg.Encoders,
		bindings,
		quant,
		quantMenu,
	)
	scheduler.SetTrace(trace)

	l := &Looper{
		clock: clock, Choke: choke, Freeze: freeze, Stutter: stutter,
		dispatcher: dispatcher, scheduler: scheduler, trace: trace,
		buttons: cfg.Buttons, extClock: cfg.Clock,
	}
	l.console = debugconsole.NewConsole(cfg.Debug, trace, l.snapshot)
	return l
}

// buildEncoderBindings wires each effect's parameter-selection encoder to a
// small menu over that effect's toggle-able FREE/QUANTIZED mode fields, plus
// the standalone global quantization menu. Button edges dispatch a
// SET_PARAM command through the same dispatcher button presses use, rather
// than poking the engine directly, so each effect's controller gets first
// claim on its own mode bits.
func buildEncoderBindings(dispatcher *control.Dispatcher, initialQuant timing.QuantSelector) ([]*control.ParamEncoderBinding, *encodermenu.Menu) {
	chokeMenu := encodermenu.New(0, 1, 0)
	freezeMenu := encodermenu.New(0, 1, 0)
	stutterMenu := encodermenu.New(0, 3, 0)
	quantMenu := encodermenu.New(0, 3, int(initialQuant))

	chokeParams := []command.Param{command.ParamOnsetMode, command.ParamLengthMode}
	freezeParams := []command.Param{command.ParamOnsetMode, command.ParamLengthMode}
	stutterParams := []command.Param{
		command.ParamCaptureStartMode, command.ParamCaptureEndMode,
		command.ParamOnsetMode, command.ParamLengthMode,
	}

	bindings := []*control.ParamEncoderBinding{
		{ID: iohw.EncoderChoke, Menu: chokeMenu, Target: command.TargetChoke, Params: chokeParams, Dispatch: dispatcher.DispatchSetParam},
		{ID: iohw.EncoderFreeze, Menu: freezeMenu, Target: command.TargetFreeze, Params: freezeParams, Dispatch: dispatcher.DispatchSetParam},
		{ID: iohw.EncoderStutter, Menu: stutterMenu, Target: command.TargetStutter, Params: stutterParams, Dispatch: dispatcher.DispatchSetParam},
	}
	return bindings, quantMenu
}

// RunAudioBlock is the AC entry point: it advances every effect engine by
// one block in a fixed order, then advances the sample clock. Must be
// called from the audio callback only, never concurrently with itself.
func (l *Looper) RunAudioBlock(blockIndex uint64, leftIn, rightIn, leftOut, rightOut []int16) {
	blockStart := l.clock.SamplePosition()

	l.Choke.ProcessBlock(blockStart, leftIn, rightIn, leftOut, rightOut)
	l.Freeze.ProcessBlock(blockStart, leftOut, rightOut, leftOut, rightOut)
	l.Stutter.ProcessBlock(blockStart, leftOut, rightOut, leftOut, rightOut)

	l.clock.IncrementSamples(len(leftOut))
}

// RunControlOnce executes one control-loop iteration: drains buttons,
// polls encoders, resolves visual feedback, drains the external clock, and
// services at most one pending debug command. Must be called from CC only.
func (l *Looper) RunControlOnce(now time.Time) {
	l.scheduler.RunOnce(now)
	l.console.Poll()
}

// Yield sleeps for the control loop's nominal cadence. Callers drive
// RunControlOnce/Yield in a loop from CC.
func (l *Looper) Yield() {
	l.scheduler.Yield()
}

// snapshot builds the debug console's 's'-command report from live state.
func (l *Looper) snapshot() debugconsole.Snapshot {
	snap := debugconsole.Snapshot{
		ButtonQueueDepth: l.buttons.Commands().Size(),
		SamplesPerBeat:   l.clock.SamplesPerBeat(),
		BeatNumber:       l.clock.BeatNumber(),
		TickInBeat:       l.clock.TickInBeat(),
		Transport:        l.clock.GetTransportState(),
	}
	if l.extClock != nil {
		snap.ClockEventQueueDepth = l.extClock.Events().Size()
		snap.ClockTickQueueDepth = l.extClock.Ticks().Size()
	}
	if dc, ok := l.buttons.(droppedCommandsCounter); ok {
		snap.ButtonQueueDrops = dc.DroppedCommands()
	}
	return snap
}

// droppedCommandsCounter is an optional capability a ButtonSource may
// implement to report how many button events it had to drop because the
// command queue was full. Not part of the core iohw contract: the core
// only consumes the queue, so drop accounting is the producer's concern.
type droppedCommandsCounter interface {
	DroppedCommands() uint64
}
