package control

import (
	"fmt"
	"log/slog"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
)

// EngineOps is satisfied by CHOKE and FREEZE's engines: the generic
// toggle/enable/disable operations the command plane's fallback dispatch
// applies when no controller intercepted a command.
type EngineOps interface {
	Toggle()
	Enable()
	Disable()
}

// Dispatcher is the command plane's central dispatch: two layers, per the
// component design. Every button command is first offered to each
// registered controller (interception); if none claim it, it falls back to
// the generic {TOGGLE, ENABLE, DISABLE} mapping against the target's
// registered engine. Unrecognized targets or kinds are logged and
// discarded — never fatal, per the error-handling design.
type Dispatcher struct {
	controllers []Controller
	engines     map[command.Target]EngineOps
	stutter     *effects.Stutter
}

// NewDispatcher builds a Dispatcher offering commands to controllers in the
// given order.
func NewDispatcher(controllers []Controller) *Dispatcher {
	return &Dispatcher{controllers: controllers, engines: make(map[command.Target]EngineOps, 4)}
}

// RegisterEngine wires an effect id to its engine for fallback dispatch.
// Rejects a duplicate registration or a nil engine; the prior registration
// (if any) survives, per the configuration-error handling design.
func (d *Dispatcher) RegisterEngine(target command.Target, engine EngineOps) error {
	if engine == nil {
		return fmt.Errorf("control: nil engine for target %s", target)
	}
	if _, exists := d.engines[target]; exists {
		return fmt.Errorf("control: duplicate engine registration for target %s", target)
	}
	d.engines[target] = engine
	return nil
}

// RegisterStutter wires the STUTTER engine, whose fallback mapping doesn't
// fit the generic EngineOps shape (its "toggle" is start/stop playback of
// an existing loop, not a single enabled bit).
func (d *Dispatcher) RegisterStutter(s *effects.Stutter) {
	d.stutter = s
}

// DispatchPress offers a press command to every controller in order, then
// to the fallback mapping.
func (d *Dispatcher) DispatchPress(cmd command.Command) {
	for _, c := range d.controllers {
		if c.HandleButtonPress(cmd) == Handled {
			return
		}
	}
	d.fallback(cmd)
}

// DispatchRelease offers a release command to every controller in order,
// then to the fallback mapping.
func (d *Dispatcher) DispatchRelease(cmd command.Command) {
	for _, c := range d.controllers {
		if c.HandleButtonRelease(cmd) == Handled {
			return
		}
	}
	d.fallback(cmd)
}

// DispatchSetParam offers a SET_PARAM command to every controller in
// order, then to the fallback mapping. SET_PARAM is an extension point: the
// three named effects only ever claim it via their own controller, for
// their LENGTH/ONSET/CAPTURE mode bits.
func (d *Dispatcher) DispatchSetParam(cmd command.Command) {
	for _, c := range d.controllers {
		if c.HandleSetParam(cmd) == Handled {
			return
		}
	}
	d.fallback(cmd)
}

func (d *Dispatcher) fallback(cmd command.Command) {
	if cmd.Target == command.TargetStutter && d.stutter != nil {
		d.fallbackStutter(cmd)
		return
	}

	engine, ok := d.engines[cmd.Target]
	if !ok {
		slog.Warn("discarding command for unregistered target", "target", cmd.Target, "kind", cmd.Kind)
		return
	}

	switch cmd.Kind {
	case command.KindToggle:
		engine.Toggle()
	case command.KindEnable:
		engine.Enable()
	case command.KindDisable:
		engine.Disable()
	case command.KindSetParam:
		slog.Warn("SET_PARAM has no controller claiming it for this target", "target", cmd.Target, "param", cmd.Param1)
	default:
		slog.Warn("unrecognized command kind in fallback dispatch", "kind", cmd.Kind, "target", cmd.Target)
	}
}

func (d *Dispatcher) fallbackStutter(cmd command.Command) {
	switch cmd.Kind {
	case command.KindToggle:
		switch d.stutter.State() {
		case effects.Playing, effects.WaitPlaybackLength:
			d.stutter.RequestPlaybackEnd(true, 0)
		case effects.IdleWithLoop:
			d.stutter.RequestPlaybackBegin(true, 0)
		}
	case command.KindEnable:
		if d.stutter.State() == effects.IdleWithLoop {
			d.stutter.RequestPlaybackBegin(true, 0)
		}
	case command.KindDisable:
		d.stutter.RequestPlaybackEnd(true, 0)
	case command.KindSetParam:
		slog.Warn("SET_PARAM reached stutter fallback unclaimed", "param", cmd.Param1)
	default:
		slog.Warn("unrecognized stutter command kind", "kind", cmd.Kind)
	}
}
