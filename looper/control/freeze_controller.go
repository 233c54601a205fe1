package control

import (
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
)

// FreezeController bridges button events to the FREEZE engine. Its
// scheduling logic mirrors ChokeController's.
type FreezeController struct {
	engine    *effects.Freeze
	clock     *timing.TimeKeeper
	quant     *QuantState
	lookahead uint64
	registry  *visual.Registry

	lastSeenEngaged bool
}

func NewFreezeController(engine *effects.Freeze, clock *timing.TimeKeeper, quant *QuantState, registry *visual.Registry) *FreezeController {
	return &FreezeController{engine: engine, clock: clock, quant: quant, lookahead: DefaultLookahead, registry: registry}
}

// SetLookahead overrides the quantized-onset lookahead (DefaultLookahead by
// construction).
func (c *FreezeController) SetLookahead(samples uint64) {
	c.lookahead = samples
}

func (c *FreezeController) HandleButtonPress(cmd command.Command) Result {
	if cmd.Target != command.TargetFreeze {
		return Passthrough
	}

	onsetMode, lengthMode := c.engine.Modes()
	if onsetMode == effects.Free {
		c.engine.Enable()
		if lengthMode == effects.Quantized {
			c.engine.ScheduleRelease(c.clock.SamplePosition() + c.clock.DurationFor(c.quant.Selector()))
		}
	} else {
		sel := c.quant.Selector()
		dist := c.clock.SamplesToNextSubdivision(sel)
		onset := quantizedOnset(c.clock.SamplePosition(), dist, c.lookahead)
		c.engine.ScheduleOnset(onset)
		if lengthMode == effects.Quantized {
			c.engine.ScheduleRelease(onset + c.clock.DurationFor(sel))
		}
	}
	c.registry.NoteActivated(visual.EffectFreeze)
	return Handled
}

func (c *FreezeController) HandleButtonRelease(cmd command.Command) Result {
	if cmd.Target != command.TargetFreeze {
		return Passthrough
	}

	_, lengthMode := c.engine.Modes()
	if lengthMode == effects.Quantized {
		return Handled
	}
	c.engine.CancelOnset()
	c.engine.Disable()
	return Handled
}

// HandleSetParam flips FREEZE's onset or length mode bit, selected by
// cmd.Param1.
func (c *FreezeController) HandleSetParam(cmd command.Command) Result {
	if cmd.Target != command.TargetFreeze {
		return Passthrough
	}

	onset, length := c.engine.Modes()
	switch cmd.Param1 {
	case command.ParamOnsetMode:
		c.engine.SetModes(flipMode(onset), length)
	case command.ParamLengthMode:
		c.engine.SetModes(onset, flipMode(length))
	default:
		return Passthrough
	}
	return Handled
}

func (c *FreezeController) UpdateVisualFeedback() {
	engaged := c.engine.Enabled()
	if engaged != c.lastSeenEngaged {
		c.lastSeenEngaged = engaged
		if engaged {
			c.registry.NoteActivated(visual.EffectFreeze)
		}
	}
	state := visual.Disengaged
	if engaged {
		state = visual.Engaged
	}
	c.registry.SetState(visual.EffectFreeze, state)
}
