package control

import (
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
)

// ChokeController bridges button events to the CHOKE engine, applying the
// onset/length quantization modes.
type ChokeController struct {
	engine    *effects.Choke
	clock     *timing.TimeKeeper
	quant     *QuantState
	lookahead uint64
	registry  *visual.Registry

	lastSeenEngaged bool
}

func NewChokeController(engine *effects.Choke, clock *timing.TimeKeeper, quant *QuantState, registry *visual.Registry) *ChokeController {
	return &ChokeController{engine: engine, clock: clock, quant: quant, lookahead: DefaultLookahead, registry: registry}
}

// SetLookahead overrides the quantized-onset lookahead (DefaultLookahead by
// construction).
func (c *ChokeController) SetLookahead(samples uint64) {
	c.lookahead = samples
}

func (c *ChokeController) HandleButtonPress(cmd command.Command) Result {
	if cmd.Target != command.TargetChoke {
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
	c.registry.NoteActivated(visual.EffectChoke)
	return Handled
}

func (c *ChokeController) HandleButtonRelease(cmd command.Command) Result {
	if cmd.Target != command.TargetChoke {
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

// HandleSetParam flips CHOKE's onset or length mode bit, selected by
// cmd.Param1.
func (c *ChokeController) HandleSetParam(cmd command.Command) Result {
	if cmd.Target != command.TargetChoke {
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

func (c *ChokeController) UpdateVisualFeedback() {
	engaged := c.engine.Enabled()
	if engaged != c.lastSeenEngaged {
		c.lastSeenEngaged = engaged
		if engaged {
			c.registry.NoteActivated(visual.EffectChoke)
		}
	}
	state := visual.Disengaged
	if engaged {
		state = visual.Engaged
	}
	c.registry.SetState(visual.EffectChoke, state)
}
