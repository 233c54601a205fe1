package control

import (
	"testing"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
	"github.com/stretchr/testify/assert"
)

func TestFreezeController_FreeOnsetEngagesImmediately(t *testing.T) {
	engine := effects.NewFreeze(44_100, effects.DefaultFreezeMs)
	clock := timing.New(44_100)
	quant := NewQuantState()
	registry := visual.NewRegistry()
	c := NewFreezeController(engine, clock, quant, registry)

	res := c.HandleButtonPress(command.Command{Kind: command.KindPress, Target: command.TargetFreeze})
	assert.Equal(t, Handled, res)
	assert.True(t, engine.Enabled())
}

func TestFreezeController_FreeLengthDisablesOnRelease(t *testing.T) {
	engine := effects.NewFreeze(44_100, effects.DefaultFreezeMs)
	clock := timing.New(44_100)
	quant := NewQuantState()
	registry := visual.NewRegistry()
	c := NewFreezeController(engine, clock, quant, registry)

	c.HandleButtonPress(command.Command{Kind: command.KindPress, Target: command.TargetFreeze})
	c.HandleButtonRelease(command.Command{Kind: command.KindRelease, Target: command.TargetFreeze})
	assert.False(t, engine.Enabled())
}

func TestFreezeController_SetParamFlipsOnsetMode(t *testing.T) {
	engine := effects.NewFreeze(44_100, effects.DefaultFreezeMs)
	clock := timing.New(44_100)
	quant := NewQuantState()
	registry := visual.NewRegistry()
	c := NewFreezeController(engine, clock, quant, registry)

	res := c.HandleSetParam(command.Command{Kind: command.KindSetParam, Target: command.TargetFreeze, Param1: command.ParamOnsetMode})
	assert.Equal(t, Handled, res)
	onset, _ := engine.Modes()
	assert.Equal(t, effects.Quantized, onset)
}

func TestFreezeController_UpdateVisualFeedbackNotesActivationOnEngage(t *testing.T) {
	engine := effects.NewFreeze(44_100, effects.DefaultFreezeMs)
	clock := timing.New(44_100)
	quant := NewQuantState()
	registry := visual.NewRegistry()
	c := NewFreezeController(engine, clock, quant, registry)

	engine.Enable()
	c.UpdateVisualFeedback()

	fb := registry.Resolve()
	assert.Equal(t, visual.BitmapFreezeActive, fb.Bitmap)
}
