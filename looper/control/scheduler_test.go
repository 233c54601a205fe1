package control

import (
	"testing"
	"time"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/spsc"
	"github.com/loopcore/stompbox/looper/timing"
	"github.com/loopcore/stompbox/looper/visual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLED struct {
	perEffect map[visual.EffectID]visual.LEDColor
	beatOn    bool
}

func newFakeLED() *fakeLED { return &fakeLED{perEffect: make(map[visual.EffectID]visual.LEDColor)} }

func (f *fakeLED) SetLED(effect visual.EffectID, color visual.LEDColor) {
	f.perEffect[effect] = color
}
func (f *fakeLED) SetBeatLED(on bool) { f.beatOn = on }

type fakeDisplay struct {
	shown []visual.BitmapID
}

func (f *fakeDisplay) ShowBitmap(id visual.BitmapID) error {
	f.shown = append(f.shown, id)
	return nil
}

func newScheduler(t *testing.T) (*Scheduler, *effects.Choke, *iohw.CommandQueue, *iohw.EventQueue, *iohw.TickQueue, *fakeLED) {
	t.Helper()
	clock := timing.New(44_100)
	choke := effects.NewChoke(44_100, effects.DefaultFadeMs)
	quant := NewQuantState()
	registry := visual.NewRegistry()
	chokeCtrl := NewChokeController(choke, clock, quant, registry)
	d := NewDispatcher([]Controller{chokeCtrl})
	require.NoError(t, d.RegisterEngine(command.TargetChoke, choke))

	buttons := spsc.NewRing[command.Command](16)
	clockEvents := spsc.NewRing[iohw.ClockEvent](32)
	clockTicks := spsc.NewRing[iohw.ClockTick](256)
	led := newFakeLED()

	s := NewScheduler(clock, buttons, clockEvents, clockTicks, d, []Controller{chokeCtrl}, led, &fakeDisplay{}, registry, nil, nil, quant, nil)
	return s, choke, buttons, clockEvents, clockTicks, led
}

func TestScheduler_DrainsButtonPress(t *testing.T) {
	s, choke, buttons, _, _, _ := newScheduler(t)
	buttons.Push(command.Command{Kind: command.KindPress, Target: command.TargetChoke})

	s.RunOnce(time.Unix(0, 0))
	assert.True(t, choke.Enabled())
}

func TestScheduler_StartEventResetsClock(t *testing.T) {
	s, _, _, clockEvents, _, _ := newScheduler(t)
	s.clock.IncrementSamples(5000)
	clockEvents.Push(iohw.ClockEvent{Kind: iohw.ClockStart})

	s.RunOnce(time.Unix(0, 0))
	assert.Equal(t, uint64(0), s.clock.SamplePosition())
	assert.Equal(t, timing.Playing, s.clock.GetTransportState())
}

func TestScheduler_TicksAdvanceBeatCounter(t *testing.T) {
	s, _, _, _, clockTicks, _ := newScheduler(t)
	ts := int64(0)
	for i := 0; i < 24; i++ {
		clockTicks.Push(iohw.ClockTick{TimestampMicros: ts})
		ts += 20_833
	}
	s.RunOnce(time.Unix(0, 0))
	assert.Equal(t, uint32(1), s.clock.BeatNumber())
}

func TestScheduler_BeatLEDPulsesOnBeatFlag(t *testing.T) {
	s, _, _, _, clockTicks, led := newScheduler(t)
	ts := int64(0)
	for i := 0; i < 24; i++ {
		clockTicks.Push(iohw.ClockTick{TimestampMicros: ts})
		ts += 20_833
	}
	s.RunOnce(time.Unix(0, 0))
	assert.True(t, led.beatOn)
}
