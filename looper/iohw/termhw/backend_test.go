package termhw

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/visual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(100, 30)
	return newWithScreen(screen)
}

func TestBackend_KeyPressGeneratesPressCommand(t *testing.T) {
	b := newTestBackend(t)
	screen := b.screen.(tcell.SimulationScreen)

	now := time.Unix(0, 0)
	screen.InjectKey(tcell.KeyRune, 'j', tcell.ModNone)
	b.Update(now)

	var cmd command.Command
	require.True(t, b.Commands().Pop(&cmd))
	assert.Equal(t, command.KindPress, cmd.Kind)
	assert.Equal(t, command.TargetChoke, cmd.Target)
}

func TestBackend_KeyReleaseAfterTimeout(t *testing.T) {
	b := newTestBackend(t)
	screen := b.screen.(tcell.SimulationScreen)

	now := time.Unix(0, 0)
	screen.InjectKey(tcell.KeyRune, 'j', tcell.ModNone)
	b.Update(now)
	var cmd command.Command
	require.True(t, b.Commands().Pop(&cmd))

	b.Update(now.Add(2 * keyTimeout))
	require.True(t, b.Commands().Pop(&cmd))
	assert.Equal(t, command.KindRelease, cmd.Kind)
	assert.Equal(t, command.TargetChoke, cmd.Target)
}

func TestBackend_EncoderAdjustAccumulatesPosition(t *testing.T) {
	b := newTestBackend(t)
	screen := b.screen.(tcell.SimulationScreen)

	screen.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	b.Update(time.Unix(0, 0))

	reading := b.Read(iohw.EncoderFreeze)
	assert.Equal(t, int32(2), reading.Position)
}

func TestBackend_EncoderPressIsMomentary(t *testing.T) {
	b := newTestBackend(t)
	screen := b.screen.(tcell.SimulationScreen)

	screen.InjectKey(tcell.KeyRune, '1', tcell.ModNone)
	b.Update(time.Now())
	assert.True(t, b.Read(iohw.EncoderFreeze).ButtonPressed)
}

func TestBackend_DebugRuneLatchesForOnePoll(t *testing.T) {
	b := newTestBackend(t)
	screen := b.screen.(tcell.SimulationScreen)

	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
	b.Update(time.Unix(0, 0))

	r, ok := b.Poll()
	require.True(t, ok)
	assert.Equal(t, 's', r)

	_, ok = b.Poll()
	assert.False(t, ok)
}

func TestBackend_DroppedCommandsCountsQueueOverflow(t *testing.T) {
	b := newTestBackend(t)

	// the command ring always keeps one slot empty to distinguish full from
	// empty, so its usable capacity is one less than allocated.
	capacity := b.commands.Capacity()
	pushes := capacity + 9
	for i := 0; i < pushes; i++ {
		b.push(command.Command{Kind: command.KindPress, Target: command.TargetChoke})
	}

	assert.Equal(t, uint64(9), b.DroppedCommands())
}

func TestBackend_ShowBitmapAndSetLEDDoNotPanic(t *testing.T) {
	b := newTestBackend(t)
	assert.NotPanics(t, func() {
		require.NoError(t, b.ShowBitmap(visual.BitmapStutterCapture))
		b.SetLED(visual.EffectStutter, visual.LEDRed)
		b.SetBeatLED(true)
		b.Print("hello")
	})
}
