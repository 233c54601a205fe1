// Package termhw is a demo iohw collaborator set backed by tcell: buttons
// and encoders read from the keyboard, the OLED display and status LEDs
// rendered as terminal text, and the debug console wired straight to the
// same keystream. It implements iohw.ButtonSource, iohw.EncoderSource,
// iohw.Display, iohw.LED, and iohw.DebugConsole from one shared event pump,
// the way a single physical control surface would multiplex all of these
// over one keyboard/encoder bank.
package termhw

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/spsc"
	"github.com/loopcore/stompbox/looper/visual"
)

// keyTimeout is how long a key is considered "held" after its last tcell
// key event, long enough to bridge terminal key-repeat gaps.
const keyTimeout = 100 * time.Millisecond

type encoderState struct {
	position  int32
	pressedAt time.Time
}

func (e encoderState) pressed(now time.Time) bool {
	return !e.pressedAt.IsZero() && now.Sub(e.pressedAt) < keyTimeout
}

// Backend is a single tcell screen multiplexed across every demo
// collaborator contract.
type Backend struct {
	screen tcell.Screen

	commands *iohw.CommandQueue

	keyStates  map[command.Target]time.Time
	activeKeys map[command.Target]bool

	encoders map[iohw.EncoderID]*encoderState

	pendingDebugRune rune
	hasPendingDebug  bool

	lastBitmap visual.BitmapID
	ledColors  map[visual.EffectID]visual.LEDColor
	beatOn     bool

	printed []string

	droppedCommands uint64
}

// New opens a tcell screen. The caller must call Close when done.
func New() (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("termhw: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("termhw: init screen: %w", err)
	}
	return newWithScreen(screen), nil
}

func newWithScreen(screen tcell.Screen) *Backend {
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	b := &Backend{
		screen:     screen,
		commands:   spsc.NewRing[command.Command](32),
		keyStates:  make(map[command.Target]time.Time),
		activeKeys: make(map[command.Target]bool),
		encoders: map[iohw.EncoderID]*encoderState{
			iohw.EncoderFreeze:  {},
			iohw.EncoderStutter: {},
			iohw.EncoderChoke:   {},
			iohw.EncoderQuant:   {},
		},
		ledColors: make(map[visual.EffectID]visual.LEDColor),
	}
	b.render()
	return b
}

func (b *Backend) Close() {
	b.screen.Fini()
}

// Update drains pending terminal input for one control iteration, pushing
// button press/release commands, nudging encoder positions, and latching
// at most one debug rune. Call once per control loop tick.
func (b *Backend) Update(now time.Time) {
	for b.screen.HasPendingEvent() {
		ev := b.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			b.processKey(ev, now)
		case *tcell.EventResize:
			b.screen.Sync()
		}
	}

	currentlyActive := make(map[command.Target]bool, len(b.keyStates))
	for target, lastSeen := range b.keyStates {
		if now.Sub(lastSeen) < keyTimeout {
			currentlyActive[target] = true
			if !b.activeKeys[target] {
				b.push(command.Command{Kind: command.KindPress, Target: target})
			}
		} else {
			delete(b.keyStates, target)
		}
	}
	for target := range b.activeKeys {
		if !currentlyActive[target] {
			b.push(command.Command{Kind: command.KindRelease, Target: target})
		}
	}
	b.activeKeys = currentlyActive

	b.render()
}

func (b *Backend) processKey(ev *tcell.EventKey, now time.Time) {
	if ev.Key() != tcell.KeyRune {
		return
	}
	r := ev.Rune()

	if target, ok := runeMapping[r]; ok {
		b.keyStates[target] = now
		return
	}
	if step, ok := encoderAdjustRunes[r]; ok {
		b.encoders[step.id].position += step.step
		return
	}
	if id, ok := encoderPressRunes[r]; ok {
		b.encoders[id].pressedAt = now
		return
	}
	if debugRunes[r] && !b.hasPendingDebug {
		b.pendingDebugRune = r
		b.hasPendingDebug = true
	}
}

// Commands implements iohw.ButtonSource.
func (b *Backend) Commands() *iohw.CommandQueue { return b.commands }

func (b *Backend) push(cmd command.Command) {
	if !b.commands.Push(cmd) {
		b.droppedCommands++
	}
}

// DroppedCommands reports how many button events were dropped because the
// command queue was full. Implements the optional drop-count capability
// looper.Looper checks for.
func (b *Backend) DroppedCommands() uint64 { return b.droppedCommands }

// Read implements iohw.EncoderSource.
func (b *Backend) Read(id iohw.EncoderID) iohw.EncoderReading {
	e := b.encoders[id]
	return iohw.EncoderReading{Position: e.position, ButtonPressed: e.pressed(time.Now())}
}

// ShowBitmap implements iohw.Display.
func (b *Backend) ShowBitmap(id visual.BitmapID) error {
	b.lastBitmap = id
	b.render()
	return nil
}

// SetLED implements iohw.LED.
func (b *Backend) SetLED(effect visual.EffectID, color visual.LEDColor) {
	b.ledColors[effect] = color
	b.render()
}

// SetBeatLED implements iohw.LED.
func (b *Backend) SetBeatLED(on bool) {
	b.beatOn = on
	b.render()
}

// Poll implements iohw.DebugConsole.
func (b *Backend) Poll() (rune, bool) {
	if !b.hasPendingDebug {
		return 0, false
	}
	r := b.pendingDebugRune
	b.hasPendingDebug = false
	return r, true
}

// Print implements iohw.DebugConsole.
func (b *Backend) Print(s string) {
	b.printed = append(b.printed, s)
	if len(b.printed) > 10 {
		b.printed = b.printed[len(b.printed)-10:]
	}
	b.render()
}
