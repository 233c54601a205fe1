package control

import (
	"time"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/control/encodermenu"
	"github.com/loopcore/stompbox/looper/iohw"
)

// ParamEncoderBinding wires one physical encoder to a bounded parameter
// menu and a SET_PARAM command emitted on the encoder's button edge — the
// per-effect parameter-selection encoders (FREEZE, STUTTER, CHOKE) use this
// to let the player pick a parameter by rotation and flip its FREE/
// QUANTIZED mode by pressing the encoder. The command goes through the same
// dispatcher every button press does, rather than touching the engine
// directly, so SET_PARAM's controller interception actually runs.
type ParamEncoderBinding struct {
	ID       iohw.EncoderID
	Menu     *encodermenu.Menu
	Target   command.Target
	Params   []command.Param // Params[menu value] is the SET_PARAM param id to flip
	Dispatch func(command.Command)

	prevButton bool
}

// Poll reads the bound encoder and updates its menu; if the button edge
// rises since the last poll, dispatches a SET_PARAM command for the
// currently selected parameter.
func (b *ParamEncoderBinding) Poll(source iohw.EncoderSource, now time.Time) {
	reading := source.Read(b.ID)
	b.Menu.Update(reading.Position, now)
	if reading.ButtonPressed && !b.prevButton && b.Dispatch != nil {
		b.Dispatch(command.Command{
			Kind:   command.KindSetParam,
			Target: b.Target,
			Param1: b.Params[b.Menu.Value()],
		})
	}
	b.prevButton = reading.ButtonPressed
}
