package termhw

import (
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/iohw"
)

// runeMapping maps keyboard runes to the momentary button targets. FUNC is
// a held modifier, same as the three effect keys; it has no effect of its
// own beyond gating STUTTER's capture-entry combination.
var runeMapping = map[rune]command.Target{
	'j': command.TargetChoke,
	'k': command.TargetFreeze,
	'l': command.TargetStutter,
	'h': command.TargetFunc,
}

// debugRunes are passed straight through to the debug console rather than
// treated as button presses.
var debugRunes = map[rune]bool{
	't': true,
	'c': true,
	's': true,
}

// encoderAdjustRunes maps a rune to the encoder it nudges and the signed
// step to apply. Demo-only stand-in for physical quadrature encoders.
type encoderStep struct {
	id   iohw.EncoderID
	step int32
}

var encoderAdjustRunes = map[rune]encoderStep{
	'u': {iohw.EncoderFreeze, -1},
	'i': {iohw.EncoderFreeze, 1},
	'o': {iohw.EncoderStutter, -1},
	'p': {iohw.EncoderStutter, 1},
	'n': {iohw.EncoderChoke, -1},
	'm': {iohw.EncoderChoke, 1},
	'[': {iohw.EncoderQuant, -1},
	']': {iohw.EncoderQuant, 1},
}

var encoderPressRunes = map[rune]iohw.EncoderID{
	'1': iohw.EncoderFreeze,
	'2': iohw.EncoderStutter,
	'3': iohw.EncoderChoke,
	'4': iohw.EncoderQuant,
}
