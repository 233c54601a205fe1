// Package control implements the control-side command plane: per-effect
// controllers that translate button presses and encoder deltas into
// scheduled effect transitions, the dispatch that routes commands to them,
// and the cooperative scheduler that pumps it all at a roughly 2 ms cadence.
package control

import (
	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/effects"
)

// Result is a controller's verdict on a command it was offered.
type Result uint8

const (
	Passthrough Result = iota
	Handled
)

// DefaultLookahead is subtracted from a quantized onset's schedule to
// compensate for expected external signal latency, so the audible
// transient lines up with the grid instead of arriving a lookahead late.
const DefaultLookahead = 128

// Controller is the interface every per-effect controller implements. The
// scheduler calls these in a fixed order each iteration.
type Controller interface {
	HandleButtonPress(cmd command.Command) Result
	HandleButtonRelease(cmd command.Command) Result
	HandleSetParam(cmd command.Command) Result
	UpdateVisualFeedback()
}

// flipMode toggles a FREE/QUANTIZED mode bit. SET_PARAM commands carry no
// explicit value: the three named effects only ever use it to flip one of
// their own mode bits, per component design.
func flipMode(m effects.Mode) effects.Mode {
	if m == effects.Free {
		return effects.Quantized
	}
	return effects.Free
}

// quantizedOnset computes a lookahead-adjusted onset schedule: the distance
// to the next subdivision boundary, minus lookahead samples, clamped to 0,
// expressed as an absolute sample position.
func quantizedOnset(currentSample, distance uint64, lookahead uint64) uint64 {
	if distance <= lookahead {
		return currentSample
	}
	return currentSample + distance - lookahead
}
