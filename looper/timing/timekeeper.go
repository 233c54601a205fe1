// Package timing implements the shared timing authority: it maps external
// beat-clock pulses to sample positions, and offers the quantization math the
// control-side effect controllers use to schedule onsets and releases on a
// musical grid.
package timing

import (
	"log/slog"
	"sync/atomic"
)

// PPQN is the fixed pulse-per-quarter-note rate of the external beat clock.
const PPQN = 24

// Tempo bounds, expressed in samples-per-beat (roughly 30-330 BPM).
const (
	MinSamplesPerBeat = 8_000
	MaxSamplesPerBeat = 100_000
)

// DefaultSamplesPerBeat is 120 BPM at 44.1 kHz.
const DefaultSamplesPerBeat = 22_050

// OnTimeTolerance (T_near) is the number of samples past a beat boundary
// that still counts as "on the beat" for SamplesToNextBeat, so a press
// landing just after the boundary doesn't incur a full-beat delay.
const OnTimeTolerance = 16

// TimeKeeper is the shared musical timeline. Every field is published with
// per-word atomics: samplePosition is written only from the audio context
// (AC), everything else only from the control context (CC). Both contexts
// may read any field at any time.
type TimeKeeper struct {
	sampleRate int

	samplePosition atomic.Uint64

	beatNumber     atomic.Uint32
	tickInBeat     atomic.Uint32
	samplesPerBeat atomic.Uint32

	transport atomic.Int32
	beatFlag  atomic.Bool
}

// New builds a TimeKeeper for the given audio sample rate, in the default
// STOPPED transport state at the default tempo.
func New(sampleRate int) *TimeKeeper {
	tk := &TimeKeeper{sampleRate: sampleRate}
	tk.samplesPerBeat.Store(DefaultSamplesPerBeat)
	tk.transport.Store(int32(Stopped))
	return tk
}

// IncrementSamples advances the sample counter by n. AC-only.
func (tk *TimeKeeper) IncrementSamples(n int) {
	tk.samplePosition.Add(uint64(n))
}

// SamplePosition returns the current sample position. Safe from either
// context.
func (tk *TimeKeeper) SamplePosition() uint64 {
	return tk.samplePosition.Load()
}

// SyncToExternalClock derives samples-per-beat from the measured period
// between two external clock ticks (in microseconds) and publishes it if it
// falls within the accepted tempo range. Out-of-range syncs are rejected and
// leave the current tempo unchanged, per the error-handling design: the
// external clock is allowed to jitter without corrupting the timeline. CC-only.
func (tk *TimeKeeper) SyncToExternalClock(tickPeriodMicros int64) bool {
	spb := (tickPeriodMicros * PPQN * int64(tk.sampleRate)) / 1_000_000
	if spb < MinSamplesPerBeat || spb > MaxSamplesPerBeat {
		slog.Warn("rejected out-of-range tempo sync", "samples_per_beat", spb, "tick_period_us", tickPeriodMicros)
		return false
	}
	tk.samplesPerBeat.Store(uint32(spb))
	return true
}

// SamplesPerBeat returns the current tempo in samples.
func (tk *TimeKeeper) SamplesPerBeat() uint32 {
	return tk.samplesPerBeat.Load()
}

// IncrementTick advances the tick-within-beat counter, rolling over into the
// beat counter and setting the beat flag every PPQN ticks. CC-only.
func (tk *TimeKeeper) IncrementTick() {
	next := tk.tickInBeat.Add(1)
	if next >= PPQN {
		tk.tickInBeat.Store(0)
		tk.beatNumber.Add(1)
		tk.beatFlag.Store(true)
		return
	}
}

// TickInBeat returns the current tick within the beat, 0-23.
func (tk *TimeKeeper) TickInBeat() uint32 {
	return tk.tickInBeat.Load()
}

// BeatNumber returns the current beat index.
func (tk *TimeKeeper) BeatNumber() uint32 {
	return tk.beatNumber.Load()
}

// SetTransportState publishes a new transport state with release ordering.
func (tk *TimeKeeper) SetTransportState(s TransportState) {
	tk.transport.Store(int32(s))
}

// GetTransportState loads the transport state with acquire ordering.
func (tk *TimeKeeper) GetTransportState() TransportState {
	return TransportState(tk.transport.Load())
}

// IsRunning reports whether the transport is PLAYING or RECORDING.
func (tk *TimeKeeper) IsRunning() bool {
	s := tk.GetTransportState()
	return s == Playing || s == Recording
}

// PollBeatFlag atomically exchanges the beat flag to false and returns its
// prior value. Because it's an exchange, it sees every beat set since the
// last poll, collapsing consecutive sets into a single true.
func (tk *TimeKeeper) PollBeatFlag() bool {
	return tk.beatFlag.Swap(false)
}

// Reset zeroes the timeline and returns the transport to STOPPED at the
// default tempo. Idempotent: calling Reset twice in a row is indistinguishable
// from calling it once.
func (tk *TimeKeeper) Reset() {
	tk.samplePosition.Store(0)
	tk.beatNumber.Store(0)
	tk.tickInBeat.Store(0)
	tk.samplesPerBeat.Store(DefaultSamplesPerBeat)
	tk.beatFlag.Store(false)
	tk.transport.Store(int32(Stopped))
}

// --- Quantization API ---

// SamplesToNextBeat returns the number of samples until the next beat
// boundary, using sample-modulo arithmetic (a purely relative answer,
// independent of the tick counter). Clamped to 0 when already within
// OnTimeTolerance samples of the boundary, so a press landing just past the
// line still fires immediately instead of waiting a full beat.
func (tk *TimeKeeper) SamplesToNextBeat() uint64 {
	spb := uint64(tk.SamplesPerBeat())
	pos := tk.SamplePosition()
	intoBeat := pos % spb
	if intoBeat <= OnTimeTolerance {
		return 0
	}
	return spb - intoBeat
}

// SamplesToNextBar is SamplesToNextBeat's analogue modulo a 4-beat bar.
func (tk *TimeKeeper) SamplesToNextBar() uint64 {
	barLen := uint64(tk.SamplesPerBeat()) * 4
	pos := tk.SamplePosition()
	intoBar := pos % barLen
	if intoBar <= OnTimeTolerance {
		return 0
	}
	return barLen - intoBar
}

// SamplesToNextSubdivision computes the distance to the next integer
// multiple of sub's subdivision within the current beat, using the
// tick-derived position (tickInBeat * spb/PPQN) rather than sample-modulo.
// Keeping the grid tick-derived prevents drift between the independently
// advancing sample counter and the externally advancing beat counter; it
// wraps to the beat boundary when the next multiple would fall beyond it.
func (tk *TimeKeeper) SamplesToNextSubdivision(sub QuantSelector) uint64 {
	spb := uint64(tk.SamplesPerBeat())
	elapsedInBeat := uint64(tk.TickInBeat()) * (spb / PPQN)
	subDur := subdivisionDuration(sub, spb)
	if subDur == 0 {
		return 0
	}

	rem := elapsedInBeat % subDur
	if rem == 0 {
		return 0
	}
	dist := subDur - rem
	if elapsedInBeat+dist > spb {
		return spb - elapsedInBeat
	}
	return dist
}

// DurationFor returns the sample length of one subdivision unit for the
// given quantization selector at the current tempo, for use when scheduling
// a release or playback-length a fixed subdivision after an onset.
func (tk *TimeKeeper) DurationFor(sel QuantSelector) uint64 {
	return subdivisionDuration(sel, uint64(tk.SamplesPerBeat()))
}

// subdivisionDuration returns the sample length of one subdivision unit for
// the given selector at the given tempo. QUANT_32/16/8/4 map to 1/8, 1/4,
// 1/2, 1/1 of a beat respectively.
func subdivisionDuration(sub QuantSelector, spb uint64) uint64 {
	switch sub {
	case Quant32:
		return spb / 8
	case Quant16:
		return spb / 4
	case Quant8:
		return spb / 2
	case Quant4:
		return spb
	default:
		return spb / 4
	}
}

// BeatToSample converts a beat index to the sample position where it starts.
func (tk *TimeKeeper) BeatToSample(beat uint64) uint64 {
	return beat * uint64(tk.SamplesPerBeat())
}

// BarToSample converts a bar index (4 beats) to its starting sample position.
func (tk *TimeKeeper) BarToSample(bar uint64) uint64 {
	return bar * uint64(tk.SamplesPerBeat()) * 4
}

// SampleToBeat converts a sample position to the beat index it falls within.
func (tk *TimeKeeper) SampleToBeat(pos uint64) uint64 {
	return pos / uint64(tk.SamplesPerBeat())
}

// IsOnBeatBoundary reports whether the current sample position is within
// blockSize samples of a beat boundary.
func (tk *TimeKeeper) IsOnBeatBoundary(blockSize int) bool {
	pos := tk.SamplePosition()
	beat := tk.SampleToBeat(pos)
	offset := pos - tk.BeatToSample(beat)
	return offset <= uint64(blockSize)
}

// IsOnBarBoundary reports whether the current sample position is on a beat
// boundary that is also the first beat of a bar.
func (tk *TimeKeeper) IsOnBarBoundary(blockSize int) bool {
	if !tk.IsOnBeatBoundary(blockSize) {
		return false
	}
	return tk.BeatNumber()%4 == 0
}
