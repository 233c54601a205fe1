// Package clocksync estimates the external beat clock's tick period from
// noisy successive timestamps, for the control loop to feed into
// TimeKeeper.SyncToExternalClock.
package clocksync

const (
	// MinGateMicros and MaxGateMicros bound an accepted inter-tick period;
	// anything outside is treated as a glitch and dropped, leaving the
	// running estimate unchanged.
	MinGateMicros = 10_000
	MaxGateMicros = 50_000

	emaWeightOld = 9.0
	emaWeightNew = 1.0
)

// Estimator smooths successive external clock tick timestamps into a
// 9:1-weighted exponential moving average of the tick period.
type Estimator struct {
	lastTick int64
	hasLast  bool
	estimate float64
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Observe feeds a new tick timestamp (microseconds, monotonic) and returns
// the updated period estimate plus whether this observation passed the
// gate and was folded into it. The first observation never passes (there
// is no prior tick to measure a period against).
func (e *Estimator) Observe(timestampMicros int64) (periodMicros int64, used bool) {
	if !e.hasLast {
		e.lastTick = timestampMicros
		e.hasLast = true
		return int64(e.estimate), false
	}

	period := timestampMicros - e.lastTick
	e.lastTick = timestampMicros

	if period < MinGateMicros || period > MaxGateMicros {
		return int64(e.estimate), false
	}

	if e.estimate == 0 {
		e.estimate = float64(period)
	} else {
		e.estimate = (e.estimate*emaWeightOld + float64(period)*emaWeightNew) / (emaWeightOld + emaWeightNew)
	}
	return int64(e.estimate), true
}

// Estimate returns the current smoothed period without consuming a new
// observation.
func (e *Estimator) Estimate() int64 {
	return int64(e.estimate)
}
