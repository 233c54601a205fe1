// Package encodermenu implements the debounced parameter-selection
// abstraction sitting between raw quadrature encoder readings and a
// bounded integer value: accumulated steps are hysteresis-gated (four raw
// quadrature steps per detent) and a value change latches a "touched"
// display window so the UI can show the value briefly after it last moved.
package encodermenu

import "time"

// StepsPerDetent is the number of raw quadrature steps one physical detent
// of rotation produces.
const StepsPerDetent = 4

// DefaultTouchedWindow is how long a changed value stays "touched" (the
// display should prefer showing it over its default content).
const DefaultTouchedWindow = 2 * time.Second

// Menu tracks one encoder's accumulated position against a bounded integer
// value.
type Menu struct {
	accum   int32
	lastPos int32
	value   int
	min     int
	max     int

	touchedWindow time.Duration
	touchedUntil  time.Time
}

// New builds a Menu bounded to [min, max], starting at initial.
func New(min, max, initial int) *Menu {
	return &Menu{value: initial, min: min, max: max, touchedWindow: DefaultTouchedWindow}
}

// Update feeds a raw absolute encoder position at the given instant.
// Returns true if the bounded value changed.
func (m *Menu) Update(pos int32, now time.Time) bool {
	delta := pos - m.lastPos
	m.lastPos = pos
	if delta == 0 {
		return false
	}

	m.accum += delta
	changed := false
	for m.accum >= StepsPerDetent {
		m.accum -= StepsPerDetent
		if m.value < m.max {
			m.value++
			changed = true
		}
	}
	for m.accum <= -StepsPerDetent {
		m.accum += StepsPerDetent
		if m.value > m.min {
			m.value--
			changed = true
		}
	}

	if changed {
		m.touchedUntil = now.Add(m.touchedWindow)
	}
	return changed
}

// Value returns the current bounded value.
func (m *Menu) Value() int { return m.value }

// Touched reports whether the value changed within the touched window as
// of now.
func (m *Menu) Touched(now time.Time) bool {
	return now.Before(m.touchedUntil)
}
