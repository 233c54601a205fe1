// Package debugconsole implements the three single-character debug
// commands ('t' dump trace, 'c' clear trace, 's' print a timing snapshot)
// exposed as an optional, non-essential collaborator.
package debugconsole

import (
	"fmt"

	"github.com/loopcore/stompbox/looper/timing"
)

// Snapshot is the point-in-time report the 's' command prints: queue
// health plus the current musical timeline.
type Snapshot struct {
	ButtonQueueDepth     int
	ButtonQueueDrops     uint64
	ClockEventQueueDepth int
	ClockTickQueueDepth  int

	SamplesPerBeat uint32
	BeatNumber     uint32
	TickInBeat     uint32
	Transport      timing.TransportState
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"buttons=%d(drops=%d) clock_events=%d clock_ticks=%d spb=%d beat=%d tick=%d transport=%s",
		s.ButtonQueueDepth, s.ButtonQueueDrops, s.ClockEventQueueDepth, s.ClockTickQueueDepth,
		s.SamplesPerBeat, s.BeatNumber, s.TickInBeat, s.Transport,
	)
}
