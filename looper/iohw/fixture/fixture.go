// Package fixture parses a recorded clock/command script into scheduled
// events a headless run can replay against the core, so `bench` exercises
// dispatch and clock-tick handling the same way a live control surface
// would instead of pumping pure silence.
package fixture

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/loopcore/stompbox/looper/command"
	"github.com/loopcore/stompbox/looper/iohw"
	"github.com/loopcore/stompbox/looper/spsc"
)

// Queue capacities mirror the external interface contract noted on
// iohw.ClockSource/iohw.ButtonSource.
const (
	commandQueueCapacity = 32
	eventQueueCapacity   = 32
	tickQueueCapacity    = 256
)

func newCommandQueue() *iohw.CommandQueue { return spsc.NewRing[command.Command](commandQueueCapacity) }
func newEventQueue() *iohw.EventQueue     { return spsc.NewRing[iohw.ClockEvent](eventQueueCapacity) }
func newTickQueue() *iohw.TickQueue       { return spsc.NewRing[iohw.ClockTick](tickQueueCapacity) }

// EventKind is what a scheduled fixture line requests at its block.
type EventKind uint8

const (
	EventPress EventKind = iota
	EventRelease
	EventTick
	EventStart
	EventStop
	EventContinue
)

// Event is one fixture line: at Block, do Kind (Target only meaningful for
// EventPress/EventRelease).
type Event struct {
	Block  uint64
	Kind   EventKind
	Target command.Target
}

var targetNames = map[string]command.Target{
	"stutter": command.TargetStutter,
	"freeze":  command.TargetFreeze,
	"choke":   command.TargetChoke,
	"func":    command.TargetFunc,
}

// Parse reads a fixture script, one event per line:
//
//	<block> press <target>
//	<block> release <target>
//	<block> tick
//	<block> start
//	<block> stop
//	<block> continue
//
// Blank lines and lines starting with '#' are ignored. Lines need not be in
// block order; callers that schedule by block should sort the result.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("fixture: line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	return events, nil
}

func parseLine(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Event{}, fmt.Errorf("expected at least <block> <kind>, got %q", line)
	}

	block, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("bad block index %q: %w", fields[0], err)
	}

	switch fields[1] {
	case "press", "release":
		if len(fields) != 3 {
			return Event{}, fmt.Errorf("%s requires a target, got %q", fields[1], line)
		}
		target, ok := targetNames[fields[2]]
		if !ok {
			return Event{}, fmt.Errorf("unknown target %q", fields[2])
		}
		kind := EventPress
		if fields[1] == "release" {
			kind = EventRelease
		}
		return Event{Block: block, Kind: kind, Target: target}, nil
	case "tick":
		return Event{Block: block, Kind: EventTick}, nil
	case "start":
		return Event{Block: block, Kind: EventStart}, nil
	case "stop":
		return Event{Block: block, Kind: EventStop}, nil
	case "continue":
		return Event{Block: block, Kind: EventContinue}, nil
	default:
		return Event{}, fmt.Errorf("unknown event kind %q", fields[1])
	}
}

// Player replays a parsed fixture's Button/Clock traffic against its own
// queues, implementing iohw.ButtonSource and iohw.ClockSource so the core
// can be driven exactly as it would be by a physical control surface.
type Player struct {
	events   []Event
	next     int
	commands *iohw.CommandQueue
	clockEvs *iohw.EventQueue
	ticks    *iohw.TickQueue

	droppedCommands uint64
}

// NewPlayer builds a Player over a parsed, block-ordered-or-not event list.
func NewPlayer(events []Event) *Player {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sortByBlock(ordered)
	return &Player{
		events:   ordered,
		commands: newCommandQueue(),
		clockEvs: newEventQueue(),
		ticks:    newTickQueue(),
	}
}

func sortByBlock(events []Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j].Block < events[j-1].Block; j-- {
			events[j], events[j-1] = events[j-1], events[j]
		}
	}
}

// Commands implements iohw.ButtonSource.
func (p *Player) Commands() *iohw.CommandQueue { return p.commands }

// Events implements iohw.ClockSource.
func (p *Player) Events() *iohw.EventQueue { return p.clockEvs }

// Ticks implements iohw.ClockSource.
func (p *Player) Ticks() *iohw.TickQueue { return p.ticks }

// DroppedCommands implements the optional drop-count capability looper.Looper
// checks for.
func (p *Player) DroppedCommands() uint64 { return p.droppedCommands }

// AdvanceTo pushes every scheduled event whose Block is <= block onto its
// queue, in fixture order. Call once per processed audio block, before the
// control loop iteration that should observe it.
func (p *Player) AdvanceTo(block uint64) {
	for p.next < len(p.events) && p.events[p.next].Block <= block {
		p.push(p.events[p.next])
		p.next++
	}
}

func (p *Player) push(ev Event) {
	switch ev.Kind {
	case EventPress:
		if !p.commands.Push(command.Command{Kind: command.KindPress, Target: ev.Target}) {
			p.droppedCommands++
		}
	case EventRelease:
		if !p.commands.Push(command.Command{Kind: command.KindRelease, Target: ev.Target}) {
			p.droppedCommands++
		}
	case EventTick:
		p.ticks.Push(iohw.ClockTick{})
	case EventStart:
		p.clockEvs.Push(iohw.ClockEvent{Kind: iohw.ClockStart})
	case EventStop:
		p.clockEvs.Push(iohw.ClockEvent{Kind: iohw.ClockStop})
	case EventContinue:
		p.clockEvs.Push(iohw.ClockEvent{Kind: iohw.ClockContinue})
	}
}
