package debugconsole

import "github.com/loopcore/stompbox/looper/iohw"

// Console services the single-character debug command protocol: 't' dumps
// the trace, 'c' clears it, 's' prints a timing snapshot. It has no effect
// on audio or control behavior; wiring it up is optional.
type Console struct {
	hw       iohw.DebugConsole
	trace    *Trace
	snapshot func() Snapshot
}

func NewConsole(hw iohw.DebugConsole, trace *Trace, snapshot func() Snapshot) *Console {
	return &Console{hw: hw, trace: trace, snapshot: snapshot}
}

// Poll services at most one pending command. Safe to call once per control
// loop iteration.
func (c *Console) Poll() {
	if c.hw == nil {
		return
	}
	r, ok := c.hw.Poll()
	if !ok {
		return
	}
	switch r {
	case 't':
		for _, line := range c.trace.Dump() {
			c.hw.Print(line)
		}
	case 'c':
		c.trace.Clear()
	case 's':
		c.hw.Print(c.snapshot().String())
	}
}
