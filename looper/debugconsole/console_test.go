package debugconsole

import (
	"testing"

	"github.com/loopcore/stompbox/looper/timing"
	"github.com/stretchr/testify/assert"
)

type fakeHW struct {
	pending []rune
	printed []string
}

func (f *fakeHW) Poll() (rune, bool) {
	if len(f.pending) == 0 {
		return 0, false
	}
	r := f.pending[0]
	f.pending = f.pending[1:]
	return r, true
}

func (f *fakeHW) Print(s string) { f.printed = append(f.printed, s) }

func TestConsole_TDumpsTraceLines(t *testing.T) {
	tr := NewTrace(4)
	tr.Record(10, "capture start")
	hw := &fakeHW{pending: []rune{'t'}}
	c := NewConsole(hw, tr, func() Snapshot { return Snapshot{} })

	c.Poll()
	assert.Equal(t, []string{"[10] capture start"}, hw.printed)
}

func TestConsole_CClearsTrace(t *testing.T) {
	tr := NewTrace(4)
	tr.Record(10, "capture start")
	hw := &fakeHW{pending: []rune{'c'}}
	c := NewConsole(hw, tr, func() Snapshot { return Snapshot{} })

	c.Poll()
	assert.Empty(t, tr.Dump())
}

func TestConsole_SPrintsSnapshot(t *testing.T) {
	tr := NewTrace(4)
	hw := &fakeHW{pending: []rune{'s'}}
	snap := Snapshot{ButtonQueueDepth: 2, SamplesPerBeat: 22050, Transport: timing.Playing}
	c := NewConsole(hw, tr, func() Snapshot { return snap })

	c.Poll()
	assert.Equal(t, []string{snap.String()}, hw.printed)
}

func TestConsole_NoPendingCommandIsNoop(t *testing.T) {
	tr := NewTrace(4)
	hw := &fakeHW{}
	c := NewConsole(hw, tr, func() Snapshot { return Snapshot{} })
	assert.NotPanics(t, func() { c.Poll() })
	assert.Empty(t, hw.printed)
}
