package control

import "github.com/loopcore/stompbox/looper/timing"

// QuantState holds the global quantization selector, set by the quant
// encoder and read by every effect controller. CC-only, single goroutine:
// a plain field suffices.
type QuantState struct {
	selector timing.QuantSelector
}

func NewQuantState() *QuantState {
	return &QuantState{selector: timing.DefaultQuant}
}

func (q *QuantState) Selector() timing.QuantSelector { return q.selector }
func (q *QuantState) SetSelector(s timing.QuantSelector) { q.selector = s }
