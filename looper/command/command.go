// Package command defines the wire format for messages that cross from the
// control side's input collaborators (buttons, encoders) into the command
// plane, and from there into the effect controllers.
package command

import "encoding/binary"

// Kind is the operation a Command requests.
type Kind uint8

const (
	KindNone Kind = iota
	KindToggle
	KindEnable
	KindDisable
	KindSetParam
	KindPress
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindToggle:
		return "toggle"
	case KindEnable:
		return "enable"
	case KindDisable:
		return "disable"
	case KindSetParam:
		return "set_param"
	case KindPress:
		return "press"
	case KindRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Target identifies which effect (or the FUNC modifier) a Command addresses.
type Target uint8

const (
	TargetNone Target = iota
	TargetStutter
	TargetFreeze
	TargetChoke
	TargetFunc
)

func (t Target) String() string {
	switch t {
	case TargetNone:
		return "none"
	case TargetStutter:
		return "stutter"
	case TargetFreeze:
		return "freeze"
	case TargetChoke:
		return "choke"
	case TargetFunc:
		return "func"
	default:
		return "unknown"
	}
}

// Param identifies which parameter a SET_PARAM command touches. Only
// meaningful when Kind is KindSetParam.
type Param uint8

const (
	ParamNone Param = iota
	ParamOnsetMode
	ParamLengthMode
	ParamCaptureStartMode
	ParamCaptureEndMode
	ParamQuantSelector
)

// Command is the 8-byte POD passed across the SPSC queue from input
// collaborators to the command plane. It is trivially copyable by design: no
// pointers, no hidden state, safe to pass by value across contexts.
type Command struct {
	Kind   Kind
	Target Target
	Param1 Param
	Param2 uint8 // reserved
	Value  uint32
}

// Encode packs a Command into its 8-byte wire representation.
func Encode(c Command) [8]byte {
	var buf [8]byte
	buf[0] = byte(c.Kind)
	buf[1] = byte(c.Target)
	buf[2] = byte(c.Param1)
	buf[3] = c.Param2
	binary.LittleEndian.PutUint32(buf[4:8], c.Value)
	return buf
}

// Decode unpacks a Command from its 8-byte wire representation.
func Decode(buf [8]byte) Command {
	return Command{
		Kind:   Kind(buf[0]),
		Target: Target(buf[1]),
		Param1: Param(buf[2]),
		Param2: buf[3],
		Value:  binary.LittleEndian.Uint32(buf[4:8]),
	}
}
