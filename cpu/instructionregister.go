package cpu

import "github.com/araneavalon/cpu16/control"

// InstructionRegister holds the raw fetched opcode and projects one of
// five fixed-point views of it onto the data bus depending on
// Control.I.Mode — the mechanism every addressing mode's immediate
// operand is extracted through.
type InstructionRegister struct {
	base
	control control.Control
	value   uint16
}

func NewInstructionRegister() *InstructionRegister { return &InstructionRegister{} }

func (i *InstructionRegister) Name() string                { return "InstructionRegister" }
func (i *InstructionRegister) SetControl(c control.Control) { i.control = c }

func (i *InstructionRegister) Load(value uint16) {
	if i.control.I.Load {
		i.value = value
	}
}

// Get returns the raw opcode value, for ControlLogic to decode.
func (i *InstructionRegister) Get() uint16 { return i.value }

// Set overwrites the raw opcode directly, used by ControlLogic to
// install a synthetic interrupt-vector opcode without going through
// the bus.
func (i *InstructionRegister) Set(value uint16) { i.value = value }

func (i *InstructionRegister) Data() (uint16, bool) {
	switch i.control.I.Mode {
	case control.IModeSignedByte:
		return uint16(int16(int8((i.value >> 3) & 0x00FF))), true
	case control.IModeUnsignedByte:
		return (i.value >> 3) & 0x00FF, true
	case control.IModeBitmask:
		return 1 << ((i.value >> 3) & 0x000F), true
	case control.IModeInterrupt:
		return 0xFFF8 | ((i.value >> 3) & 0x0007), true
	case control.IModeStartup:
		return 0xFFFF, true
	default:
		return 0, false
	}
}
