package cpu

import "github.com/araneavalon/cpu16/control"

// ProgramCounter. Like StackPointers, Increment is applied immediately
// in SetControl; combined with control.Control.Previous carrying an
// increment request forward one half-cycle, this is what makes "PC
// advances between fetch and the next fetch" work without the
// ControlLogic having to special-case timing.
type ProgramCounter struct {
	base
	control control.Control
	value   uint16
}

func NewProgramCounter() *ProgramCounter { return &ProgramCounter{} }

func (p *ProgramCounter) Name() string { return "ProgramCounter" }

func (p *ProgramCounter) SetControl(c control.Control) {
	p.control = c
	if p.control.PC.Increment {
		p.value++
	}
}

func (p *ProgramCounter) Load(value uint16) {
	if p.control.PC.Load {
		p.value = value
	}
}

func (p *ProgramCounter) Data() (uint16, bool) {
	if p.control.PC.Out {
		return p.value, true
	}
	return 0, false
}

func (p *ProgramCounter) Address() (uint16, bool) {
	if p.control.Address == control.AddrProgramCounter {
		return p.value, true
	}
	return 0, false
}

// Link returns PC's current value, for LinkRegister.Link to capture.
func (p *ProgramCounter) Link() uint16 { return p.value }
