package cpu

import "github.com/araneavalon/cpu16/control"

// LinkRegister. Link is not a bus transfer at all — it's a direct
// capture of ProgramCounter's value, gated by Control.Link, called by
// Chip once per half-cycle alongside the normal bus arbitration.
type LinkRegister struct {
	base
	control control.Control
	value   uint16
}

func NewLinkRegister() *LinkRegister { return &LinkRegister{} }

func (l *LinkRegister) Name() string { return "LinkRegister" }

func (l *LinkRegister) SetControl(c control.Control) {
	l.control = c
	if l.control.LR.Increment {
		l.value++
	}
}

func (l *LinkRegister) Load(value uint16) {
	if l.control.LR.Load {
		l.value = value
	}
}

func (l *LinkRegister) Data() (uint16, bool) {
	if l.control.LR.Out {
		return l.value, true
	}
	return 0, false
}

// Link captures value (ProgramCounter's current value) iff Control.Link
// is asserted this half-cycle.
func (l *LinkRegister) Link(value uint16) {
	if l.control.Link {
		l.value = value
	}
}
