package cpu

import "github.com/araneavalon/cpu16/control"

// Flags bit positions within the 16-bit flags word: 0-3 are the ALU
// result flags, 8-14 are per-interrupt-line masks (set means that
// line is currently disabled), 15 is the master interrupt enable.
const (
	bitZero = iota
	bitSign
	bitCarry
	bitOverflow
)

const bitInterruptZero = 8
const bitInterruptEnable = 15

// FlagsRegister is the Flags bus component: a 16-bit value readable
// and writable as a whole over the data bus, plus two side channels
// no other component uses the bus for — SetALU (latches the ALU's
// four result flags when Alu.SetFlags is asserted) and Test
// (evaluates a branch condition without touching the bus at all).
type FlagsRegister struct {
	base
	control control.Control
	bits    [16]bool
}

func NewFlagsRegister() *FlagsRegister { return &FlagsRegister{} }

func (f *FlagsRegister) Name() string                 { return "FlagsRegister" }
func (f *FlagsRegister) SetControl(c control.Control)  { f.control = c }

func (f *FlagsRegister) Load(value uint16) {
	if !f.control.Flags.Load {
		return
	}
	for i := 0; i < 16; i++ {
		f.bits[i] = (value>>uint(i))&1 != 0
	}
}

func (f *FlagsRegister) Data() (uint16, bool) {
	if !f.control.Flags.Out {
		return 0, false
	}
	return f.value(), true
}

func (f *FlagsRegister) value() uint16 {
	var v uint16
	for i := 0; i < 16; i++ {
		if f.bits[i] {
			v |= 1 << uint(i)
		}
	}
	return v
}

// SetALU latches the ALU's four result flags, but only when the
// current Control says this cycle's ALU operation should set flags.
func (f *FlagsRegister) SetALU(alu Flags) {
	if !f.control.Alu.SetFlags {
		return
	}
	f.bits[bitZero] = alu.Zero
	f.bits[bitSign] = alu.Sign
	f.bits[bitCarry] = alu.Carry
	f.bits[bitOverflow] = alu.Overflow
}

// Test evaluates a branch condition against the current flags.
func (f *FlagsRegister) Test(b control.Branch) bool {
	var pred bool
	switch b.Condition {
	case control.CondAlways:
		pred = true
	case control.CondZero:
		pred = f.bits[bitZero]
	case control.CondSign:
		pred = f.bits[bitSign]
	case control.CondCarry:
		pred = f.bits[bitCarry]
	case control.CondCarryNotZero:
		pred = f.bits[bitCarry] && !f.bits[bitZero]
	case control.CondOverflow:
		pred = f.bits[bitOverflow]
	case control.CondOverflowNotZero:
		pred = f.bits[bitOverflow] && !f.bits[bitZero]
	}
	return b.Negate != pred
}

// CanInterrupt reports whether hardware interrupt n is both globally
// enabled (IE set) and not individually masked (its In bit clear).
func (f *FlagsRegister) CanInterrupt(n int) bool {
	if n < 0 || n > 7 {
		return false
	}
	return f.bits[bitInterruptEnable] && !f.bits[bitInterruptZero+n]
}
