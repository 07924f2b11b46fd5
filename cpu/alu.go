package cpu

import "github.com/araneavalon/cpu16/control"

// ALU is the arithmetic/logic unit. It holds two input latches (T0,
// T1) loaded over prior half-cycles and computes a result plus four
// flag bits fresh every time it's asked, rather than caching a result
// — Data and GetFlags both call calculate(), matching the reference
// Alu::calculate() being re-run on every read.
type ALU struct {
	base
	control control.Control
	t       [2]uint16
}

func NewALU() *ALU { return &ALU{} }

func (a *ALU) Name() string                      { return "Alu" }
func (a *ALU) SetControl(c control.Control)      { a.control = c }

func (a *ALU) Load(value uint16) {
	for i := 0; i < 2; i++ {
		if a.control.Alu.T[i].Load {
			a.t[i] = value
		}
	}
}

func (a *ALU) Data() (uint16, bool) {
	if !a.control.Alu.Out {
		return 0, false
	}
	v, _ := a.calculate()
	return v, true
}

// Flags is the four-bit {Z,S,C,V} result of the current ALU
// configuration, read by Flags.SetALU when Alu.SetFlags is asserted.
type Flags struct {
	Zero, Sign, Carry, Overflow bool
}

// GetFlags returns the flag bits the current T0/T1/mode would produce,
// without regard to whether SetFlags is asserted.
func (a *ALU) GetFlags() Flags {
	_, f := a.calculate()
	return f
}

func (a *ALU) calculate() (uint16, Flags) {
	switch a.control.Alu.Mode {
	case control.AluShift:
		return a.shift()
	case control.AluAdd:
		return a.binary(func(t0, t1, c int32) int32 { return t0 + t1 + c })
	case control.AluAnd:
		return a.binary(func(t0, t1, c int32) int32 { return t0 & t1 })
	case control.AluOr:
		return a.binary(func(t0, t1, c int32) int32 { return t0 | t1 })
	case control.AluXor:
		return a.binary(func(t0, t1, c int32) int32 { return t0 ^ t1 })
	default:
		return 0, Flags{}
	}
}

func (a *ALU) shift() (uint16, Flags) {
	var value uint16
	var carry bool
	switch {
	case a.control.Alu.Direction:
		value = a.t[1] << 1
		carry = a.t[1]&0x8000 != 0
	case a.control.Alu.Extend:
		value = uint16(int16(a.t[1]) >> 1)
		carry = a.t[1]&0x0001 != 0
	default:
		value = a.t[1] >> 1
		carry = a.t[1]&0x0001 != 0
	}
	return value, Flags{
		Zero:  value == 0,
		Sign:  int16(value) < 0,
		Carry: carry,
	}
}

// binary computes the additive-family result. Note the overflow
// formula is applied identically whether mode is Add or a bitwise
// op (And/Or/Xor) — this mirrors the reference Alu::binary exactly,
// which runs the same carry/overflow arithmetic for every binary
// function regardless of whether it's actually additive. See
// DESIGN.md's Open Question #1: kept as-is, not "fixed."
func (a *ALU) binary(fn func(t0, t1, c int32) int32) (uint16, Flags) {
	invert := a.control.Alu.CarryInvert

	t0 := int32(a.t[0])
	if a.control.Alu.T0Zero {
		t0 = 0
	}
	t1 := int32(a.t[1])
	if a.control.Alu.T1Invert {
		t1 = int32(uint16(^a.t[1]))
	}
	var c int32
	if invert {
		c = 1
	}

	value := fn(t0, t1, c)
	carry := invert != (value > 0xFFFF)
	overflow := (invert != (value > 0x7FFF)) || (value < -0x8000)

	return uint16(value), Flags{
		Zero:     value&0x0000FFFF == 0,
		Sign:     value&0x00008000 != 0,
		Carry:    carry,
		Overflow: overflow,
	}
}
