package cpu

import (
	"testing"

	"github.com/araneavalon/cpu16/control"
)

func setupALU(mode control.AluMode, t0, t1 uint16, t0Zero, t1Invert, carryInvert bool) *ALU {
	a := NewALU()
	a.SetControl(control.Control{
		Alu: control.Alu{
			Mode:        mode,
			T:           [2]control.LoadRegister{{Load: true}, {}},
			T0Zero:      t0Zero,
			T1Invert:    t1Invert,
			CarryInvert: carryInvert,
		},
	})
	a.Load(t0)
	a.control.Alu.T = [2]control.LoadRegister{{}, {Load: true}}
	a.Load(t1)
	return a
}

func TestALUAdd(t *testing.T) {
	a := setupALU(control.AluAdd, 5, 3, false, false, false)
	flags := a.GetFlags()
	v, _ := a.calculate()
	if v != 8 {
		t.Errorf("5+3 = %d, want 8", v)
	}
	if flags.Zero || flags.Sign || flags.Carry || flags.Overflow {
		t.Errorf("5+3 flags = %+v, want all clear", flags)
	}
}

func TestALUAddSignedOverflow(t *testing.T) {
	// Both operands are positive as signed 16-bit values (20000 <
	// 0x8000), but their sum (40000) exceeds i16::MAX — a textbook
	// signed-addition overflow.
	a := setupALU(control.AluAdd, 20000, 20000, false, false, false)
	v, flags := a.calculate()
	if v != 40000 {
		t.Errorf("20000+20000 truncated = %d, want 40000", v)
	}
	if !flags.Overflow {
		t.Errorf("20000+20000 flags = %+v, want Overflow set", flags)
	}
}

func TestALUAndZeroFlag(t *testing.T) {
	a := setupALU(control.AluAnd, 0x00FF, 0xFF00, false, false, false)
	v, flags := a.calculate()
	if v != 0 {
		t.Errorf("0x00FF & 0xFF00 = %#x, want 0", v)
	}
	if !flags.Zero {
		t.Errorf("0x00FF & 0xFF00 flags = %+v, want Zero set", flags)
	}
}

func TestALUShiftLeftCarry(t *testing.T) {
	a := NewALU()
	a.SetControl(control.Control{
		Alu: control.Alu{
			Mode:      control.AluShift,
			T:         [2]control.LoadRegister{{}, {Load: true}},
			Direction: true,
		},
	})
	a.Load(0x8001)
	v, flags := a.calculate()
	if v != 0x0002 {
		t.Errorf("0x8001<<1 = %#04x, want 0x0002", v)
	}
	if !flags.Carry {
		t.Errorf("0x8001<<1 flags = %+v, want Carry set", flags)
	}
}

func TestALUShiftRightArithmeticSignExtends(t *testing.T) {
	a := NewALU()
	a.SetControl(control.Control{
		Alu: control.Alu{
			Mode:   control.AluShift,
			T:      [2]control.LoadRegister{{}, {Load: true}},
			Extend: true,
		},
	})
	a.Load(0xFFFE)
	v, _ := a.calculate()
	if int16(v) != -1 {
		t.Errorf("-2 asr 1 = %d, want -1", int16(v))
	}
}

func TestALUDataGatedByOut(t *testing.T) {
	a := setupALU(control.AluAdd, 1, 1, false, false, false)
	if _, ok := a.Data(); ok {
		t.Errorf("Data() returned ok=true without Alu.Out set")
	}
	a.control.Alu.Out = true
	v, ok := a.Data()
	if !ok || v != 2 {
		t.Errorf("Data() = %d,%v, want 2,true", v, ok)
	}
}
