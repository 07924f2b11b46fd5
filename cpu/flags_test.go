package cpu

import (
	"testing"

	"github.com/araneavalon/cpu16/control"
)

func TestFlagsLoadAndData(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Flags: control.Bidirectional{Load: true}})
	f.Load(0x8001)

	f.SetControl(control.Control{Flags: control.Bidirectional{Out: true}})
	v, ok := f.Data()
	if !ok || v != 0x8001 {
		t.Errorf("Data() = %#04x,%v, want 0x8001,true", v, ok)
	}
}

func TestFlagsDataGatedByOut(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Flags: control.Bidirectional{Load: true}})
	f.Load(0xFFFF)
	f.SetControl(control.Control{})
	if _, ok := f.Data(); ok {
		t.Errorf("Data() returned ok=true without Flags.Out set")
	}
}

func TestFlagsSetALUGatedBySetFlags(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Alu: control.Alu{SetFlags: false}})
	f.SetALU(Flags{Zero: true, Sign: true, Carry: true, Overflow: true})
	if f.Test(control.Branch{Condition: control.CondZero}) {
		t.Errorf("Zero flag latched despite SetFlags being clear")
	}

	f.SetControl(control.Control{Alu: control.Alu{SetFlags: true}})
	f.SetALU(Flags{Zero: true, Carry: true})
	if !f.Test(control.Branch{Condition: control.CondZero}) {
		t.Errorf("Zero flag not latched with SetFlags set")
	}
	if f.Test(control.Branch{Condition: control.CondSign}) {
		t.Errorf("Sign flag should be clear")
	}
}

func TestFlagsTestNegation(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Alu: control.Alu{SetFlags: true}})
	f.SetALU(Flags{Zero: true})

	if !f.Test(control.Branch{Condition: control.CondZero}) {
		t.Errorf("Z. with Zero set should be true")
	}
	if f.Test(control.Branch{Condition: control.CondZero, Negate: true}) {
		t.Errorf("Z! with Zero set should be false")
	}
	if !f.Test(control.Branch{Condition: control.CondAlways}) {
		t.Errorf("unconditional branch should always be true")
	}
}

func TestFlagsCarryNotZeroCompound(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Alu: control.Alu{SetFlags: true}})

	f.SetALU(Flags{Carry: true, Zero: false})
	if !f.Test(control.Branch{Condition: control.CondCarryNotZero}) {
		t.Errorf("carry set, zero clear: CarryNotZero should be true")
	}

	f.SetALU(Flags{Carry: true, Zero: true})
	if f.Test(control.Branch{Condition: control.CondCarryNotZero}) {
		t.Errorf("carry set, zero set: CarryNotZero should be false")
	}
}

func TestFlagsCanInterrupt(t *testing.T) {
	f := NewFlagsRegister()
	f.SetControl(control.Control{Flags: control.Bidirectional{Load: true}})

	// Bit 15 (interrupt enable) set, all per-line masks clear.
	f.Load(1 << bitInterruptEnable)
	if !f.CanInterrupt(0) {
		t.Errorf("CanInterrupt(0) = false, want true (enabled, unmasked)")
	}

	// Mask line 3.
	f.Load((1 << bitInterruptEnable) | (1 << (bitInterruptZero + 3)))
	if f.CanInterrupt(3) {
		t.Errorf("CanInterrupt(3) = true, want false (masked)")
	}
	if !f.CanInterrupt(2) {
		t.Errorf("CanInterrupt(2) = false, want true (different line, unmasked)")
	}

	if f.CanInterrupt(8) || f.CanInterrupt(-1) {
		t.Errorf("CanInterrupt out of range should always be false")
	}
}
