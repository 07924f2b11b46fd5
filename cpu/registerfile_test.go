package cpu

import (
	"testing"

	"github.com/araneavalon/cpu16/control"
)

func TestRegisterFileLoadAndData(t *testing.T) {
	r := NewRegisterFile()
	r.SetControl(control.Control{Register: control.RegisterFile{Load: control.R3}})
	r.Load(0x1234)

	r.SetControl(control.Control{Register: control.RegisterFile{Out: control.R3}})
	v, ok := r.Data()
	if !ok || v != 0x1234 {
		t.Errorf("Data() = %#04x,%v, want 0x1234,true", v, ok)
	}
	if got := r.Value(control.R3); got != 0x1234 {
		t.Errorf("Value(R3) = %#04x, want 0x1234", got)
	}
}

func TestRegisterFileNoneGatesLoadAndData(t *testing.T) {
	r := NewRegisterFile()
	r.SetControl(control.Control{Register: control.RegisterFile{Load: control.R0}})
	r.Load(0xFFFF)

	r.SetControl(control.Control{Register: control.RegisterFile{Load: control.RegNone, Out: control.RegNone}})
	r.Load(0x0001)
	if _, ok := r.Data(); ok {
		t.Errorf("Data() returned ok=true with Out=RegNone")
	}
	if got := r.Value(control.R0); got != 0xFFFF {
		t.Errorf("RegNone load overwrote R0: got %#04x, want 0xFFFF", got)
	}
}
