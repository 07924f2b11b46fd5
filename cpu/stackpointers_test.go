package cpu

import (
	"testing"

	"github.com/araneavalon/cpu16/control"
)

func TestStackPointersCountAppliesImmediately(t *testing.T) {
	s := NewStackPointers()
	s.SetControl(control.Control{S: [2]control.StackRegister{{Load: true}, {}}})
	s.Load(0x0010)

	// Push: direction=false decrements S0 before the address is read
	// this same half-cycle.
	s.SetControl(control.Control{S: [2]control.StackRegister{{Count: true, Direction: false}, {}}, Address: control.AddrStackZero})
	addr, ok := s.Address()
	if !ok || addr != 0x000F {
		t.Errorf("push pre-decrement address = %#04x,%v, want 0x000F,true", addr, ok)
	}

	// Pop: direction=true increments S0 immediately too.
	s.SetControl(control.Control{S: [2]control.StackRegister{{Count: true, Direction: true}, {}}, Address: control.AddrStackZero})
	addr, _ = s.Address()
	if addr != 0x0010 {
		t.Errorf("pop post-increment address = %#04x, want 0x0010", addr)
	}
}

func TestStackPointersWrapAround(t *testing.T) {
	s := NewStackPointers()
	s.SetControl(control.Control{S: [2]control.StackRegister{{}, {Count: true, Direction: false}}})
	if got := s.values[1]; got != 0xFFFF {
		t.Errorf("decrement from 0 = %#04x, want 0xFFFF (wraps)", got)
	}
}

func TestStackPointersAddressNoneDrivesNothing(t *testing.T) {
	s := NewStackPointers()
	s.SetControl(control.Control{S: [2]control.StackRegister{{Load: true}, {Load: true}}})
	s.Load(0x1000) // loads both S0 and S1 in this contrived control

	s.SetControl(control.Control{Address: control.AddrNone})
	if _, ok := s.Address(); ok {
		t.Errorf("Address() returned ok=true for AddrNone")
	}
}
