package cpu

import "github.com/araneavalon/cpu16/control"

// StackPointers holds S0 and S1. Crucially, the count/direction
// mutation happens immediately inside SetControl, before Address or
// Data is read for the same half-cycle — this is what makes a push's
// pre-decrement and a pop's post-increment fall out of one rule
// instead of two separate ones.
type StackPointers struct {
	base
	control control.Control
	values  [2]uint16
}

func NewStackPointers() *StackPointers { return &StackPointers{} }

func (s *StackPointers) Name() string { return "StackPointers" }

func (s *StackPointers) SetControl(c control.Control) {
	s.control = c
	for i := 0; i < 2; i++ {
		if !s.control.S[i].Count {
			continue
		}
		if s.control.S[i].Direction {
			s.values[i]++
		} else {
			s.values[i]--
		}
	}
}

func (s *StackPointers) Load(value uint16) {
	for i := 0; i < 2; i++ {
		if s.control.S[i].Load {
			s.values[i] = value
		}
	}
}

func (s *StackPointers) Data() (uint16, bool) {
	for i := 0; i < 2; i++ {
		if s.control.S[i].Out {
			return s.values[i], true
		}
	}
	return 0, false
}

func (s *StackPointers) Address() (uint16, bool) {
	switch s.control.Address {
	case control.AddrStackZero:
		return s.values[0], true
	case control.AddrStackOne:
		return s.values[1], true
	default:
		return 0, false
	}
}

// Value peeks S0 (n=0) or S1 (n=1) without going through the bus, for
// debug dumps.
func (s *StackPointers) Value(n int) uint16 {
	if n < 0 || n >= len(s.values) {
		return 0
	}
	return s.values[n]
}
