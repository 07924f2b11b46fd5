package cpu

import (
	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/instruction"
)

// ControlLogic is the state machine that decides which Control to
// emit each half-cycle: step through the current instruction's
// micro-op sequence, service a pending hardware interrupt once that
// sequence is exhausted, or fetch the next opcode if nothing else is
// pending. It owns the eight interrupt-pending bits directly, since
// "is line n asserted right now" is distinct from Flags, which only
// tracks whether line n is masked off.
//
// Fetching is two-phase because decoding an opcode into a full
// instruction Iter requires the opcode value itself, which is not
// known until the Fetch Control's bus transfer has actually run.
// Step emits the Fetch Control and leaves cur nil; Chip then runs
// that half-cycle, reads the loaded InstructionRegister value back
// out, and calls Decode with it before the next Step.
type ControlLogic struct {
	cur     *instruction.Iter
	pending [8]bool
	booted  bool
	prev    control.Control

	// needsTest marks that cur is a freshly installed instruction
	// sequence (Decode or Init) whose branch predicate has
	// not yet been checked against flags. A conditional instruction
	// (RET, RETs, JMl b, JMl (u), ...) is tested once, before its
	// first step runs; if the test fails the whole sequence is
	// dropped without executing any of it, exactly like the reference
	// _decode aborting to fetch() on a failed flags.test.
	needsTest bool

	interruptOp    uint16
	interruptArmed bool
}

func NewControlLogic() *ControlLogic { return &ControlLogic{} }

// Interrupt marks hardware line n as requesting service. Chip
// serializes calls to this with its own mutex before forwarding here.
func (cl *ControlLogic) Interrupt(n int) {
	if n >= 0 && n < len(cl.pending) {
		cl.pending[n] = true
	}
}

// next picks the lowest-numbered line that is both pending and
// admissible under the current flags, or -1 if none qualifies.
func (cl *ControlLogic) next(flags *FlagsRegister) int {
	for n := range cl.pending {
		if cl.pending[n] && flags.CanInterrupt(n) {
			return n
		}
	}
	return -1
}

// TakeInterruptOp returns the synthetic opcode (0x0400|(n<<3)) the
// most recent Step armed for interrupt service, if any, consuming it.
// Chip must install this into InstructionRegister before that Control
// executes: the INT entry's dataInterrupt projection reads the raw
// opcode back out of InstructionRegister, not out of this value
// directly, since it never travels over the bus.
func (cl *ControlLogic) TakeInterruptOp() (uint16, bool) {
	if !cl.interruptArmed {
		return 0, false
	}
	cl.interruptArmed = false
	return cl.interruptOp, true
}

// NeedsDecode reports whether the most recently emitted Control was a
// Fetch step awaiting Decode before the next Step call.
func (cl *ControlLogic) NeedsDecode() bool { return cl.booted && cl.cur == nil }

// Decode installs the instruction sequence for a freshly fetched
// opcode, ending the two-phase fetch Step started.
func (cl *ControlLogic) Decode(op uint16) error {
	it, err := instruction.Decode(op)
	if err != nil {
		return err
	}
	cl.cur = it
	cl.needsTest = true
	return nil
}

func (cl *ControlLogic) emit(c control.Control) control.Control {
	out := c.Previous(cl.prev)
	cl.prev = c
	return out
}

// Step produces the next Control word to drive the bus with.
func (cl *ControlLogic) Step(flags *FlagsRegister) (control.Control, error) {
	if !cl.booted {
		it, err := instruction.Init()
		if err != nil {
			return control.Control{}, err
		}
		cl.cur, cl.needsTest, cl.booted = it, true, true
	}

	if cl.cur != nil && cl.needsTest {
		cl.needsTest = false
		if pc, ok := cl.cur.PeekControl(); ok && !flags.Test(pc.Branch) {
			cl.cur = nil
		}
	}

	if cl.cur != nil && cl.cur.Peek() {
		c, _ := cl.cur.Next()
		return cl.emit(c), nil
	}

	if n := cl.next(flags); n >= 0 {
		cl.pending[n] = false
		op, it, err := instruction.Interrupt(n)
		if err != nil {
			return control.Control{}, err
		}
		cl.cur = it
		cl.interruptOp, cl.interruptArmed = op, true
		c, _ := cl.cur.Next()
		return cl.emit(c), nil
	}

	c, err := instruction.Fetch()
	if err != nil {
		return control.Control{}, err
	}
	cl.cur = nil
	return cl.emit(c), nil
}
