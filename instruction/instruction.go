// Package instruction holds the 23 instruction templates, the
// 512-entry opcode dispatch table, and the micro-op cursor
// (Iter) ControlLogic.Run steps through. Ported field-for-field from
// the reference implementation's control/instructions.rs.
package instruction

import (
	"fmt"

	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/microcode"
)

// step pairs a microcode table index with the control.Control it
// specialized to, so Iter's Debug/disassembly views can name which
// microcode entry produced each half-cycle.
type step struct {
	index   int
	control control.Control
}

// Iter is a stateful cursor over one instruction's decoded micro-op
// sequence, advanced one step per ControlLogic.Run call the way the
// teacher's cpu.Chip advances opTick one step per Tick.
type Iter struct {
	name  string
	op    uint16
	steps []step
	pos   int
}

// Next returns the next Control in sequence and true, or a zero
// Control and false once the sequence is exhausted.
func (it *Iter) Next() (control.Control, bool) {
	if it == nil || it.pos >= len(it.steps) {
		return control.Control{}, false
	}
	c := it.steps[it.pos].control
	it.pos++
	return c, true
}

// Peek reports whether another step remains without consuming it.
func (it *Iter) Peek() bool {
	return it != nil && it.pos < len(it.steps)
}

// PeekControl returns the next Control without consuming it, so
// ControlLogic can test a conditional instruction's branch predicate
// before committing to run any of its steps.
func (it *Iter) PeekControl() (control.Control, bool) {
	if it == nil || it.pos >= len(it.steps) {
		return control.Control{}, false
	}
	return it.steps[it.pos].control, true
}

// Name returns the resolved template/addressing-mode name (e.g. "LD
// r,(word)"), for the disassembler.
func (it *Iter) Name() string {
	if it == nil {
		return ""
	}
	return it.name
}

// String names the instruction and opcode for debug output, mirroring
// the reference's Debug impl for Iter.
func (it *Iter) String() string {
	if it == nil {
		return "Fetch()"
	}
	return fmt.Sprintf("Instruction(0x%04X => %s)", it.op, it.name)
}

func newIter(name string, op uint16, steps []step) *Iter {
	return &Iter{name: name, op: op, steps: steps}
}

// branchClass selects which bit(s) of the opcode indicate Link should
// be asserted for a Normal/Argument instruction's branch-decorated
// micro-steps.
type branchClass int

const (
	branchNone branchClass = iota
	branchNear
	branchFar
	branchInterrupt
)

func (b branchClass) mask() *uint16 {
	var v uint16
	switch b {
	case branchNone:
		return nil
	case branchNear:
		v = 0x0400
	case branchFar:
		v = 0x1000
	case branchInterrupt:
		v = 0x0000
	default:
		return nil
	}
	return &v
}

// decodeSteps runs a list of microcode indices through microcode.Decode
// with a shared branch mask, collecting (index, Control) steps.
func decodeSteps(indices []int, op uint16, branch branchClass) ([]step, error) {
	mask := branch.mask()
	out := make([]step, 0, len(indices))
	for _, idx := range indices {
		c, err := microcode.Decode(idx, op, mask)
		if err != nil {
			return nil, err
		}
		out = append(out, step{index: idx, control: c})
	}
	return out, nil
}

// template is the common interface all three instruction shapes
// implement: produce a fully decoded Iter for a concrete opcode.
type template interface {
	decode(op uint16) (*Iter, error)
}

// stackTemplate implements the PUT/POP register-mask instruction: one
// base microcode entry (decoded once), specialized per selected
// register/flag/PC-LR bit, with bit order and load-vs-out polarity
// chosen by the direction bit.
type stackTemplate struct {
	name string
	base int
}

func (t stackTemplate) decode(op uint16) (*Iter, error) {
	direction := op&0x0400 != 0
	registers := ((op & 0x0800) >> 2) | (op & 0x01FF)

	base, err := microcode.Decode(t.base, op, nil)
	if err != nil {
		return nil, err
	}

	var steps []step
	for cycle := uint(0); cycle < 10; cycle++ {
		bit := cycle
		if direction {
			bit = 9 - cycle
		}
		if registers&(1<<bit) == 0 {
			continue
		}
		c := base
		switch bit {
		case 0, 1, 2, 3, 4, 5, 6, 7:
			reg := control.Register(bit)
			if direction {
				c.Register.Load = reg
			} else {
				c.Register.Out = reg
			}
		case 8:
			if direction {
				c.Flags.Load = true
			} else {
				c.Flags.Out = true
			}
		case 9:
			if direction {
				c.PC.Load = true
			} else {
				c.LR.Out = true
			}
		}
		steps = append(steps, step{index: t.base, control: c})
	}
	return newIter(t.name, op, steps), nil
}

// normalTemplate implements a fixed microcode index list, optionally
// decorated with a branch class.
type normalTemplate struct {
	name      string
	branch    branchClass
	microcode []int
}

func (t normalTemplate) decode(op uint16) (*Iter, error) {
	steps, err := decodeSteps(t.microcode, op, t.branch)
	if err != nil {
		return nil, err
	}
	return newIter(t.name, op, steps), nil
}

// argumentModeTable maps the 4-bit addressing-mode sub-field to one of
// five addressing-mode microcode lists: r, (r), word, (word), (r+r).
var argumentModeTable = [16]int{
	0, 1, 0, 1, 2, 3, 2, 3,
	4, 4, 4, 4, 4, 4, 4, 4,
}

type argumentMode struct {
	name      string
	microcode []int
}

// argumentTemplate implements instructions whose addressing mode is
// chosen by opcode bits 6-9 (LD r,<mode>, ALU r,<mode>, JMl <mode>).
type argumentTemplate struct {
	branch    branchClass
	microcode [5]argumentMode
}

func (t argumentTemplate) decode(op uint16) (*Iter, error) {
	mode := argumentModeTable[(op&0x03C0)>>6]
	m := t.microcode[mode]
	steps, err := decodeSteps(m.microcode, op, t.branch)
	if err != nil {
		return nil, err
	}
	return newIter(m.name, op, steps), nil
}

// The 23 instruction templates, in DECODE_TABLE's index order.
var instructions = [23]template{
	argumentTemplate{branch: branchNone, microcode: [5]argumentMode{ // 0 LD r,a
		{"LD r,r", []int{1}},
		{"LD r,(r)", []int{2, 3}},
		{"LD r,word", []int{4}},
		{"LD r,(word)", []int{5, 3}},
		{"LD r,(r+r)", []int{6, 7, 8, 3}},
	}},
	normalTemplate{"LD r,b", branchNone, []int{9}},         // 1
	normalTemplate{"LD r,(u)", branchNone, []int{10, 11}},  // 2

	argumentTemplate{branch: branchNone, microcode: [5]argumentMode{ // 3 OP r,a
		{"OP r,r", []int{12, 13, 14}},
		{"OP r,(r)", []int{12, 2, 15, 14}},
		{"OP r,word", []int{12, 16, 14}},
		{"OP r,(word)", []int{12, 5, 15, 14}},
		{"OP r,(r+r)", []int{6, 7, 8, 12, 15, 14}},
	}},
	normalTemplate{"OP r,b", branchNone, []int{17, 18, 19}},     // 4
	normalTemplate{"OP r,(u)", branchNone, []int{17, 10, 20, 19}}, // 5

	argumentTemplate{branch: branchNear, microcode: [5]argumentMode{ // 6 JMl a
		{"JMl r", []int{21}},
		{"JMl (r)", []int{2, 22}},
		{"JMl word", []int{23}},
		{"JMl (word)", []int{5, 22}},
		{"JMl (r+r)", []int{6, 7, 8, 22}},
	}},
	normalTemplate{"JMl b", branchFar, []int{24, 25, 26}}, // 7
	normalTemplate{"JMl (u)", branchFar, []int{10, 22}},   // 8

	normalTemplate{"RET", branchNear, []int{27}},  // 9
	normalTemplate{"RETs", branchNear, []int{28}}, // 10

	stackTemplate{"PUT/POP", 29}, // 11

	normalTemplate{"SET F", branchNone, []int{30, 31, 32}}, // 12
	normalTemplate{"SET r", branchNone, []int{12, 31, 33}}, // 13
	normalTemplate{"TEST r", branchNone, []int{12, 34}},    // 14

	normalTemplate{"UOP r", branchNone, []int{12, 35}}, // 15

	normalTemplate{"LD x,r", branchNone, []int{36}},         // 16
	normalTemplate{"LD x,(r)", branchNone, []int{37, 38}},   // 17
	normalTemplate{"LD x,word", branchNone, []int{39}},      // 18
	normalTemplate{"LD x,(word)", branchNone, []int{5, 38}}, // 19
	normalTemplate{"LD x,(r+r)", branchNone, []int{40, 7, 8, 38}}, // 20

	normalTemplate{"INT i", branchInterrupt, []int{41, 42, 43}}, // 21
	normalTemplate{"NOP", branchNone, []int{43}},                // 22
}

// decodeTable is the 512-entry opcode dispatch table: index with
// op>>7 to find which of the 23 instruction templates handles an
// opcode.
var decodeTable = [512]int{
	22, 22, 22, 22, 22, 22, 22, 22, 21, 21, 21, 21, 21, 21, 21, 21,
	16, 17, 18, 19, 20, 20, 20, 20, 16, 17, 18, 19, 20, 20, 20, 20,
	11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11,
	11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11, 11,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	10, 10, 9, 9, 10, 10, 9, 9, 10, 10, 9, 9, 10, 10, 9, 9,
	10, 10, 9, 9, 10, 10, 9, 9, 10, 10, 9, 9, 10, 10, 9, 9,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	14, 14, 14, 14, 14, 14, 14, 14, 15, 15, 15, 15, 15, 15, 15, 15,
	13, 13, 13, 13, 13, 13, 13, 13, 12, 12, 12, 12, 12, 12, 12, 12,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
	5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8, 8,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
}

// Fetch returns the single-step Control that loads the next opcode
// into I and advances PC; ControlLogic runs this between every
// instruction.
func Fetch() (control.Control, error) {
	return microcode.Decode(0, 0x0000, nil)
}

// Init returns the two-step boot sequence that loads PC from the ROM
// reset vector at startup.
func Init() (*Iter, error) {
	return normalTemplate{"INIT", branchNone, []int{44, 45}}.decode(0x0000)
}

// Interrupt returns the synthetic opcode and decoded step sequence for
// servicing hardware interrupt n (n in [0,7]).
func Interrupt(n int) (uint16, *Iter, error) {
	op := uint16(0x0400 | (n << 3))
	it, err := instructions[21].decode(op)
	return op, it, err
}

// Decode dispatches op to its instruction template via decodeTable and
// returns the step sequence to execute.
func Decode(op uint16) (*Iter, error) {
	return instructions[decodeTable[op>>7]].decode(op)
}
