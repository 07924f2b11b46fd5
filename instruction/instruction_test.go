package instruction

import (
	"testing"

	"github.com/araneavalon/cpu16/control"
)

// TestDecodeDispatchesTemplateNames pins decodeTable's opcode-to-template
// routing for one representative opcode per addressing mode/family,
// grounded directly on the literal decodeTable rows in instruction.go
// (each row is checked against the instructions[] entry it names).
func TestDecodeDispatchesTemplateNames(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		want string
	}{
		{"nop", 0x0000, "NOP"},
		{"halt", 0x0080, "NOP"},
		{"interrupt", 0x0400, "INT i"},
		{"ld x,r", 0x0800, "LD x,r"},
		{"ld x,(r)", 0x0880, "LD x,(r)"},
		{"ld x,word", 0x0900, "LD x,word"},
		{"ld x,(word)", 0x0980, "LD x,(word)"},
		{"ld x,(r+r)", 0x0A00, "LD x,(r+r)"},
		{"put/pop", 0x1000, "PUT/POP"},
		{"test r", 0x6000, "TEST r"},
		{"set r", 0x6800, "SET r"},
		{"set f", 0x6C00, "SET F"},
		{"uop r", 0x6400, "UOP r"},
		{"ld r,(u)", 0x7000, "LD r,(u)"},
		{"op r,r", 0x2000, "OP r,r"},
		{"op r,(r)", 0x2040, "OP r,(r)"},
		{"op r,word", 0x2100, "OP r,word"},
		{"op r,(word)", 0x2140, "OP r,(word)"},
		{"op r,(r+r)", 0x2200, "OP r,(r+r)"},
		{"ret via s0", 0x4000, "RETs"},
		{"ret", 0x4100, "RET"},
		{"jmp r", 0x5000, "JMl r"},
		{"jmp (r)", 0x5040, "JMl (r)"},
		{"jmp word", 0x5100, "JMl word"},
		{"jmp (word)", 0x5140, "JMl (word)"},
		{"jmp (r+r)", 0x5200, "JMl (r+r)"},
		{"jmp (u)", 0xA000, "JMl (u)"},
		{"op r,(u)", 0x9000, "OP r,(u)"},
		{"ld r,r", 0x9800, "LD r,r"},
		{"ld r,(r)", 0x9840, "LD r,(r)"},
		{"ld r,word", 0x9900, "LD r,word"},
		{"ld r,(word)", 0x9940, "LD r,(word)"},
		{"ld r,(r+r)", 0x9A00, "LD r,(r+r)"},
		{"op r,b", 0xC000, "OP r,b"},
		{"ld r,b", 0xD800, "LD r,b"},
		{"jmp b", 0xE000, "JMl b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := Decode(tt.op)
			if err != nil {
				t.Fatalf("Decode(0x%04X) error: %v", tt.op, err)
			}
			if got := it.Name(); got != tt.want {
				t.Errorf("Decode(0x%04X).Name() = %q, want %q", tt.op, got, tt.want)
			}
		})
	}
}

// TestIterAdvancesThenExhausts walks a known multi-step sequence (OP
// r,b has three microcode steps) and confirms Next()/Peek() track
// position correctly, then report exhaustion rather than panicking or
// looping forever.
func TestIterAdvancesThenExhausts(t *testing.T) {
	it, err := Decode(0xC000) // OP r,b
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	count := 0
	for it.Peek() {
		if _, ok := it.Next(); !ok {
			t.Fatalf("Next() returned false while Peek() reported true")
		}
		count++
		if count > 10 {
			t.Fatalf("Iter never exhausted")
		}
	}
	if count == 0 {
		t.Fatalf("expected at least one microcode step")
	}
	if _, ok := it.Next(); ok {
		t.Errorf("Next() after exhaustion returned ok=true, want false")
	}
	if it.Peek() {
		t.Errorf("Peek() after exhaustion returned true, want false")
	}
}

// TestNilIterIsSafe mirrors the teacher's nil-Iter-is-a-no-op
// convention (a *Chip with no instruction in flight still calls
// Iter.Peek/Next/Name safely via a nil receiver).
func TestNilIterIsSafe(t *testing.T) {
	var it *Iter
	if it.Peek() {
		t.Errorf("nil Iter.Peek() = true, want false")
	}
	if _, ok := it.Next(); ok {
		t.Errorf("nil Iter.Next() ok = true, want false")
	}
	if _, ok := it.PeekControl(); ok {
		t.Errorf("nil Iter.PeekControl() ok = true, want false")
	}
	if got := it.Name(); got != "" {
		t.Errorf("nil Iter.Name() = %q, want empty", got)
	}
	if got := it.String(); got != "Fetch()" {
		t.Errorf("nil Iter.String() = %q, want %q", got, "Fetch()")
	}
}

// TestFetchLoadsInstructionRegister pins Fetch's Control against the
// FETCH microcode entry (addrProgramCounter, memory out, I load,
// pcIncrement).
func TestFetchLoadsInstructionRegister(t *testing.T) {
	c, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if c.Address != control.AddrProgramCounter {
		t.Errorf("Address = %v, want AddrProgramCounter", c.Address)
	}
	if !c.Memory.Out {
		t.Errorf("Memory.Out = false, want true")
	}
	if !c.I.Load {
		t.Errorf("I.Load = false, want true")
	}
	if !c.PC.Increment {
		t.Errorf("PC.Increment = false, want true")
	}
}

// TestInitBuildsTwoStepBootSequence pins Init's step count and its
// second microcode step's effect (microcode.Table's "INIT" entry at
// index 44 loads A from the Startup projection 0xFFFF, then the entry
// at index 45 reads memory at address A straight into PC).
func TestInitBuildsTwoStepBootSequence(t *testing.T) {
	it, err := Init()
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	var steps []control.Control
	for it.Peek() {
		c, ok := it.Next()
		if !ok {
			t.Fatalf("Next() returned false while Peek() reported true")
		}
		steps = append(steps, c)
	}
	if len(steps) != 2 {
		t.Fatalf("Init produced %d steps, want 2", len(steps))
	}
	if !steps[1].PC.Load {
		t.Errorf("second Init step PC.Load = false, want true")
	}
	if steps[1].Address != control.AddrA {
		t.Errorf("second Init step Address = %v, want AddrA", steps[1].Address)
	}
}

// TestInterruptBuildsInterruptVectorOpcode pins Interrupt's synthetic
// opcode (line n packed into bits 3-5 with the interrupt bit 0x0400
// set) and the returned Iter's template name, "INT i".
func TestInterruptBuildsInterruptVectorOpcode(t *testing.T) {
	for n := 0; n < 8; n++ {
		op, it, err := Interrupt(n)
		if err != nil {
			t.Fatalf("Interrupt(%d) error: %v", n, err)
		}
		want := uint16(0x0400 | (n << 3))
		if op != want {
			t.Errorf("Interrupt(%d) op = 0x%04X, want 0x%04X", n, op, want)
		}
		if it.Name() != "INT i" {
			t.Errorf("Interrupt(%d) template = %q, want %q", n, it.Name(), "INT i")
		}
	}
}

// TestArgumentTemplateModePriority walks every value of the 4-bit
// addressing-mode field through an argumentTemplate-backed opcode (OP
// r,a) and confirms argumentModeTable's collapsing to 5 names holds:
// values 0/2 -> register, 1/3 -> indirect, 4/6 -> word, 5/7 ->
// (word), 8-15 -> (r+r).
func TestArgumentTemplateModePriority(t *testing.T) {
	want := []string{
		"OP r,r", "OP r,(r)", "OP r,r", "OP r,(r)",
		"OP r,word", "OP r,(word)", "OP r,word", "OP r,(word)",
		"OP r,(r+r)", "OP r,(r+r)", "OP r,(r+r)", "OP r,(r+r)",
		"OP r,(r+r)", "OP r,(r+r)", "OP r,(r+r)", "OP r,(r+r)",
	}
	for field := 0; field < 16; field++ {
		op := uint16(0x2000) | uint16(field)<<6
		it, err := Decode(op)
		if err != nil {
			t.Fatalf("Decode(0x%04X) error: %v", op, err)
		}
		if got := it.Name(); got != want[field] {
			t.Errorf("field %d: Decode(0x%04X).Name() = %q, want %q", field, op, got, want[field])
		}
	}
}

// TestStackTemplateOrdersPushesByBitIndex confirms PUT walks bit 0
// upward (ascending register index first) while POP walks bit 9
// downward, matching disassembleStack's own bit-order assumption and
// spec.md's push/pop ordering requirement.
func TestStackTemplateOrdersPushesByBitIndex(t *testing.T) {
	// bits 2 (R2) and 5 (R5) set, neither the Register zero value, so a
	// match here can't be a false positive from an unset field. PUT
	// (direction clear) must visit R2 before R5.
	put := uint16(0x1000 | 0x0004 | 0x0020)
	it, err := Decode(put)
	if err != nil {
		t.Fatalf("Decode(PUT) error: %v", err)
	}
	first, ok := it.Next()
	if !ok {
		t.Fatalf("expected at least one PUT step")
	}
	if first.Register.Out != control.R2 {
		t.Errorf("first PUT step Register.Out = %v, want R2", first.Register.Out)
	}

	// POP (direction bit set) over the same register mask must visit
	// R5 before R2.
	pop := uint16(0x1000 | 0x0400 | 0x0004 | 0x0020)
	it2, err := Decode(pop)
	if err != nil {
		t.Fatalf("Decode(POP) error: %v", err)
	}
	firstPop, ok := it2.Next()
	if !ok {
		t.Fatalf("expected at least one POP step")
	}
	if firstPop.Register.Load != control.R5 {
		t.Errorf("first POP step Register.Load = %v, want R5", firstPop.Register.Load)
	}
}

// TestDecodeNeverPanicsAcrossFullOpcodeSpace is a coarse sweep for
// panics/infinite loops across decodeTable's full domain; correctness
// of individual opcodes is covered by the targeted tests above and by
// the assemble/disassemble/functionality packages' round-trip tests.
func TestDecodeNeverPanicsAcrossFullOpcodeSpace(t *testing.T) {
	for op := 0; op < 0x10000; op += 7 {
		it, err := Decode(uint16(op))
		if err != nil {
			continue
		}
		for i := 0; i < 16 && it.Peek(); i++ {
			if _, ok := it.Next(); !ok {
				t.Fatalf("op 0x%04X: Next() false while Peek() true", op)
			}
		}
	}
}
