package disassemble

import "testing"

type fakeMem map[uint16]uint16

func (m fakeMem) Peek(addr uint16) uint16 { return m[addr] }

func TestStepSimpleForms(t *testing.T) {
	tests := []struct {
		name string
		mem  fakeMem
		want string
		len  int
	}{
		{"nop", fakeMem{0: 0x0000}, "NOP", 1},
		{"halt", fakeMem{0: 0x0080}, "HLT", 1},
		{"unary not", fakeMem{0: 0x6400}, "NOT A", 1},
		{"interrupt", fakeMem{0: 0x0400 | (3 << 3)}, "INT 3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Step(0, tt.mem)
			if got != tt.want || n != tt.len {
				t.Errorf("Step(0,...) = %q,%d want %q,%d", got, n, tt.want, tt.len)
			}
		})
	}
}

// TestStepPrefixesConditionBeforeMnemonic pins condition(op) as a
// prefix token (matching parser.go's conditionTokens grammar, which
// only ever reads a condition before JMP/JML/RET/RTL, never after)
// and its bit 5/6 assignment against microcode/microcode.go's decode
// switch: 5 is CarryNotZero, 6 is Overflow. The byte-immediate jump
// forms decode from the 0xE000 "JMl b" row (link bit 0x1000); "JMl
// r"/(r)/word/(word)/(r+r) share the 0x5000 argument-mode row instead
// (link bit 0x0400).
func TestStepPrefixesConditionBeforeMnemonic(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
		want string
	}{
		{"unconditional jump", 0xE000 | (5 << 3) | 0, "JMP 5"},
		{"zero", 0xE000 | (5 << 3) | 2, "Z.JMP 5"},
		{"zero negated", 0xE000 | (5 << 3) | 2 | 0x0800, "Z!JMP 5"},
		{"carry-not-zero", 0xE000 | (5 << 3) | 5, ">JMP 5"},
		{"overflow", 0xE000 | (5 << 3) | 6, "V.JMP 5"},
		{"linked overflow", 0xE000 | 0x1000 | (5 << 3) | 6, "V.JML 5"},
		{"jump to register", 0x5000 | (5 << 3), "JMP X"},
		{"linked jump to register", 0x5000 | 0x0400 | (5 << 3), "JML X"},
		{"plain return", 0x4100, "RET"},
		{"conditional return", 0x4100 | 2, "Z.RET"},
		{"return via S0", 0x4000, "RETs"},
		{"return via S1", 0x4000 | 0x0200, "RETd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Step(0, fakeMem{0: tt.op})
			if got != tt.want {
				t.Errorf("Step(0x%04X) = %q, want %q", tt.op, got, tt.want)
			}
		})
	}
}

// TestStepRendersAluAddressingModes pins the addressing-mode dispatch
// for "OP r,a": the raw 4-bit mode field's bit9/bit8/bit6 priority,
// not its numeric value, selects (r+r)/word/(word)/(r)/r,r, mirroring
// instruction.go's argumentModeTable.
func TestStepRendersAluAddressingModes(t *testing.T) {
	tests := []struct {
		name string
		mem  fakeMem
		want string
		len  int
	}{
		{"register", fakeMem{0: 0x2000 | (1 << 3)}, "ADD A,B", 1},
		{"indirect", fakeMem{0: 0x2000 | 0x0040 | (1 << 3)}, "ADD A,(B)", 1},
		{"word", fakeMem{0: 0x2000 | 0x0100, 1: 1234}, "ADD A,0x04D2", 2},
		{"parenword", fakeMem{0: 0x2000 | 0x0140, 1: 1234}, "ADD A,(0x04D2)", 2},
		{"indexed", fakeMem{0: 0x2000 | 0x0200 | (1 << 3) | (2 << 6)}, "ADD A,(B+C)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Step(0, tt.mem)
			if got != tt.want || n != tt.len {
				t.Errorf("Step(0,...) = %q,%d want %q,%d", got, n, tt.want, tt.len)
			}
		})
	}
}

// TestStepRendersLoadStoreDirection pins the direction bit (0x0400)
// that distinguishes "LD r,(addr)" (load) from "LD (addr),r" (store)
// for the three addressing modes that can go either way.
func TestStepRendersLoadStoreDirection(t *testing.T) {
	tests := []struct {
		name string
		mem  fakeMem
		want string
		len  int
	}{
		{"indirect load", fakeMem{0: 0x9800 | 0x0400 | 0x0040 | (1 << 3)}, "LD A,(B)", 1},
		{"indirect store", fakeMem{0: 0x9800 | 0x0040 | (1 << 3)}, "LD (B),A", 1},
		{"(word) load", fakeMem{0: 0x9800 | 0x0400 | 0x0140, 1: 0x1234}, "LD A,(0x1234)", 2},
		{"(word) store", fakeMem{0: 0x9800 | 0x0140, 1: 0x1234}, "LD (0x1234),A", 2},
		{"indexed load", fakeMem{0: 0x9800 | 0x0400 | 0x0200 | (1 << 3) | (2 << 6)}, "LD A,(B+C)", 1},
		{"indexed store", fakeMem{0: 0x9800 | 0x0200 | (1 << 3) | (2 << 6)}, "LD (B+C),A", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Step(0, tt.mem)
			if got != tt.want || n != tt.len {
				t.Errorf("Step(0,...) = %q,%d want %q,%d", got, n, tt.want, tt.len)
			}
		})
	}
}

func TestStepNeverPanicsOnArbitraryWords(t *testing.T) {
	for op := 0; op < 0x10000; op += 0x0101 {
		mem := fakeMem{0: uint16(op)}
		got, n := Step(0, mem)
		if n != 1 && n != 2 {
			t.Fatalf("Step(0x%04X) returned length %d, want 1 or 2", op, n)
		}
		if got == "" {
			t.Fatalf("Step(0x%04X) returned an empty mnemonic", op)
		}
	}
}
