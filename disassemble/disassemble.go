// Package disassemble turns one opcode word (plus, for some
// addressing modes, the word that follows it) back into assembler
// source text. Grounded on
// _examples/jmchacon-6502/disassemble/disassemble.go's Step shape
// (PC in, mnemonic string and word-count-advanced out), retargeted at
// this ISA's 23 instruction templates. It deliberately duplicates the
// opcode bit-field knowledge instruction.Decode already has, the same
// way a disassembler conventionally stays a read-only, side-effect-free
// sibling of the execution decoder rather than reusing its Control
// machinery.
package disassemble

import (
	"fmt"

	"github.com/araneavalon/cpu16/cpu"
	"github.com/araneavalon/cpu16/instruction"
)

// wordReader is the minimal memory access the disassembler needs: a
// raw ROM/RAM word read, independent of the bus/Control protocol.
type wordReader interface {
	Peek(address uint16) uint16
}

func register(bits uint16) string { return cpu.RegisterNames[bits&0x0007] }

func extraRegister(op uint16) string {
	switch (op & 0x0018) >> 3 {
	case 0:
		return "S0"
	case 1:
		return "S1"
	case 2:
		return "PC"
	default:
		return "LR"
	}
}

// linked reports whether a branch-and-link template's link bit is
// set. Far templates (JMl family) use bit 12 (0x1000); Near templates
// (RET family) use bit 10 (0x0400), per the branch class masks in
// the reference decoder.
func linked(op, mask uint16) bool { return op&mask != 0 }

// condition renders the branch-condition bits as the prefix token
// parser.go's conditionTokens expects directly before JMP/JML/RET/RTL
// (no separating space) — the encode side (conditionEncode) and the
// CPU's own decode switch (microcode/microcode.go) agree that bit
// pattern 5 is CarryNotZero and 6 is Overflow.
func condition(op uint16) string {
	negate := op&0x0800 != 0
	switch op & 0x0007 {
	case 2:
		if negate {
			return "Z!"
		}
		return "Z."
	case 3:
		if negate {
			return "N!"
		}
		return "N."
	case 4:
		if negate {
			return "C!"
		}
		return "C."
	case 5:
		if negate {
			return "<="
		}
		return ">"
	case 6:
		if negate {
			return "V!"
		}
		return "V."
	case 7:
		if negate {
			return "Le"
		}
		return "Gt"
	default:
		if negate {
			return "!"
		}
		return ""
	}
}

func signedByte(op uint16) int16 {
	return int16(int8((op >> 3) & 0x00FF))
}

func unsignedByte(op uint16) uint16 {
	return (op >> 3) & 0x00FF
}

var binaryOps = [8]string{"ADD", "AND", "CMP", "SUB", "CPN", "SBN", "OR", "XOR"}
var unaryOps = map[uint16]string{0b000: "NOT", 0b001: "NEG", 0b100: "SL", 0b110: "LSR", 0b111: "ASR"}

// Step disassembles the instruction at pc, returning its source-text
// form and the number of words it occupies (1, or 2 for the
// word/(word) addressing modes).
func Step(pc uint16, mem wordReader) (string, int) {
	op := mem.Peek(pc)

	it, err := instruction.Decode(op)
	if err != nil {
		return fmt.Sprintf(".word 0x%04X", op), 1
	}
	name := it.Name()

	r0 := register(op)
	r1 := register(op >> 3)
	mode := (op & 0x03C0) >> 6

	switch name {
	case "LD r,r":
		return fmt.Sprintf("LD %s,%s", r0, r1), 1
	// "(r)"/"(word)"/"(r+r)" share encodeLoad's direction bit (0x0400,
	// set when loading into a register) with the addressing mode held
	// fixed, so the same opcode shape can mean either "LD r0,(addr)"
	// or its store mirror "LD (addr),r0" depending on that one bit.
	case "LD r,(r)":
		if op&0x0400 == 0 {
			return fmt.Sprintf("LD (%s),%s", r1, r0), 1
		}
		return fmt.Sprintf("LD %s,(%s)", r0, r1), 1
	case "LD r,word":
		w := mem.Peek(pc + 1)
		return fmt.Sprintf("LD %s,0x%04X", r0, w), 2
	case "LD r,(word)":
		w := mem.Peek(pc + 1)
		if op&0x0400 == 0 {
			return fmt.Sprintf("LD (0x%04X),%s", w, r0), 2
		}
		return fmt.Sprintf("LD %s,(0x%04X)", r0, w), 2
	case "LD r,(r+r)":
		r2 := register(op >> 6)
		if op&0x0400 == 0 {
			return fmt.Sprintf("LD (%s+%s),%s", r1, r2, r0), 1
		}
		return fmt.Sprintf("LD %s,(%s+%s)", r0, r1, r2), 1
	case "LD r,b":
		return fmt.Sprintf("LD %s,%d", r0, signedByte(op)), 1
	case "LD r,(u)":
		return fmt.Sprintf("LD %s,(0x%02X)", r0, unsignedByte(op)), 1

	case "OP r,r", "OP r,(r)", "OP r,word", "OP r,(word)", "OP r,(r+r)":
		opName := binaryOps[(op&0x1C00)>>10]
		// mode's bit values don't line up with a plain 0..4 case
		// ladder: generalArgBits only ever sets bit9 for (r+r), bit8
		// for word/(word), and bit6 for (r)/(word), the same priority
		// instruction.go's argumentModeTable applies, so bit9 must be
		// checked before bit8 before bit6.
		switch {
		case mode&0x8 != 0:
			r2 := register(op >> 6)
			return fmt.Sprintf("%s %s,(%s+%s)", opName, r0, r1, r2), 1
		case mode&0x4 != 0:
			w := mem.Peek(pc + 1)
			if mode&0x1 != 0 {
				return fmt.Sprintf("%s %s,(0x%04X)", opName, r0, w), 2
			}
			return fmt.Sprintf("%s %s,0x%04X", opName, r0, w), 2
		case mode&0x1 != 0:
			return fmt.Sprintf("%s %s,(%s)", opName, r0, r1), 1
		default:
			return fmt.Sprintf("%s %s,%s", opName, r0, r1), 1
		}
	case "OP r,b":
		opName := binaryOps[(op&0x1800)>>10]
		return fmt.Sprintf("%s %s,%d", opName, r0, signedByte(op)), 1
	case "OP r,(u)":
		opName := binaryOps[(op&0x1800)>>10]
		return fmt.Sprintf("%s %s,(0x%02X)", opName, r0, unsignedByte(op)), 1

	case "JMl r", "JMl (r)", "JMl word", "JMl (word)", "JMl (r+r)", "JMl b", "JMl (u)":
		// "JMl r"/(r)/word/(word)/(r+r) share the argument-mode template
		// (branchNear, link at bit 10); "JMl b"/(u) are the dedicated
		// byte-immediate templates (branchFar, link at bit 12).
		linkMask := uint16(0x0400)
		if name == "JMl b" || name == "JMl (u)" {
			linkMask = 0x1000
		}
		jm := "JMP"
		if linked(op, linkMask) {
			jm = "JML"
		}
		jm = condition(op) + jm
		switch name {
		case "JMl r":
			return fmt.Sprintf("%s %s", jm, r1), 1
		case "JMl (r)":
			return fmt.Sprintf("%s (%s)", jm, r1), 1
		case "JMl word":
			w := mem.Peek(pc + 1)
			return fmt.Sprintf("%s 0x%04X", jm, w), 2
		case "JMl (word)":
			w := mem.Peek(pc + 1)
			return fmt.Sprintf("%s (0x%04X)", jm, w), 2
		case "JMl (r+r)":
			r2 := register(op >> 6)
			return fmt.Sprintf("%s (%s+%s)", jm, r1, r2), 1
		case "JMl b":
			return fmt.Sprintf("%s %d", jm, signedByte(op)), 1
		default:
			return fmt.Sprintf("%s (0x%02X)", jm, unsignedByte(op)), 1
		}

	case "RET", "RETs":
		ret := "RET"
		if linked(op, 0x0400) {
			ret = "RTL"
		}
		if name == "RETs" {
			if op&0x0200 != 0 {
				ret += "d"
			} else {
				ret += "s"
			}
		}
		return condition(op) + ret, 1

	case "PUT/POP":
		return disassembleStack(op), 1

	case "SET F":
		return fmt.Sprintf("SET F,%d,%d", unsignedByte(op)&0x000F, (op&0x0080)>>7), 1
	case "SET r":
		return fmt.Sprintf("SET %s,%d,%d", r0, unsignedByte(op)&0x000F, (op&0x0080)>>7), 1
	case "TEST r":
		return fmt.Sprintf("TEST %s,%d", r0, unsignedByte(op)&0x000F), 1

	case "UOP r":
		opName, ok := unaryOps[(op&0x0038)>>3]
		if !ok {
			opName = "???"
		}
		return fmt.Sprintf("%s %s", opName, r0), 1

	case "LD x,r":
		return fmt.Sprintf("LD %s,%s", extraRegister(op), r0), 1
	case "LD x,(r)":
		return fmt.Sprintf("LD (%s),%s", extraRegister(op), r0), 1
	case "LD x,word":
		w := mem.Peek(pc + 1)
		return fmt.Sprintf("LD %s,0x%04X", extraRegister(op), w), 2
	case "LD x,(word)":
		w := mem.Peek(pc + 1)
		return fmt.Sprintf("LD (%s),0x%04X", extraRegister(op), w), 2
	case "LD x,(r+r)":
		r2 := register(op >> 6)
		return fmt.Sprintf("LD (%s),(%s+%s)", extraRegister(op), r0, r2), 1

	case "INT i":
		return fmt.Sprintf("INT %d", (op>>3)&0x0007), 1
	case "NOP":
		if op&0x0080 != 0 {
			return "HLT", 1
		}
		return "NOP", 1

	default:
		return fmt.Sprintf(".word 0x%04X", op), 1
	}
}

// disassembleStack reconstructs the PUT/POP register list text from
// the same bit layout stackTemplate decodes: bit 10 is direction
// (PUT when clear, POP when set), bits 0-8 map directly to
// register-select bits 0-8, and bit 11 maps to register-select bit 9
// (opcode bit 9 is the stack selector, not a register).
func disassembleStack(op uint16) string {
	direction := op&0x0400 != 0
	registers := ((op & 0x0800) >> 2) | (op & 0x01FF)

	names := [10]string{}
	copy(names[:8], cpu.RegisterNames[:])
	names[8] = "F"
	if direction {
		names[9] = "PC"
	} else {
		names[9] = "LR"
	}

	var list string
	for bit := 0; bit < 10; bit++ {
		if registers&(1<<uint(bit)) == 0 {
			continue
		}
		if list != "" {
			list += ","
		}
		list += names[bit]
	}
	// parser.go's stackListOp requires a space after PUT/POP (or after
	// an explicit stack selector) and then a bracketed register list —
	// unlike the condition-prefix mnemonics, there is no brace-less
	// form to fall back to.
	if direction {
		return fmt.Sprintf("POP [%s]", list)
	}
	return fmt.Sprintf("PUT [%s]", list)
}
