// Package assemble implements the two-pass assembler for this ISA:
// parse source text into a symbol list, resolve labels and
// instruction lengths against each other, then emit the final
// (address, word) stream. Grounded on
// _examples/original_source/assembler/src/{symbols,parser,assembler,preprocessor}.rs,
// the newer of the two assembler generations in the retrieval pack
// (the one with span-dependent length correction, matching spec.md
// §6's "Length correction" paragraph).
package assemble

import "github.com/araneavalon/cpu16/control"

// Register names R0-R7 the way the opcode encodes them: 0-7.
type Register uint8

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
)

// StackRegister selects one of the two stack pointers.
type StackRegister uint8

const (
	S0 StackRegister = iota
	S1
)

// ProgramRegister selects PC or LR for the "X" addressing family and
// for JMl (r)/stack targets.
type ProgramRegister uint8

const (
	RegPC ProgramRegister = iota
	RegLR
)

// AnyRegister is the destination of an LD: a general register, a
// stack pointer, or PC/LR, each encoding differently into the X
// addressing-mode bits.
type AnyRegister interface {
	Encode() uint16
}

// RegisterRef is a general register used as an LD destination.
type RegisterRef Register

func (r RegisterRef) Encode() uint16 { return uint16(r) }

// StackRef is a stack pointer used as an LD destination.
type StackRef StackRegister

func (r StackRef) Encode() uint16 { return uint16(r) }

// ProgramRef is PC or LR used as an LD destination; the X field
// reserves bits 3-4 for {S0,S1,PC,LR} and PC/LR sit at 2-3.
type ProgramRef ProgramRegister

func (r ProgramRef) Encode() uint16 { return 0x0002 | uint16(r) }

// Value is one operand atom: a literal constant, the current
// address, a label, or a relative label reference.
type Value interface{ isValue() }

// ConstValue is a literal numeric or character-literal operand.
type ConstValue uint16

func (ConstValue) isValue() {}

// StarValue is `*`, the address of the symbol it appears in.
type StarValue struct{}

func (StarValue) isValue() {}

// LabelValue names a label or #define.
type LabelValue string

func (LabelValue) isValue() {}

// RelativeValue is `(c+)`/`(c-)`: the next/previous relative label
// named c.
type RelativeValue struct {
	Forward bool
	Name    byte
}

func (RelativeValue) isValue() {}

// Expression is a Value, or a Value+Value / Value-Value sum.
type Expression interface{ isExpression() }

type ValueExpr struct{ Value Value }

func (ValueExpr) isExpression() {}

type AddExpr struct{ A, B Value }

func (AddExpr) isExpression() {}

type SubExpr struct{ A, B Value }

func (SubExpr) isExpression() {}

// Argument is an instruction's addressing-mode operand.
type Argument interface{ isArgument() }

// ConstantArg is a bare expression: an immediate value, or (for a
// long-form ALU/Load/Jump) the word that follows the opcode.
type ConstantArg struct{ Expr Expression }

func (ConstantArg) isArgument() {}

// VariableArg is `(expr)`: a memory address, possibly zero-page
// (one-word) or full (two-word).
type VariableArg struct{ Expr Expression }

func (VariableArg) isArgument() {}

// DirectArg is a bare register.
type DirectArg struct{ Reg Register }

func (DirectArg) isArgument() {}

// IndirectArg is `(reg)`.
type IndirectArg struct{ Reg Register }

func (IndirectArg) isArgument() {}

// IndexedArg is `(base+index)`.
type IndexedArg struct{ Base, Index Register }

func (IndexedArg) isArgument() {}

// JumpArgument is a JMl/RET target: an Argument, an explicit stack
// selector (RET Sn), or the link register (RET with no selector).
type JumpArgument interface{ isJumpArgument() }

type ArgumentTarget struct{ Argument Argument }

func (ArgumentTarget) isJumpArgument() {}

type StackTarget struct{ Stack StackRegister }

func (StackTarget) isJumpArgument() {}

type LinkRegisterTarget struct{}

func (LinkRegisterTarget) isJumpArgument() {}

// ALUCode names the eight binary ALU operations.
type ALUCode uint8

const (
	ALUAdd ALUCode = iota
	ALUAnd
	ALUCmp
	ALUSub
	ALUCpn
	ALUSbn
	ALUOr
	ALUXor
)

// IsShort reports whether op has a single-word byte-immediate form
// (ADD, CMP, CPN only — the rest only ever assemble long).
func (op ALUCode) IsShort() bool {
	switch op {
	case ALUAdd, ALUCmp, ALUCpn:
		return true
	default:
		return false
	}
}

// UnaryCode names the five unary ALU operations. Encodings are not
// contiguous with the iota order: NOT/NEG/SL/LSR/ASR occupy bit
// patterns 0/1/4/6/7, the same gaps the reference unary decode table
// leaves for the two bits (shift-direction, shift-extend) that only
// apply to the shift family.
type UnaryCode uint8

const (
	UnaryNot UnaryCode = iota
	UnaryNeg
	UnarySl
	UnaryAsr
	UnaryLsr
)

func (op UnaryCode) Encode() uint16 {
	switch op {
	case UnaryNot:
		return 0
	case UnaryNeg:
		return 1
	case UnarySl:
		return 4
	case UnaryLsr:
		return 6
	case UnaryAsr:
		return 7
	default:
		return 0
	}
}

// Op is one assembled instruction, pre-encoding.
type Op interface{ isOp() }

type AluOp struct {
	Code ALUCode
	Dest Register
	Arg  Argument
}

func (AluOp) isOp() {}

type UnaryOp struct {
	Code UnaryCode
	Dest Register
}

func (UnaryOp) isOp() {}

type TestOp struct {
	Dest Register
	Bit  Value
}

func (TestOp) isOp() {}

type SetOp struct {
	Dest  Register
	Bit   Value
	Value bool
}

func (SetOp) isOp() {}

type SetFlagsOp struct {
	Bit   Value
	Value bool
}

func (SetFlagsOp) isOp() {}

// LoadOp is `LD dest,arg` (ToRegister true) or `LD arg,dest`
// (ToRegister false, storing dest to the address arg names).
type LoadOp struct {
	ToRegister bool
	Dest       AnyRegister
	Arg        Argument
}

func (LoadOp) isOp() {}

// StackOp is a PUT/POP sequence. Load is true for POP (load from
// stack), false for PUT (store to stack). Registers is indexed 0-7
// for R0-R7, 8 for F, 9 for PC (Load)/LR (!Load).
type StackOp struct {
	Load      bool
	Stack     StackRegister
	Registers [10]bool
}

func (StackOp) isOp() {}

type JumpOp struct {
	Condition control.Branch
	Link      bool
	Target    JumpArgument
}

func (JumpOp) isOp() {}

type InterruptOp struct {
	Halt  bool
	Value Value
}

func (InterruptOp) isOp() {}

type NopOp struct{ Halt bool }

func (NopOp) isOp() {}

// Symbol is one parsed source line's worth of assembler input: a
// directive, a label, an instruction, or a comment. Every Symbol
// carries the 1-based source line it came from, for error messages.
type Symbol interface{ Line() int }

type ImportSymbol struct {
	line int
	Path string
}

func (s ImportSymbol) Line() int { return s.line }

type DefineSymbol struct {
	line int
	Name string
	Expr Expression
}

func (s DefineSymbol) Line() int { return s.line }

// StarSymbol is `#define * = n`: resets the address cursor.
type StarSymbol struct {
	line  int
	Value uint16
}

func (s StarSymbol) Line() int { return s.line }

type WordSymbol struct {
	line int
	Expr Expression
}

func (s WordSymbol) Line() int { return s.line }

type LabelSymbol struct {
	line int
	Name string
}

func (s LabelSymbol) Line() int { return s.line }

// RelativeSymbol is a `c:` relative-label definition, c in [0-9a-z].
type RelativeSymbol struct {
	line int
	Name byte
}

func (s RelativeSymbol) Line() int { return s.line }

type OpSymbol struct {
	line int
	Op   Op
}

func (s OpSymbol) Line() int { return s.line }

type CommentSymbol struct {
	line int
	Text string
}

func (s CommentSymbol) Line() int { return s.line }
