// Package microcode holds the 46 declarative micro-op templates every
// instruction's execution sequence is built from, and the logic that
// specializes a template into a concrete control.Control for a given
// opcode. Ported field-for-field from the reference implementation's
// control/microcode.rs: same 46 entries in the same order, same bit
// fields, same decode order (address, then the two data selectors,
// then the ALU mode, then branch/pc/stack/interrupt/halt).
package microcode

import (
	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/cpuerr"
)

type addressSelect int

const (
	addrA addressSelect = iota
	addrProgramCounter
	addrS
)

type dataSelect int

const (
	dataNone dataSelect = iota
	dataRegisterZero
	dataRegisterOne
	dataRegisterTwo
	dataX
	dataProgramCounter
	dataLinkRegister
	dataFlags
	dataMemory
	dataAlu
	dataSignedByte
	dataUnsignedByte
	dataBitmask
	dataInterrupt
	dataStartup
	dataT
	dataA
	dataI
)

// direction mirrors the reference Direction enum. Const ignores the
// opcode; Near/Far XOR a default polarity against a single opcode bit;
// Pop/Put read the same bit outright, used by the stack-sequence
// template.
type direction int

const (
	dirConst direction = iota
	dirNear
	dirFar
	dirPop
	dirPut
)

func (d direction) parse(op uint16, def bool) bool {
	switch d {
	case dirNear:
		return def != ((op & 0x0400) == 0)
	case dirFar:
		return def != ((op & 0x0800) == 0)
	case dirPop:
		return (op & 0x0800) != 0
	case dirPut:
		return (op & 0x0800) == 0
	default:
		return def
	}
}

type dataField struct {
	sel dataSelect
	dir direction
	t   int // which Alu.T[] slot, for sel == dataT
}

type aluModeKind int

const (
	aluKindNone aluModeKind = iota
	aluKindUnary
	aluKindShort
	aluKindBinary
	aluKindAdd
	aluKindTest
	aluKindSet
)

// entry is one row of the 46-entry microcode table.
type entry struct {
	name string

	address addressSelect
	data    [2]dataField

	aluMode  aluModeKind
	setFlags bool

	pcIncrement bool

	sCount    bool
	sCountDir direction

	interrupt bool
	halt      bool
}

func parseRegister(op uint16, offset uint) (control.Register, error) {
	v := (op >> offset) & 0x0007
	if v > 7 {
		return 0, &cpuerr.InvalidRegister{Op: op, Offset: uint16(offset), Value: v}
	}
	return control.Register(v), nil
}

func (s dataSelect) decode(op uint16, d bool, t int, c *control.Control) error {
	switch s {
	case dataNone:
	case dataRegisterZero:
		reg, err := parseRegister(op, 0)
		if err != nil {
			return err
		}
		if d {
			c.Register.Load = reg
		} else {
			c.Register.Out = reg
		}
	case dataRegisterOne:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to register offset 3."}
		}
		reg, err := parseRegister(op, 3)
		if err != nil {
			return err
		}
		c.Register.Out = reg
	case dataRegisterTwo:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to register offset 6."}
		}
		reg, err := parseRegister(op, 6)
		if err != nil {
			return err
		}
		c.Register.Out = reg
	case dataT:
		if !d {
			return &cpuerr.InvalidRead{Op: op, Message: "cannot read from ALU T registers."}
		}
		c.Alu.T[t].Load = true
	case dataAlu:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to ALU output."}
		}
		c.Alu.Out = true
	case dataFlags:
		if d {
			c.Flags.Load = true
		} else {
			c.Flags.Out = true
		}
	case dataProgramCounter:
		if d {
			c.PC.Load = true
		} else {
			c.PC.Out = true
		}
	case dataLinkRegister:
		if d {
			c.LR.Load = true
		} else {
			c.LR.Out = true
		}
	case dataX:
		switch (op & 0x0018) >> 3 {
		case 0:
			if d {
				c.S[0].Load = true
			} else {
				c.S[0].Out = true
			}
		case 1:
			if d {
				c.S[1].Load = true
			} else {
				c.S[1].Out = true
			}
		case 2:
			if d {
				c.PC.Load = true
			} else {
				c.PC.Out = true
			}
		case 3:
			if d {
				c.LR.Load = true
			} else {
				c.LR.Out = true
			}
		}
	case dataA:
		if !d {
			return &cpuerr.InvalidRead{Op: op, Message: "cannot read from address register."}
		}
		c.A.Load = true
	case dataMemory:
		if d {
			c.Memory.Load = true
		} else {
			c.Memory.Out = true
		}
	case dataI:
		if !d {
			return &cpuerr.InvalidRead{Op: op, Message: "cannot read from instruction register."}
		}
		c.I.Load = true
	case dataSignedByte:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to signed byte projection."}
		}
		c.I.Mode = control.IModeSignedByte
	case dataUnsignedByte:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to unsigned byte projection."}
		}
		c.I.Mode = control.IModeUnsignedByte
	case dataBitmask:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to bitmask projection."}
		}
		c.I.Mode = control.IModeBitmask
	case dataInterrupt:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to interrupt-vector projection."}
		}
		c.I.Mode = control.IModeInterrupt
	case dataStartup:
		if d {
			return &cpuerr.InvalidWrite{Op: op, Message: "cannot write to init-address projection."}
		}
		c.I.Mode = control.IModeStartup
	}
	return nil
}

func decodeBinary(code uint16, c *control.Control) error {
	switch code {
	case 0:
		c.Alu.Mode = control.AluAdd
	case 1:
		c.Alu.Mode = control.AluAnd
	case 2:
		c.Alu.Mode = control.AluAdd
		c.Alu.T1Invert = true
		c.Alu.CarryInvert = true
		c.Alu.Out = false
		c.Register.Load = control.RegNone
	case 3:
		c.Alu.Mode = control.AluAdd
		c.Alu.T1Invert = true
		c.Alu.CarryInvert = true
	case 4:
		c.Alu.Mode = control.AluAdd
		c.Alu.T1Invert = true
		c.Alu.CarryInvert = true
		if c.Alu.T[0].Load || c.Alu.T[1].Load {
			c.Alu.T[0].Load = !c.Alu.T[0].Load
			c.Alu.T[1].Load = !c.Alu.T[1].Load
		}
		c.Alu.Out = false
		c.Register.Load = control.RegNone
	case 5:
		c.Alu.Mode = control.AluAdd
		c.Alu.T1Invert = true
		c.Alu.CarryInvert = true
		if c.Alu.T[0].Load || c.Alu.T[1].Load {
			c.Alu.T[0].Load = !c.Alu.T[0].Load
			c.Alu.T[1].Load = !c.Alu.T[1].Load
		}
	case 6:
		c.Alu.Mode = control.AluOr
	case 7:
		c.Alu.Mode = control.AluXor
	default:
		return &cpuerr.InvalidBinaryOp{Value: code}
	}
	return nil
}

func decodeUnary(code uint16, c *control.Control) error {
	switch code {
	case 0b000:
		c.Alu.Mode = control.AluAdd
		c.Alu.T0Zero = true
		c.Alu.T1Invert = true
		c.Alu.CarryInvert = true
	case 0b001:
		c.Alu.Mode = control.AluAdd
		c.Alu.T0Zero = true
		c.Alu.T1Invert = true
	case 0b100:
		c.Alu.Mode = control.AluShift
		c.Alu.Extend = false
		c.Alu.Direction = false
	case 0b110:
		c.Alu.Mode = control.AluShift
		c.Alu.Extend = false
		c.Alu.Direction = true
	case 0b111:
		c.Alu.Mode = control.AluShift
		c.Alu.Extend = true
		c.Alu.Direction = true
	default:
		return &cpuerr.InvalidUnaryOp{Value: code}
	}
	return nil
}

func (k aluModeKind) decode(op uint16, c *control.Control) error {
	switch k {
	case aluKindNone:
	case aluKindUnary:
		if err := decodeUnary((op&0x0038)>>3, c); err != nil {
			return withOp(err, op)
		}
	case aluKindShort:
		if err := decodeBinary((op&0x1800)>>10, c); err != nil {
			return withOp(err, op)
		}
	case aluKindBinary:
		if err := decodeBinary((op&0x1C00)>>10, c); err != nil {
			return withOp(err, op)
		}
	case aluKindAdd:
		c.Alu.Mode = control.AluAdd
	case aluKindTest:
		c.Alu.Mode = control.AluAnd
		c.Alu.Out = false
	case aluKindSet:
		if op&0x0080 != 0 {
			c.Alu.Mode = control.AluOr
		} else {
			c.Alu.Mode = control.AluAnd
			c.Alu.T1Invert = true
		}
	}
	return nil
}

// withOp fills in the opcode on errors raised by helpers that don't
// see it (decodeBinary/decodeUnary take a pre-shifted field, not op).
func withOp(err error, op uint16) error {
	switch e := err.(type) {
	case *cpuerr.InvalidBinaryOp:
		e.Op = op
		return e
	case *cpuerr.InvalidUnaryOp:
		e.Op = op
		return e
	default:
		return err
	}
}

// Decode specializes this entry into a concrete control.Control for
// the given opcode. branchMask is non-nil for the micro-step that
// should also decode the branch/link fields (Normal instructions with
// a Branch class, and Stack's link bit); its value is the bit(s) of
// op that must be set for Link to be asserted this step.
func (e entry) Decode(op uint16, branchMask *uint16) (control.Control, error) {
	c := control.Control{Register: control.RegisterFile{Load: control.RegNone, Out: control.RegNone}}

	switch e.address {
	case addrA:
		c.Address = control.AddrA
	case addrProgramCounter:
		c.Address = control.AddrProgramCounter
	case addrS:
		if op&0x0200 == 0 {
			c.Address = control.AddrStackZero
		} else {
			c.Address = control.AddrStackOne
		}
	}

	d0 := e.data[0].dir.parse(op, false)
	if err := e.data[0].sel.decode(op, d0, e.data[0].t, &c); err != nil {
		return c, err
	}
	d1 := e.data[1].dir.parse(op, true)
	if err := e.data[1].sel.decode(op, d1, e.data[1].t, &c); err != nil {
		return c, err
	}

	if err := e.aluMode.decode(op, &c); err != nil {
		return c, err
	}
	c.Alu.SetFlags = e.setFlags

	if branchMask != nil {
		mask := *branchMask
		c.Branch.Negate = op&0x0800 != 0
		switch op & 0x0007 {
		case 0:
			c.Branch.Condition = control.CondAlways
		case 2:
			c.Branch.Condition = control.CondZero
		case 3:
			c.Branch.Condition = control.CondSign
		case 4:
			c.Branch.Condition = control.CondCarry
		case 5:
			c.Branch.Condition = control.CondCarryNotZero
		case 6:
			c.Branch.Condition = control.CondOverflow
		case 7:
			c.Branch.Condition = control.CondOverflowNotZero
		default:
			return c, &cpuerr.InvalidCondition{Op: op, Value: op & 0x0007}
		}

		c.Link = op&mask != 0
		if c.Link && e.pcIncrement {
			c.LR.Increment = true
		}
	}

	if e.pcIncrement && !c.PC.Load {
		c.PC.Increment = true
	}

	if e.sCount {
		idx := 0
		if op&0x0200 != 0 {
			idx = 1
		}
		c.S[idx].Count = true
		c.S[idx].Direction = e.sCountDir.parse(op, true)
	}

	c.Interrupt = e.interrupt

	if e.halt {
		c.Halt = op&0x0080 != 0
	}

	return c, nil
}

// Table is the 46-entry microcode table, in the canonical index order
// every Instruction template references by position.
var Table = [46]entry{
	{name: "FETCH", address: addrProgramCounter, data: [2]dataField{{sel: dataMemory}, {sel: dataI}}, pcIncrement: true},
	{name: "LD r,r", data: [2]dataField{{sel: dataRegisterOne}, {sel: dataRegisterZero}}},
	{name: "LD r,(r)/ALU r,(r)/JMl (r)", address: addrA, data: [2]dataField{{sel: dataRegisterOne}, {sel: dataA}}},
	{name: "LD r,(r)/LD r,(word)/LD r,(r+r)", address: addrA, data: [2]dataField{{sel: dataMemory, dir: dirNear}, {sel: dataRegisterZero, dir: dirNear}}},
	{name: "LD r,word", address: addrProgramCounter, data: [2]dataField{{sel: dataMemory, dir: dirNear}, {sel: dataRegisterZero, dir: dirNear}}, pcIncrement: true},
	{name: "LD r,(word)/ALU r,(word)/JMl (word)/LD x,(word)", address: addrProgramCounter, data: [2]dataField{{sel: dataMemory}, {sel: dataA}}, pcIncrement: true},
	{name: "LD r,(r+r)/ALU r,(r+r)/JMl (r+r)", data: [2]dataField{{sel: dataRegisterOne}, {sel: dataT, t: 0}}},
	{name: "LD r,(r+r)/ALU r,(r+r)/JMl (r+r)/LD x,(r+r)", data: [2]dataField{{sel: dataRegisterTwo}, {sel: dataT, t: 1}}},
	{name: "LD r,(r+r)/ALU r,(r+r)/JMl (r+r)/LD x,(r+r)", aluMode: aluKindAdd, data: [2]dataField{{sel: dataAlu}, {sel: dataA}}},
	{name: "LD r,b", data: [2]dataField{{sel: dataSignedByte}, {sel: dataRegisterZero}}},
	{name: "LD r,(u)/ALU r,(u)/JMl (u)", data: [2]dataField{{sel: dataUnsignedByte}, {sel: dataA}}},
	{name: "LD r,(u)", address: addrA, data: [2]dataField{{sel: dataMemory, dir: dirFar}, {sel: dataRegisterZero, dir: dirFar}}},
	{name: "ALU r,r/ALU r,(r)/ALU r,word/ALU r,(word)/ALU r,(r+r)/SET r,b,v/TEST r,b/UOP r", aluMode: aluKindBinary, data: [2]dataField{{sel: dataRegisterZero}, {sel: dataT, t: 0}}},
	{name: "ALU r,r", aluMode: aluKindBinary, data: [2]dataField{{sel: dataRegisterOne}, {sel: dataT, t: 1}}},
	{name: "ALU r,r/ALU r,(r)/ALU r,word/ALU r,(word)/ALU r,(r+r)", aluMode: aluKindBinary, data: [2]dataField{{sel: dataAlu}, {sel: dataRegisterZero}}, setFlags: true},
	{name: "ALU r,(r)/ALU r,(word)/ALU r,(r+r)", aluMode: aluKindBinary, address: addrA, data: [2]dataField{{sel: dataMemory}, {sel: dataT, t: 1}}},
	{name: "ALU r,word", aluMode: aluKindBinary, address: addrProgramCounter, data: [2]dataField{{sel: dataMemory}, {sel: dataT, t: 1}}, pcIncrement: true},
	{name: "ALU r,b/ALU r,(u)", aluMode: aluKindShort, data: [2]dataField{{sel: dataRegisterZero}, {sel: dataT, t: 0}}},
	{name: "ALU r,b", aluMode: aluKindShort, data: [2]dataField{{sel: dataSignedByte}, {sel: dataT, t: 1}}},
	{name: "ALU r,b/ALU r,(u)", aluMode: aluKindShort, data: [2]dataField{{sel: dataAlu}, {sel: dataRegisterZero}}, setFlags: true},
	{name: "ALU r,(u)", aluMode: aluKindShort, address: addrA, data: [2]dataField{{sel: dataMemory}, {sel: dataT, t: 1}}},
	{name: "JMl r", data: [2]dataField{{sel: dataRegisterOne}, {sel: dataProgramCounter}}},
	{name: "JMl (r)/JMl (word)/JMl (r+r)", address: addrA, data: [2]dataField{{sel: dataMemory}, {sel: dataProgramCounter}}},
	{name: "JMl word", address: addrProgramCounter, data: [2]dataField{{sel: dataMemory}, {sel: dataProgramCounter}}, pcIncrement: true},
	{name: "JMl b", data: [2]dataField{{sel: dataProgramCounter}, {sel: dataT, t: 0}}},
	{name: "JMl b", data: [2]dataField{{sel: dataSignedByte}, {sel: dataT, t: 1}}},
	{name: "JMl b", aluMode: aluKindAdd, data: [2]dataField{{sel: dataAlu}, {sel: dataProgramCounter}}},
	{name: "RET", data: [2]dataField{{sel: dataLinkRegister}, {sel: dataProgramCounter}}},
	{name: "RETs", address: addrS, data: [2]dataField{{sel: dataMemory}, {sel: dataProgramCounter}}, sCount: true, sCountDir: dirPop},
	{name: "PUTs/POPs", address: addrS, data: [2]dataField{{sel: dataMemory, dir: dirNear}, {sel: dataNone, dir: dirNear}}, sCount: true, sCountDir: dirNear},
	{name: "SET F,b,v", data: [2]dataField{{sel: dataFlags}, {sel: dataT, t: 0}}},
	{name: "SET F,b,v", data: [2]dataField{{sel: dataBitmask}, {sel: dataT, t: 1}}},
	{name: "SET F,b,v", aluMode: aluKindSet, data: [2]dataField{{sel: dataAlu}, {sel: dataFlags}}},
	{name: "SET r,b,v", aluMode: aluKindSet, data: [2]dataField{{sel: dataAlu}, {sel: dataRegisterZero}}},
	{name: "TEST r,b", aluMode: aluKindTest, data: [2]dataField{{sel: dataBitmask}, {sel: dataT, t: 1}}, setFlags: true},
	{name: "UOP r", aluMode: aluKindUnary, data: [2]dataField{{sel: dataAlu}, {sel: dataRegisterZero}}, setFlags: true},
	{name: "LD x,r", data: [2]dataField{{sel: dataX, dir: dirNear}, {sel: dataRegisterZero, dir: dirNear}}},
	{name: "LD x,(r)", data: [2]dataField{{sel: dataRegisterZero}, {sel: dataA}}},
	{name: "LD x,(r)/LD x,(word)/LD x,(r+r)", address: addrA, data: [2]dataField{{sel: dataMemory, dir: dirNear}, {sel: dataX, dir: dirNear}}},
	{name: "LD x,word", address: addrProgramCounter, data: [2]dataField{{sel: dataMemory, dir: dirNear}, {sel: dataX, dir: dirNear}}, pcIncrement: true},
	{name: "LD x,(r+r)", data: [2]dataField{{sel: dataRegisterZero}, {sel: dataT, t: 0}}},
	{name: "INT", address: addrS, data: [2]dataField{{sel: dataProgramCounter}, {sel: dataMemory}}, sCount: true, sCountDir: dirPut},
	{name: "INT", data: [2]dataField{{sel: dataInterrupt}, {sel: dataProgramCounter}}, halt: true},
	{name: "NOP", halt: true},
	{name: "INIT", data: [2]dataField{{sel: dataStartup}, {sel: dataA}}},
	{name: "INIT", address: addrA, data: [2]dataField{{sel: dataMemory}, {sel: dataProgramCounter}}},
}

// Decode specializes Table[index] for the given opcode and optional
// branch mask.
func Decode(index int, op uint16, branchMask *uint16) (control.Control, error) {
	return Table[index].Decode(op, branchMask)
}

// Name returns the human-readable name of a microcode table entry, for
// disassembly and debug dumps.
func Name(index int) string {
	return Table[index].name
}
