package assemble

import "github.com/araneavalon/cpu16/control"

// assembler holds the label/define/relative-label tables built during
// layout and consumed during emission. Grounded on assembler.rs's
// Assembler struct (labels/relative/symbols fields), minus the
// Address(min,max) interval machinery: this port reaches the same
// minimal encoding by iterating layout to a fixed point instead (see
// DESIGN.md).
type assembler struct {
	labels     map[string]uint16
	relatives  map[byte][]uint16
	defines    map[string]Expression
	defineAddr map[string]uint16
}

func newAssembler() *assembler {
	return &assembler{
		labels:     map[string]uint16{},
		relatives:  map[byte][]uint16{},
		defines:    map[string]Expression{},
		defineAddr: map[string]uint16{},
	}
}

func (a *assembler) resolveName(name string, seen map[string]bool) (uint16, error) {
	if v, ok := a.labels[name]; ok {
		return v, nil
	}
	if expr, ok := a.defines[name]; ok {
		if seen[name] {
			return 0, &UnknownLabelError{Name: name}
		}
		seen[name] = true
		v, err := a.evalExpression(expr, a.defineAddr[name], seen)
		delete(seen, name)
		return v, err
	}
	return 0, &UnknownLabelError{Name: name}
}

func (a *assembler) resolveRelative(r RelativeValue, addr uint16) (uint16, error) {
	occurrences := a.relatives[r.Name]
	if r.Forward {
		for _, o := range occurrences {
			if o > addr {
				return o, nil
			}
		}
	} else {
		for i := len(occurrences) - 1; i >= 0; i-- {
			if occurrences[i] <= addr {
				return occurrences[i], nil
			}
		}
	}
	return 0, &UnknownRelativeError{Name: r.Name}
}

func (a *assembler) evalValue(v Value, addr uint16, seen map[string]bool) (uint16, error) {
	switch t := v.(type) {
	case ConstValue:
		return uint16(t), nil
	case StarValue:
		return addr, nil
	case LabelValue:
		return a.resolveName(string(t), seen)
	case RelativeValue:
		return a.resolveRelative(t, addr)
	default:
		return 0, &UnknownLabelError{Name: "?"}
	}
}

func (a *assembler) evalExpression(e Expression, addr uint16, seen map[string]bool) (uint16, error) {
	switch t := e.(type) {
	case ValueExpr:
		return a.evalValue(t.Value, addr, seen)
	case AddExpr:
		x, err := a.evalValue(t.A, addr, seen)
		if err != nil {
			return 0, err
		}
		y, err := a.evalValue(t.B, addr, seen)
		if err != nil {
			return 0, err
		}
		return x + y, nil
	case SubExpr:
		x, err := a.evalValue(t.A, addr, seen)
		if err != nil {
			return 0, err
		}
		y, err := a.evalValue(t.B, addr, seen)
		if err != nil {
			return 0, err
		}
		return x - y, nil
	default:
		return 0, &UnknownLabelError{Name: "?"}
	}
}

func (a *assembler) eval(e Expression, addr uint16) (uint16, error) {
	return a.evalExpression(e, addr, map[string]bool{})
}

// argExpr extracts the expression carried by a Constant/Variable
// argument; other argument kinds have no expression to evaluate.
func argExpr(arg Argument) (Expression, bool) {
	switch t := arg.(type) {
	case ConstantArg:
		return t.Expr, true
	case VariableArg:
		return t.Expr, true
	default:
		return nil, false
	}
}

func isByteValue(v uint16) bool {
	s := int16(v)
	return s >= -128 && s <= 127
}

func isZeroPageValue(v uint16) bool { return v <= 255 }

// opLen returns the maximum (pessimistic) word length op can assemble
// to, matching op_len's fixed upper bound per op kind.
func opLen(op Op) int {
	switch t := op.(type) {
	case AluOp:
		if _, ok := argExpr(t.Arg); ok {
			return 2
		}
		return 1
	case LoadOp:
		if _, ok := argExpr(t.Arg); ok {
			return 2
		}
		return 1
	case JumpOp:
		if target, ok := t.Target.(ArgumentTarget); ok {
			if _, ok := argExpr(target.Argument); ok {
				return 2
			}
		}
		return 1
	default:
		return 1
	}
}

// canShrink reports whether op has a single-word short form at all
// (regardless of whether the current operand value fits it yet).
func canShrink(op Op) bool {
	switch t := op.(type) {
	case AluOp:
		if !t.Code.IsShort() {
			return false
		}
		_, ok := argExpr(t.Arg)
		return ok
	case LoadOp:
		if _, isReg := t.Dest.(RegisterRef); !isReg {
			return false
		}
		_, ok := argExpr(t.Arg)
		return ok
	case JumpOp:
		if target, ok := t.Target.(ArgumentTarget); ok {
			_, ok := argExpr(target.Argument)
			return ok
		}
		return false
	default:
		return false
	}
}

// fits reports whether value, as the operand of op's Constant/Variable
// argument, is narrow enough for op's single-word short form.
func fits(op Op, value uint16) bool {
	var arg Argument
	switch t := op.(type) {
	case AluOp:
		arg = t.Arg
	case LoadOp:
		arg = t.Arg
		if ld, ok := op.(LoadOp); ok && !ld.ToRegister {
			if _, isConst := arg.(ConstantArg); isConst {
				return false
			}
		}
	case JumpOp:
		arg = t.Target.(ArgumentTarget).Argument
	default:
		return false
	}
	switch arg.(type) {
	case VariableArg:
		return isZeroPageValue(value)
	case ConstantArg:
		return isByteValue(value)
	default:
		return false
	}
}

// layout runs layout to a fixed point: start every shrinkable op at
// its maximum length, then repeatedly re-address the program and
// shrink any op whose operand now provably fits its short form, until
// a pass produces no further shrinkage. Addresses only move down
// across iterations, so this always terminates and lands on the same
// minimal encoding the reference's Address(min,max) interval
// correction converges to.
func layout(symbols []Symbol) (lengths map[int]int, finalAddr map[int]uint16, asm *assembler, err error) {
	lengths = map[int]int{}
	for i, sym := range symbols {
		if op, ok := sym.(OpSymbol); ok {
			lengths[i] = opLen(op.Op)
		}
	}

	for iter := 0; iter < len(symbols)+2; iter++ {
		asm = newAssembler()
		items := map[int]uint16{}
		addr := uint16(0)

		for i, sym := range symbols {
			switch t := sym.(type) {
			case StarSymbol:
				addr = t.Value
			case LabelSymbol:
				if _, exists := asm.labels[t.Name]; exists {
					return nil, nil, nil, lineErr(t.line, &DuplicateLabelError{Name: t.Name})
				}
				asm.labels[t.Name] = addr
			case RelativeSymbol:
				asm.relatives[t.Name] = append(asm.relatives[t.Name], addr)
			case DefineSymbol:
				asm.defines[t.Name] = t.Expr
				asm.defineAddr[t.Name] = addr
			case WordSymbol:
				addr++
			case OpSymbol:
				items[i] = addr
				addr += uint16(lengths[i])
			}
		}

		changed := false
		for i, sym := range symbols {
			op, ok := sym.(OpSymbol)
			if !ok || lengths[i] != 2 || !canShrink(op.Op) {
				continue
			}
			expr, _ := argExpr(opArg(op.Op))
			v, err := asm.eval(expr, items[i])
			if err != nil {
				continue
			}
			if fits(op.Op, v) {
				lengths[i] = 1
				changed = true
			}
		}

		if !changed {
			return lengths, items, asm, nil
		}
	}
	return lengths, map[int]uint16{}, asm, nil
}

func opArg(op Op) Argument {
	switch t := op.(type) {
	case AluOp:
		return t.Arg
	case LoadOp:
		return t.Arg
	case JumpOp:
		return t.Target.(ArgumentTarget).Argument
	default:
		return nil
	}
}

// conditionEncode packs a branch condition into the 3-bit field
// microcode/microcode.go's decode switch reads back out of bits 0-2
// (code 1 is intentionally unused — the CPU's decode table has no
// condition defined for it). Negate lives at bit 11, independent of
// which condition is selected.
func conditionEncode(b control.Branch) uint16 {
	var code uint16
	switch b.Condition {
	case control.CondAlways:
		code = 0
	case control.CondZero:
		code = 2
	case control.CondSign:
		code = 3
	case control.CondCarry:
		code = 4
	case control.CondCarryNotZero:
		code = 5
	case control.CondOverflow:
		code = 6
	case control.CondOverflowNotZero:
		code = 7
	}
	if b.Negate {
		code |= 0x0800
	}
	return code
}

// generalArgBits implements argument()'s addressing-mode bit encoder,
// shared by the ALU/Load/Jump long forms.
func (a *assembler) generalArgBits(arg Argument, addr uint16) (bits uint16, extra uint16, hasExtra bool, err error) {
	switch t := arg.(type) {
	case IndexedArg:
		return 0x0200 | uint16(t.Index)<<6 | uint16(t.Base)<<3, 0, false, nil
	case VariableArg:
		v, err := a.eval(t.Expr, addr)
		if err != nil {
			return 0, 0, false, err
		}
		return 0x0140, v, true, nil
	case ConstantArg:
		v, err := a.eval(t.Expr, addr)
		if err != nil {
			return 0, 0, false, err
		}
		return 0x0100, v, true, nil
	case IndirectArg:
		return 0x0040 | uint16(t.Reg)<<3, 0, false, nil
	case DirectArg:
		return uint16(t.Reg) << 3, 0, false, nil
	default:
		return 0, 0, false, &ParseError{Text: "unknown argument"}
	}
}

func (a *assembler) encodeAlu(op AluOp, addr uint16, short bool) ([]uint16, error) {
	switch op.Arg.(type) {
	case ConstantArg, VariableArg:
		expr, _ := argExpr(op.Arg)
		v, err := a.eval(expr, addr)
		if err != nil {
			return nil, err
		}
		if op.Code.IsShort() && short && fits(op, v) {
			base := uint16(0xC000)
			if _, ok := op.Arg.(VariableArg); ok {
				base = 0x8000
			}
			word := base | (uint16(op.Code) << 10) | (v << 3) | uint16(op.Dest)
			return []uint16{word}, nil
		}
		bits, extra, _, err := a.generalArgBits(op.Arg, addr)
		if err != nil {
			return nil, err
		}
		word := 0x2000 | (uint16(op.Code) << 10) | bits | uint16(op.Dest)
		return []uint16{word, extra}, nil
	default:
		bits, _, _, err := a.generalArgBits(op.Arg, addr)
		if err != nil {
			return nil, err
		}
		word := 0x2000 | (uint16(op.Code) << 10) | bits | uint16(op.Dest)
		return []uint16{word}, nil
	}
}

func (a *assembler) encodeLoad(op LoadOp, addr uint16, short bool) ([]uint16, error) {
	direction := uint16(0)
	if op.ToRegister {
		direction = 1
	}

	if reg, ok := op.Dest.(RegisterRef); ok {
		switch arg := op.Arg.(type) {
		case ConstantArg, VariableArg:
			v, err := a.eval(mustExpr(op.Arg), addr)
			if err != nil {
				return nil, err
			}
			if _, isConst := arg.(ConstantArg); isConst && !op.ToRegister {
				return nil, &StoreConstantError{}
			}
			if short && fits(op, v) {
				base := uint16(0xD000)
				if _, isVar := arg.(VariableArg); isVar {
					base = 0x7000
				}
				word := base | (direction << 11) | (v << 3) | uint16(reg)
				return []uint16{word}, nil
			}
			bits, extra, _, err := a.generalArgBits(op.Arg, addr)
			if err != nil {
				return nil, err
			}
			word := 0x9800 | (direction << 10) | bits | uint16(reg)
			return []uint16{word, extra}, nil
		default:
			bits, _, _, err := a.generalArgBits(op.Arg, addr)
			if err != nil {
				return nil, err
			}
			word := 0x9800 | (direction << 10) | bits | uint16(reg)
			return []uint16{word}, nil
		}
	}

	bits, extra, hasExtra, err := a.generalArgBits(op.Arg, addr)
	if err != nil {
		return nil, err
	}
	word := 0x0800 | (direction << 10) | (bits & 0x03C0) | ((bits & 0x0031) >> 3) | (op.Dest.Encode() << 3)
	if hasExtra {
		return []uint16{word, extra}, nil
	}
	return []uint16{word}, nil
}

func mustExpr(arg Argument) Expression {
	expr, _ := argExpr(arg)
	return expr
}

func (a *assembler) encodeStack(op StackOp) ([]uint16, error) {
	direction := uint16(0)
	if op.Load {
		direction = 1
	}
	word := uint16(0x1000) | (direction << 10) | (uint16(op.Stack) << 9)
	for bit := 0; bit < 9; bit++ {
		if op.Registers[bit] {
			word |= 1 << uint(bit)
		}
	}
	if op.Registers[9] {
		word |= 1 << 11
	}
	return []uint16{word}, nil
}

func (a *assembler) encodeJump(op JumpOp, addr uint16, short bool) ([]uint16, error) {
	link := uint16(0)
	if op.Link {
		link = 1
	}
	cond := conditionEncode(op.Condition)

	switch t := op.Target.(type) {
	case LinkRegisterTarget:
		word := 0x4100 | (link << 10) | cond
		return []uint16{word}, nil
	case StackTarget:
		word := 0x4000 | (link << 10) | (uint16(t.Stack) << 9) | cond
		return []uint16{word}, nil
	case ArgumentTarget:
		switch arg := t.Argument.(type) {
		case ConstantArg, VariableArg:
			v, err := a.eval(mustExpr(t.Argument), addr)
			if err != nil {
				return nil, err
			}
			// The byte-immediate short forms ("JMl b"/"JMl (u)") live in
			// the 0xE000/0xA000 decode rows, disjoint from the
			// argument-mode template at 0x5000 that "JMl word"/"(word)"
			// fall back to below. The ALU and Load short forms likewise
			// use their own bases (0xC000/0x8000 and 0xD000/0x7000),
			// distinct from their long forms' 0x2000 and 0x9800; JMl's
			// long form needs the separate 0x5000 template because bits
			// 6-9 there select the addressing mode instead of carrying
			// value bits.
			if short && fits(op, v) {
				base := uint16(0xE000)
				if _, isVar := arg.(VariableArg); isVar {
					base = 0xA000
				}
				word := base | (link << 12) | (v << 3) | cond
				return []uint16{word}, nil
			}
			bits, extra, _, err := a.generalArgBits(t.Argument, addr)
			if err != nil {
				return nil, err
			}
			word := 0x5000 | (link << 10) | bits | cond
			return []uint16{word, extra}, nil
		default:
			bits, _, _, err := a.generalArgBits(t.Argument, addr)
			if err != nil {
				return nil, err
			}
			word := 0x5000 | (link << 10) | bits | cond
			return []uint16{word}, nil
		}
	default:
		return nil, &ParseError{Text: "unknown jump target"}
	}
}

func (a *assembler) encodeOp(op Op, addr uint16, short bool) ([]uint16, error) {
	switch t := op.(type) {
	case AluOp:
		return a.encodeAlu(t, addr, short)
	case UnaryOp:
		return []uint16{0x6400 | (t.Code.Encode() << 3) | uint16(t.Dest)}, nil
	case TestOp:
		bit, err := a.eval(exprOf(t.Bit), addr)
		if err != nil {
			return nil, err
		}
		if bit > 15 {
			return nil, &OutOfRangeError{Value: bit, Min: 0, Max: 15}
		}
		return []uint16{0x6000 | (bit << 3) | uint16(t.Dest)}, nil
	case SetOp:
		bit, err := a.eval(exprOf(t.Bit), addr)
		if err != nil {
			return nil, err
		}
		if bit > 15 {
			return nil, &OutOfRangeError{Value: bit, Min: 0, Max: 15}
		}
		v := uint16(0)
		if t.Value {
			v = 1
		}
		return []uint16{0x6800 | (bit << 3) | (v << 7) | uint16(t.Dest)}, nil
	case SetFlagsOp:
		bit, err := a.eval(exprOf(t.Bit), addr)
		if err != nil {
			return nil, err
		}
		if bit > 15 {
			return nil, &OutOfRangeError{Value: bit, Min: 0, Max: 15}
		}
		v := uint16(0)
		if t.Value {
			v = 1
		}
		return []uint16{0x6C00 | (bit << 3) | (v << 7)}, nil
	case LoadOp:
		return a.encodeLoad(t, addr, short)
	case StackOp:
		return a.encodeStack(t)
	case JumpOp:
		return a.encodeJump(t, addr, short)
	case InterruptOp:
		v, err := a.eval(exprOf(t.Value), addr)
		if err != nil {
			return nil, err
		}
		if v > 7 {
			return nil, &OutOfRangeError{Value: v, Min: 0, Max: 7}
		}
		h := uint16(0)
		if t.Halt {
			h = 1
		}
		return []uint16{0x0400 | (v << 3) | (h << 7)}, nil
	case NopOp:
		h := uint16(0)
		if t.Halt {
			h = 1
		}
		return []uint16{h << 7}, nil
	default:
		return nil, &ParseError{Text: "unknown op"}
	}
}

func exprOf(v Value) Expression { return ValueExpr{Value: v} }

// assemble runs layout then emits the final word stream, writing each
// symbol at its resolved address the way assemble()'s final pass
// does; Star jumps simply move the write cursor, so forward jumps
// leave zero-filled gaps and backward jumps overwrite, for free.
func assembleSymbols(symbols []Symbol) ([]uint16, error) {
	lengths, _, asm, err := layout(symbols)
	if err != nil {
		return nil, err
	}

	var words []uint16
	ensure := func(n int) {
		for len(words) < n {
			words = append(words, 0)
		}
	}

	addr := uint16(0)
	for i, sym := range symbols {
		switch t := sym.(type) {
		case StarSymbol:
			addr = t.Value
		case WordSymbol:
			v, err := asm.eval(t.Expr, addr)
			if err != nil {
				return nil, lineErr(t.line, err)
			}
			ensure(int(addr) + 1)
			words[addr] = v
			addr++
		case OpSymbol:
			length := lengths[i]
			out, err := asm.encodeOp(t.Op, addr, length == 1)
			if err != nil {
				return nil, lineErr(t.line, err)
			}
			ensure(int(addr) + length)
			for j := 0; j < length && j < len(out); j++ {
				words[int(addr)+j] = out[j]
			}
			addr += uint16(length)
		}
	}
	return words, nil
}
