package assemble

import (
	"github.com/araneavalon/cpu16/control"
)

var registerNames = map[string]Register{
	"R0": R0, "A": R0,
	"R1": R1, "B": R1,
	"R2": R2, "C": R2,
	"R3": R3, "D": R3,
	"R4": R4, "E": R4,
	"R5": R5, "X": R5,
	"R6": R6, "Y": R6,
	"R7": R7, "Z": R7,
}

var stackNames = map[string]StackRegister{
	"S0": S0, "SR": S0,
	"S1": S1, "SD": S1,
}

var programNames = map[string]ProgramRegister{
	"PC": RegPC,
	"LR": RegLR,
}

func isAnyRegisterName(ident string) bool {
	u := upper(ident)
	if _, ok := registerNames[u]; ok {
		return true
	}
	if _, ok := stackNames[u]; ok {
		return true
	}
	if _, ok := programNames[u]; ok {
		return true
	}
	return false
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func (s *scanner) register() (Register, bool) {
	start := s.pos
	for name, reg := range registerNames {
		if s.matchCI(name) {
			return reg, true
		}
	}
	s.pos = start
	return 0, false
}

func (s *scanner) stackRegister() (StackRegister, bool) {
	start := s.pos
	for name, reg := range stackNames {
		if s.matchCI(name) {
			return reg, true
		}
	}
	s.pos = start
	return 0, false
}

func (s *scanner) programRegister() (ProgramRegister, bool) {
	start := s.pos
	for name, reg := range programNames {
		if s.matchCI(name) {
			return reg, true
		}
	}
	s.pos = start
	return 0, false
}

func (s *scanner) anyRegister() (AnyRegister, bool) {
	if r, ok := s.register(); ok {
		return RegisterRef(r), true
	}
	if r, ok := s.stackRegister(); ok {
		return StackRef(r), true
	}
	if r, ok := s.programRegister(); ok {
		return ProgramRef(r), true
	}
	return nil, false
}

// labelIdent scans a bare identifier, rejecting one that fully names
// a register/stack/program register (mirrors the reference label_str
// rejecting register names as labels).
func (s *scanner) labelIdent() (string, bool) {
	start := s.pos
	name, ok := s.label()
	if !ok {
		return "", false
	}
	if isAnyRegisterName(name) {
		s.pos = start
		return "", false
	}
	return name, true
}

func (s *scanner) relativeValue() (Value, bool) {
	start := s.pos
	if !s.matchByte('(') {
		return nil, false
	}
	if s.eof() || !isLowerAlnum(s.text[s.pos]) {
		s.pos = start
		return nil, false
	}
	c := s.text[s.pos]
	s.pos++
	var forward bool
	switch {
	case s.matchByte('+'):
		forward = true
	case s.matchByte('-'):
		forward = false
	default:
		s.pos = start
		return nil, false
	}
	if !s.matchByte(')') {
		s.pos = start
		return nil, false
	}
	return RelativeValue{Forward: forward, Name: c}, true
}

func (s *scanner) value() (Value, bool) {
	if v, ok := s.relativeValue(); ok {
		return v, true
	}
	if s.matchByte('*') {
		return StarValue{}, true
	}
	if name, ok := s.labelIdent(); ok {
		return LabelValue(name), true
	}
	if v, ok := s.number(); ok {
		return v, true
	}
	return nil, false
}

func (s *scanner) expression() (Expression, bool) {
	a, ok := s.value()
	if !ok {
		return nil, false
	}
	save := s.pos
	s.skipSpace()
	if s.peek() == '+' || s.peek() == '-' {
		op := s.text[s.pos]
		s.pos++
		s.skipSpace()
		if b, ok := s.value(); ok {
			if op == '+' {
				return AddExpr{A: a, B: b}, true
			}
			return SubExpr{A: a, B: b}, true
		}
	}
	s.pos = save
	return ValueExpr{Value: a}, true
}

func (s *scanner) indexedArg() (Argument, bool) {
	start := s.pos
	if !s.matchByte('(') {
		return nil, false
	}
	s.skipSpace()
	base, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	if !s.matchByte('+') {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	index, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	if !s.matchByte(')') {
		s.pos = start
		return nil, false
	}
	return IndexedArg{Base: base, Index: index}, true
}

func (s *scanner) variableArg() (Argument, bool) {
	start := s.pos
	if !s.matchByte('(') {
		return nil, false
	}
	s.skipSpace()
	expr, ok := s.expression()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	if !s.matchByte(')') {
		s.pos = start
		return nil, false
	}
	return VariableArg{Expr: expr}, true
}

func (s *scanner) indirectArg() (Argument, bool) {
	start := s.pos
	if !s.matchByte('(') {
		return nil, false
	}
	s.skipSpace()
	reg, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	if !s.matchByte(')') {
		s.pos = start
		return nil, false
	}
	return IndirectArg{Reg: reg}, true
}

func (s *scanner) argument() (Argument, bool) {
	if a, ok := s.indexedArg(); ok {
		return a, true
	}
	if a, ok := s.variableArg(); ok {
		return a, true
	}
	if a, ok := s.indirectArg(); ok {
		return a, true
	}
	if expr, ok := s.expression(); ok {
		return ConstantArg{Expr: expr}, true
	}
	if reg, ok := s.register(); ok {
		return DirectArg{Reg: reg}, true
	}
	return nil, false
}

// sep1 scans a separating comma, with optional surrounding space.
func (s *scanner) sep1() bool {
	start := s.pos
	s.skipSpace()
	if !s.matchByte(',') {
		s.pos = start
		return false
	}
	s.skipSpace()
	return true
}

// sp1 requires at least one space/tab.
func (s *scanner) sp1() bool {
	start := s.pos
	s.skipSpace()
	return s.pos > start
}

type conditionToken struct {
	tok    string
	cond   control.Condition
	negate bool
}

var conditionTokens = []conditionToken{
	{"!", control.CondAlways, true},
	{"Z.", control.CondZero, false},
	{"E.", control.CondZero, false},
	{"Z!", control.CondZero, true},
	{"E!", control.CondZero, true},
	{"N.", control.CondSign, false},
	{"P!", control.CondSign, false},
	{"N!", control.CondSign, true},
	{"P.", control.CondSign, true},
	{"C.", control.CondCarry, false},
	{"<", control.CondCarry, false},
	{"C!", control.CondCarry, true},
	{">=", control.CondCarry, true},
	{">", control.CondCarryNotZero, false},
	{"<=", control.CondCarryNotZero, true},
	{"V.", control.CondOverflow, false},
	{"Lt", control.CondOverflow, false},
	{"V!", control.CondOverflow, true},
	{"Ge", control.CondOverflow, true},
	{"Gt", control.CondOverflowNotZero, false},
	{"Le", control.CondOverflowNotZero, true},
}

func (s *scanner) condition() (control.Branch, bool) {
	for _, ct := range conditionTokens {
		if s.matchCI(ct.tok) {
			return control.Branch{Condition: ct.cond, Negate: ct.negate}, true
		}
	}
	return control.Branch{}, false
}

var aluMnemonics = []struct {
	tok  string
	code ALUCode
}{
	{"ADD", ALUAdd},
	{"SUB", ALUSub},
	{"SBN", ALUSbn},
	{"CMP", ALUCmp},
	{"CPN", ALUCpn},
	{"AND", ALUAnd},
	{"OR", ALUOr},
	{"XOR", ALUXor},
}

func (s *scanner) aluOp() (Op, bool) {
	start := s.pos
	for _, m := range aluMnemonics {
		if !s.matchCI(m.tok) {
			continue
		}
		if !s.sp1() {
			s.pos = start
			return nil, false
		}
		reg, ok := s.register()
		if !ok {
			s.pos = start
			return nil, false
		}
		if !s.sep1() {
			s.pos = start
			return nil, false
		}
		arg, ok := s.argument()
		if !ok {
			s.pos = start
			return nil, false
		}
		return AluOp{Code: m.code, Dest: reg, Arg: arg}, true
	}
	return nil, false
}

var unaryMnemonics = []struct {
	tok  string
	code UnaryCode
}{
	{"NOT", UnaryNot},
	{"NEG", UnaryNeg},
	{"SL", UnarySl},
	{"ASR", UnaryAsr},
	{"LSR", UnaryLsr},
}

func (s *scanner) unaryOp() (Op, bool) {
	start := s.pos
	for _, m := range unaryMnemonics {
		if !s.matchCI(m.tok) {
			continue
		}
		if !s.sp1() {
			s.pos = start
			return nil, false
		}
		reg, ok := s.register()
		if !ok {
			s.pos = start
			return nil, false
		}
		return UnaryOp{Code: m.code, Dest: reg}, true
	}
	return nil, false
}

func (s *scanner) incDecOp() (Op, bool) {
	start := s.pos
	var v ConstValue
	switch {
	case s.matchCI("INC"):
		v = 0x0001
	case s.matchCI("DEC"):
		v = 0xFFFF
	default:
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	reg, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	return AluOp{Code: ALUAdd, Dest: reg, Arg: ConstantArg{Expr: ValueExpr{Value: v}}}, true
}

func (s *scanner) testOp() (Op, bool) {
	start := s.pos
	if !s.matchCI("TEST") {
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	reg, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	if !s.sep1() {
		s.pos = start
		return nil, false
	}
	bit, ok := s.value()
	if !ok {
		s.pos = start
		return nil, false
	}
	return TestOp{Dest: reg, Bit: bit}, true
}

func (s *scanner) setBitValue() (bool, bool) {
	if s.matchByte('0') {
		return false, true
	}
	if s.matchByte('1') {
		return true, true
	}
	return false, false
}

func (s *scanner) setOp() (Op, bool) {
	start := s.pos
	if !s.matchCI("SET") {
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}

	flagsStart := s.pos
	if s.matchCI("F") {
		if s.sep1() {
			bit, ok := s.value()
			if ok && s.sep1() {
				if v, ok := s.setBitValue(); ok {
					return SetFlagsOp{Bit: bit, Value: v}, true
				}
			}
		}
		s.pos = flagsStart
	}

	reg, ok := s.register()
	if !ok {
		s.pos = start
		return nil, false
	}
	if !s.sep1() {
		s.pos = start
		return nil, false
	}
	bit, ok := s.value()
	if !ok {
		s.pos = start
		return nil, false
	}
	if !s.sep1() {
		s.pos = start
		return nil, false
	}
	v, ok := s.setBitValue()
	if !ok {
		s.pos = start
		return nil, false
	}
	return SetOp{Dest: reg, Bit: bit, Value: v}, true
}

func (s *scanner) loadOp() (Op, bool) {
	start := s.pos
	if !s.matchCI("LD") {
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}

	save := s.pos
	if reg, ok := s.anyRegister(); ok {
		if s.sep1() {
			if arg, ok := s.argument(); ok {
				return LoadOp{ToRegister: true, Dest: reg, Arg: arg}, true
			}
		}
	}
	s.pos = save

	if arg, ok := s.argument(); ok {
		if s.sep1() {
			if reg, ok := s.anyRegister(); ok {
				return LoadOp{ToRegister: false, Dest: reg, Arg: arg}, true
			}
		}
	}

	s.pos = start
	return nil, false
}

func (s *scanner) jumpStackSelector() (StackRegister, bool) {
	if s.matchByte('s') || s.matchByte('S') {
		return S0, true
	}
	if s.matchByte('0') {
		return S0, true
	}
	if s.matchByte('d') || s.matchByte('D') {
		return S1, true
	}
	if s.matchByte('1') {
		return S1, true
	}
	return 0, false
}

func (s *scanner) jmpOp() (Op, bool) {
	start := s.pos

	cond, _ := s.condition()

	// JMP/JML/JMPL argument
	save := s.pos
	var link bool
	var linkOK bool
	switch {
	case s.matchCI("JMPL"):
		link, linkOK = true, true
	case s.matchCI("JML"):
		link, linkOK = true, true
	case s.matchCI("JMP"):
		link, linkOK = false, true
	}
	if linkOK && s.sp1() {
		regStart := s.pos
		if _, ok := s.programRegister(); ok {
			return JumpOp{Condition: cond, Link: link, Target: LinkRegisterTarget{}}, true
		}
		s.pos = regStart
		if arg, ok := s.argument(); ok {
			return JumpOp{Condition: cond, Link: link, Target: ArgumentTarget{Argument: arg}}, true
		}
	}
	s.pos = save

	// POP/POPL PC
	switch {
	case s.matchCI("POPL"):
		link = true
	case s.matchCI("POP"):
		link = false
	default:
		s.pos = start
		return nil, false
	}
	stack, hasStack := s.jumpStackSelector()
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	if !s.matchCI("PC") {
		s.pos = start
		return nil, false
	}
	if hasStack {
		return JumpOp{Condition: cond, Link: link, Target: StackTarget{Stack: stack}}, true
	}
	return JumpOp{Condition: cond, Link: link, Target: StackTarget{Stack: S0}}, true
}

func (s *scanner) retOp() (Op, bool) {
	start := s.pos
	cond, hasCond := s.condition()
	if !hasCond {
		cond = control.Branch{Condition: control.CondAlways, Negate: false}
	}

	var link bool
	switch {
	case s.matchCI("RTL"):
		link = true
	case s.matchCI("RET"):
		link = false
	default:
		s.pos = start
		return nil, false
	}
	stack, hasStack := s.jumpStackSelector()
	if hasStack {
		return JumpOp{Condition: cond, Link: link, Target: StackTarget{Stack: stack}}, true
	}
	return JumpOp{Condition: cond, Link: link, Target: LinkRegisterTarget{}}, true
}

func (s *scanner) stackListOp() (Op, bool) {
	start := s.pos
	var load bool
	switch {
	case s.matchCI("POP"):
		load = true
	case s.matchCI("PUT"):
		load = false
	default:
		return nil, false
	}
	stack, hasStack := s.jumpStackSelector()
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	if !s.matchByte('[') {
		s.pos = start
		return nil, false
	}
	s.skipSpace()

	var registers [10]bool
	first := true
	for {
		if !first {
			if !s.sep1() {
				break
			}
		}
		s.skipSpace()
		if (load && s.matchCI("PC")) || (!load && s.matchCI("LR")) {
			registers[9] = true
		} else if s.matchCI("F") {
			registers[8] = true
		} else if reg, ok := s.register(); ok {
			registers[reg] = true
		} else {
			if first {
				s.pos = start
				return nil, false
			}
			break
		}
		first = false
		s.skipSpace()
	}
	s.skipSpace()
	if !s.matchByte(']') {
		s.pos = start
		return nil, false
	}
	if !hasStack {
		stack = S0
	}
	return StackOp{Load: load, Stack: stack, Registers: registers}, true
}

func (s *scanner) interruptOp() (Op, bool) {
	start := s.pos
	var halt bool
	switch {
	case s.matchCI("BRK"):
		halt = true
	case s.matchCI("INT"):
		halt = false
	default:
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	v, ok := s.value()
	if !ok {
		s.pos = start
		return nil, false
	}
	return InterruptOp{Halt: halt, Value: v}, true
}

func (s *scanner) op() (Op, bool) {
	if op, ok := s.aluOp(); ok {
		return op, true
	}
	if op, ok := s.unaryOp(); ok {
		return op, true
	}
	if op, ok := s.incDecOp(); ok {
		return op, true
	}
	if op, ok := s.testOp(); ok {
		return op, true
	}
	if op, ok := s.setOp(); ok {
		return op, true
	}
	if op, ok := s.loadOp(); ok {
		return op, true
	}
	if op, ok := s.jmpOp(); ok {
		return op, true
	}
	if op, ok := s.retOp(); ok {
		return op, true
	}
	if op, ok := s.stackListOp(); ok {
		return op, true
	}
	if op, ok := s.interruptOp(); ok {
		return op, true
	}
	if s.matchCI("HLT") {
		return NopOp{Halt: true}, true
	}
	if s.matchCI("NOP") {
		return NopOp{Halt: false}, true
	}
	return nil, false
}

func (s *scanner) comment() (string, bool) {
	start := s.pos
	if !s.matchByte('/') || !s.matchByte('/') {
		s.pos = start
		return "", false
	}
	s.skipSpace()
	text := s.rest()
	s.pos = len(s.text)
	return text, true
}

func (s *scanner) string_() ([]Value, bool) {
	start := s.pos
	if !s.matchByte('"') {
		return nil, false
	}
	p := s.pos
	for p < len(s.text) && s.text[p] != '"' {
		p++
	}
	if p >= len(s.text) {
		s.pos = start
		return nil, false
	}
	text := s.text[s.pos:p]
	s.pos = p + 1
	values := make([]Value, len(text))
	for i := 0; i < len(text); i++ {
		values[i] = ConstValue(text[i])
	}
	return values, true
}

// parseLine dispatches one source line (1-based lineNo) to the
// import/define/word/op grammar, the way parse_line's alt! does.
func parseLine(text string, lineNo int) ([]Symbol, error) {
	s := newScanner(text)
	s.skipSpace()
	if s.eof() {
		return nil, nil
	}

	if syms, ok := parseImportLine(s, lineNo); ok {
		return finish(s, lineNo, syms)
	}
	if syms, ok := parseDefineLine(s, lineNo); ok {
		return finish(s, lineNo, syms)
	}
	if syms, ok := parseWordLine(s, lineNo); ok {
		return finish(s, lineNo, syms)
	}
	if syms, ok := parseOpLine(s, lineNo); ok {
		return finish(s, lineNo, syms)
	}
	return nil, &ParseError{Text: text}
}

func finish(s *scanner, lineNo int, syms []Symbol) ([]Symbol, error) {
	s.skipSpace()
	if !s.eof() {
		return nil, &ParseError{Text: s.text}
	}
	return syms, nil
}

func parseImportLine(s *scanner, lineNo int) ([]Symbol, bool) {
	start := s.pos
	if !s.matchCI("#import") {
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}
	if !s.matchByte('"') {
		s.pos = start
		return nil, false
	}
	p := s.pos
	for p < len(s.text) && s.text[p] != '"' {
		p++
	}
	if p >= len(s.text) {
		s.pos = start
		return nil, false
	}
	path := s.text[s.pos:p]
	s.pos = p + 1
	s.skipSpace()
	out := []Symbol{ImportSymbol{line: lineNo, Path: path}}
	if text, ok := s.comment(); ok {
		out = append(out, CommentSymbol{line: lineNo, Text: text})
	}
	return out, true
}

func parseDefineLine(s *scanner, lineNo int) ([]Symbol, bool) {
	start := s.pos
	if !s.matchCI("#define") {
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}

	save := s.pos
	if s.matchByte('*') {
		s.skipSpace()
		if s.matchByte('=') {
			s.skipSpace()
			if v, ok := s.number(); ok {
				s.skipSpace()
				out := []Symbol{StarSymbol{line: lineNo, Value: uint16(v)}}
				if text, ok := s.comment(); ok {
					out = append(out, CommentSymbol{line: lineNo, Text: text})
				}
				return out, true
			}
		}
	}
	s.pos = save

	name, ok := s.labelIdent()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	if !s.matchByte('=') {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	expr, ok := s.expression()
	if !ok {
		s.pos = start
		return nil, false
	}
	s.skipSpace()
	out := []Symbol{DefineSymbol{line: lineNo, Name: name, Expr: expr}}
	if text, ok := s.comment(); ok {
		out = append(out, CommentSymbol{line: lineNo, Text: text})
	}
	return out, true
}

func parseLabelPrefix(s *scanner, lineNo int) (Symbol, bool) {
	start := s.pos
	if name, ok := s.labelIdent(); ok {
		if s.matchByte(':') {
			return LabelSymbol{line: lineNo, Name: name}, true
		}
		s.pos = start
		return nil, false
	}
	if s.eof() || !isLowerAlnum(s.text[s.pos]) {
		return nil, false
	}
	c := s.text[s.pos]
	save := s.pos
	s.pos++
	if s.matchByte(':') {
		return RelativeSymbol{line: lineNo, Name: c}, true
	}
	s.pos = save
	return nil, false
}

func parseWordLine(s *scanner, lineNo int) ([]Symbol, bool) {
	start := s.pos
	var out []Symbol
	if lbl, ok := parseLabelPrefix(s, lineNo); ok {
		out = append(out, lbl)
		s.skipSpace()
	}
	if !s.matchCI("#word") {
		s.pos = start
		return nil, false
	}
	if !s.sp1() {
		s.pos = start
		return nil, false
	}

	first := true
	for {
		if !first {
			if !s.sep1() {
				break
			}
		}
		if values, ok := s.string_(); ok {
			for _, v := range values {
				out = append(out, WordSymbol{line: lineNo, Expr: ValueExpr{Value: v}})
			}
		} else if expr, ok := s.expression(); ok {
			out = append(out, WordSymbol{line: lineNo, Expr: expr})
		} else if first {
			s.pos = start
			return nil, false
		} else {
			break
		}
		first = false
	}
	s.skipSpace()
	if text, ok := s.comment(); ok {
		out = append(out, CommentSymbol{line: lineNo, Text: text})
	}
	return out, true
}

func parseOpLine(s *scanner, lineNo int) ([]Symbol, bool) {
	var out []Symbol
	if lbl, ok := parseLabelPrefix(s, lineNo); ok {
		out = append(out, lbl)
		s.skipSpace()
	}
	if op, ok := s.op(); ok {
		out = append(out, OpSymbol{line: lineNo, Op: op})
	}
	s.skipSpace()
	if text, ok := s.comment(); ok {
		out = append(out, CommentSymbol{line: lineNo, Text: text})
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Parse turns preprocessed source text into the flat Symbol list the
// layout pass consumes, one line at a time.
func Parse(source string) ([]Symbol, error) {
	var out []Symbol
	lines := splitLines(source)
	for i, line := range lines {
		syms, err := parseLine(line, i+1)
		if err != nil {
			return nil, lineErr(i+1, err)
		}
		out = append(out, syms...)
	}
	return out, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
