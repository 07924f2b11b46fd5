package cpu

import "github.com/araneavalon/cpu16/control"

// RegisterNames gives each of R0-R7 the short name the reference
// implementation's Display impl used (A,B,C,D,E,X,Y,Z) — reused by
// the disassembler and debug dumps.
var RegisterNames = [8]string{"A", "B", "C", "D", "E", "X", "Y", "Z"}

// RegisterFile is the eight general-purpose registers.
type RegisterFile struct {
	base
	control control.Control
	values  [8]uint16
}

func NewRegisterFile() *RegisterFile { return &RegisterFile{} }

func (r *RegisterFile) Name() string                { return "RegisterFile" }
func (r *RegisterFile) SetControl(c control.Control) { r.control = c }

func (r *RegisterFile) Load(value uint16) {
	if reg := int(r.control.Register.Load); reg < len(r.values) {
		r.values[reg] = value
	}
}

func (r *RegisterFile) Data() (uint16, bool) {
	if reg := int(r.control.Register.Out); reg < len(r.values) {
		return r.values[reg], true
	}
	return 0, false
}

// Value peeks a register's value without going through the bus, for
// debug dumps and the disassembler.
func (r *RegisterFile) Value(reg control.Register) uint16 {
	if int(reg) < len(r.values) {
		return r.values[reg]
	}
	return 0
}
