package cpu

import (
	"sync"

	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/cpuerr"
	"github.com/araneavalon/cpu16/memory"
)

// Chip wires the nine bus components, the Memory dispatcher, and
// ControlLogic together into one synchronous half-cycle driver, the
// way the teacher's cpu.CPU owns every chip register and memory and
// steps them together one Tick at a time.
//
// Run is the only entry point that advances simulated time, and it is
// not reentrant: call it from a single goroutine. Interrupt and the
// Memory's Keyboard.Push are the two exceptions — both are safe to
// call concurrently with Run, guarded by mu here and by Keyboard's own
// mutex respectively.
type Chip struct {
	mu sync.Mutex

	cl    *ControlLogic
	alu   *ALU
	flags *FlagsRegister
	regs  *RegisterFile
	pc    *ProgramCounter
	lr    *LinkRegister
	s     *StackPointers
	a     *AddressRegister
	ireg  *InstructionRegister
	mem   *memory.Memory

	halted bool
}

// New builds a Chip around mem, which must already have its ROM image
// loaded.
func New(mem *memory.Memory) *Chip {
	return &Chip{
		cl:    NewControlLogic(),
		alu:   NewALU(),
		flags: NewFlagsRegister(),
		regs:  NewRegisterFile(),
		pc:    NewProgramCounter(),
		lr:    NewLinkRegister(),
		s:     NewStackPointers(),
		a:     NewAddressRegister(),
		ireg:  NewInstructionRegister(),
		mem:   mem,
	}
}

// Memory exposes the Chip's Memory, for the host to reach the Screen
// and Keyboard components.
func (c *Chip) Memory() *memory.Memory { return c.mem }

// Registers exposes the register file for debug dumps and the
// disassembler's register-name annotations.
func (c *Chip) Registers() *RegisterFile { return c.regs }

// ProgramCounter exposes PC's current value for debug dumps.
func (c *Chip) ProgramCounter() uint16 { return c.pc.value }

// StackPointers exposes the two stack pointers for debug dumps and
// tests that need to observe a PUT/POP sequence's net effect on S0/S1
// without routing a POP back through the bus just to read it.
func (c *Chip) StackPointers() *StackPointers { return c.s }

// Halted reports whether the Chip has executed a Halt control word
// and stopped advancing.
func (c *Chip) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// Interrupt requests servicing of hardware line n (0-7). Safe to call
// concurrently with Run.
func (c *Chip) Interrupt(n int) error {
	if n < 0 || n > 7 {
		return &cpuerr.InvalidInterrupt{Interrupt: n}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cl.Interrupt(n)
	return nil
}

// Run advances the Chip by up to cycles half-cycles, stopping early
// if a Halt control word is executed or an error occurs.
func (c *Chip) Run(cycles int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < cycles; i++ {
		if c.halted {
			return nil
		}
		if err := c.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chip) components() []Component {
	return []Component{c.regs, c.alu, c.flags, c.pc, c.lr, c.s, c.a, c.ireg}
}

// tick runs one half-cycle: ask ControlLogic what to do, distribute it
// to every component, arbitrate the address and data buses, and apply
// the resulting load/capture side effects.
func (c *Chip) tick() error {
	ctl, err := c.cl.Step(c.flags)
	if err != nil {
		return err
	}
	if iop, ok := c.cl.TakeInterruptOp(); ok {
		c.ireg.Set(iop)
	}
	op := c.ireg.Get()

	for _, comp := range c.components() {
		comp.SetControl(ctl)
	}
	c.mem.SetControl(ctl)

	addr, err := c.resolveAddress(ctl, op)
	if err != nil {
		return err
	}
	c.mem.SetAddress(addr)

	value, err := c.resolveData(ctl, op)
	if err != nil {
		return err
	}
	if value != nil {
		for _, comp := range c.components() {
			comp.Load(*value)
		}
		if err := c.mem.Load(*value); err != nil {
			return err
		}
	}

	c.flags.SetALU(c.alu.GetFlags())
	c.lr.Link(c.pc.Link())

	if c.cl.NeedsDecode() {
		if err := c.cl.Decode(c.ireg.Get()); err != nil {
			return err
		}
	}

	if ctl.Halt {
		c.halted = true
	}
	return nil
}

// resolveAddress polls every address-capable component and arbitrates
// the result: exactly one driver when Control.Address names one, none
// when it doesn't.
func (c *Chip) resolveAddress(ctl control.Control, op uint16) (uint16, error) {
	var (
		addr  uint16
		found bool
	)
	for _, comp := range c.components() {
		v, ok := comp.Address()
		if !ok {
			continue
		}
		if found {
			return 0, &cpuerr.AddressBusConflict{Op: op, Name: comp.Name()}
		}
		addr, found = v, true
	}
	if ctl.Address != control.AddrNone && !found {
		return 0, &cpuerr.AddressBusUnused{Op: op}
	}
	return addr, nil
}

// resolveData polls every data-capable component (plus Memory) and
// arbitrates the result: at most one driver, and exactly one if
// anything this half-cycle requested a load.
func (c *Chip) resolveData(ctl control.Control, op uint16) (*uint16, error) {
	var (
		value uint16
		found bool
	)
	for _, comp := range c.components() {
		v, ok := comp.Data()
		if !ok {
			continue
		}
		if found {
			return nil, &cpuerr.DataBusConflict{Op: op, Name: comp.Name()}
		}
		value, found = v, true
	}
	if memValue, memOK, err := c.mem.Data(); err != nil {
		return nil, err
	} else if memOK {
		if found {
			return nil, &cpuerr.DataBusConflict{Op: op, Name: c.mem.Name()}
		}
		value, found = memValue, true
	}

	if !found {
		if wantsLoad(ctl) {
			return nil, &cpuerr.DataBusUnused{Op: op}
		}
		return nil, nil
	}
	return &value, nil
}

func wantsLoad(c control.Control) bool {
	if c.Register.Load != control.RegNone || c.PC.Load || c.LR.Load ||
		c.A.Load || c.I.Load || c.Flags.Load || c.Memory.Load {
		return true
	}
	for i := range c.S {
		if c.S[i].Load {
			return true
		}
	}
	for i := range c.Alu.T {
		if c.Alu.T[i].Load {
			return true
		}
	}
	return false
}
