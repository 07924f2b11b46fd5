package memory

import (
	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/cpuerr"
)

// Memory composes RAM, ROM, Screen, and Keyboard into the single bus
// component the rest of the CPU talks to, dispatching by address range
// in the same valid()-probing order as the reference Memory struct:
// RAM, then Screen, then Keyboard, then ROM.
type Memory struct {
	control control.Control
	address uint16

	ram      *RAM
	rom      *ROM
	screen   *Screen
	keyboard *Keyboard
}

// New builds a Memory with rom loaded as the ROM image.
func New(rom []uint16) *Memory {
	return &Memory{
		ram:      NewRAM(),
		rom:      NewROM(rom),
		screen:   NewScreen(),
		keyboard: NewKeyboard(),
	}
}

func (m *Memory) Name() string { return "Memory" }

func (m *Memory) Screen() *Screen     { return m.screen }
func (m *Memory) Keyboard() *Keyboard { return m.keyboard }

// SetAddress latches the address this half-cycle's memory access
// targets; Chip calls this once the address bus has been resolved,
// before Load/Data are invoked.
func (m *Memory) SetAddress(address uint16) { m.address = address }

func (m *Memory) SetControl(c control.Control) { m.control = c }

// Peek reads address directly, bypassing Control entirely. Used by the
// disassembler, which has no business driving the bus just to look at
// a word of ROM/RAM.
func (m *Memory) Peek(address uint16) uint16 {
	v, _ := m.read(address)
	return v
}

func (m *Memory) read(address uint16) (uint16, error) {
	switch {
	case m.ram.Valid(address):
		return m.ram.Read(address), nil
	case m.screen.Valid(address):
		return m.screen.Read(address), nil
	case m.keyboard.Valid(address):
		return m.keyboard.Read(address), nil
	case m.rom.Valid(address):
		return m.rom.Read(address), nil
	default:
		return 0, &cpuerr.Impossible{Op: address, Message: "no component available at this address."}
	}
}

func (m *Memory) write(address uint16, value uint16) error {
	switch {
	case m.ram.Valid(address):
		m.ram.Write(address, value)
		return nil
	case m.screen.Valid(address):
		m.screen.Write(address, value)
		return nil
	case m.keyboard.Valid(address):
		m.keyboard.Write(address, value)
		return nil
	case m.rom.Valid(address):
		return &cpuerr.InvalidWrite{Op: address, Message: "cannot write to ROM."}
	default:
		return &cpuerr.Impossible{Op: address, Message: "no component available at this address."}
	}
}

// Load writes value to the latched address, if Control.Memory.Load is
// asserted this half-cycle.
func (m *Memory) Load(value uint16) error {
	if !m.control.Memory.Load {
		return nil
	}
	return m.write(m.address, value)
}

// Data reads the latched address, if Control.Memory.Out is asserted
// this half-cycle.
func (m *Memory) Data() (uint16, bool, error) {
	if !m.control.Memory.Out {
		return 0, false, nil
	}
	v, err := m.read(m.address)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
