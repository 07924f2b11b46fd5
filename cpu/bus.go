// Package cpu assembles the nine bus components and the ControlLogic
// state machine into a single Chip, the top-level half-cycle driver.
package cpu

import "github.com/araneavalon/cpu16/control"

// Component is the interface every bus participant implements. None of
// the nine components can fail to Load/Data/Address — SetControl tells
// a component what this half-cycle wants of it, and the three
// accessors simply answer accordingly; an unset gate just means "I'm
// not participating this cycle," not an error.
type Component interface {
	Name() string
	SetControl(c control.Control)
	Load(value uint16)
	Data() (value uint16, ok bool)
	Address() (value uint16, ok bool)
}

// base gives every component the zero-value Address()/Load() a
// component that never drives the address bus or accepts loads needs,
// the way the reference BusComponent trait supplies default method
// bodies. Embed it and override what you need.
type base struct{}

func (base) Load(uint16)                    {}
func (base) Data() (uint16, bool)           { return 0, false }
func (base) Address() (uint16, bool)        { return 0, false }
