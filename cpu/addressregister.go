package cpu

import "github.com/araneavalon/cpu16/control"

// AddressRegister is a scratch register: it can only be loaded and
// can only drive the address bus, never the data bus — it exists
// purely to hold one half-cycle's computed address for the next.
type AddressRegister struct {
	base
	control control.Control
	value   uint16
}

func NewAddressRegister() *AddressRegister { return &AddressRegister{} }

func (a *AddressRegister) Name() string                { return "AddressRegister" }
func (a *AddressRegister) SetControl(c control.Control) { a.control = c }

func (a *AddressRegister) Load(value uint16) {
	if a.control.A.Load {
		a.value = value
	}
}

func (a *AddressRegister) Address() (uint16, bool) {
	if a.control.Address == control.AddrA {
		return a.value, true
	}
	return 0, false
}
