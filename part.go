// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

// Kind identifies a Part variant.
//
type Kind string

// Part variants known to the kernel. Custom parts may use their own Kind.
//
const (
	KindRegister Kind = "register"
	KindJunction Kind = "junction"
	KindAlu      Kind = "alu"
	KindMux      Kind = "mux"
	KindPort     Kind = "port"
	KindConstant Kind = "constant"
	KindMemory   Kind = "memory"
	KindLabel    Kind = "label"
)

// A Part is a node in the circuit graph.
//
// Update recomputes the part's output pins from the current values of its
// input pins and internal state. It must not read pins other than its own
// inputs and must never fail: out of range values are masked to the pin
// widths.
//
// Reset returns the internal state of the part to its power-on value.
//
type Part interface {
	Kind() Kind
	Inputs() []*Pin
	Outputs() []*Pin
	Pin(name string) *Pin
	Update()
	Reset()
}

// A Latcher is a state holding part whose state only changes on a clock edge.
//
// Latch samples the part's inputs and updates its internal state if its write
// enable input is asserted. It reports whether the state changed. Outputs are
// not updated by Latch; the propagation engine calls Update afterwards.
//
type Latcher interface {
	Part
	Latch() bool
}

// Stateful is implemented by parts exposing a latched word, like registers.
//
type Stateful interface {
	Part
	State() uint32
}

// Pins is a helper that implements the pin related methods of the Part
// interface. It is meant to be embedded in Part implementations:
//
//	type not struct {
//		minimax.Pins
//		in, out *minimax.Pin
//	}
//
//	func newNot() *not {
//		n := new(not)
//		n.in = n.AddIn("in", 1)
//		n.out = n.AddOut("out", 1)
//		return n
//	}
//
type Pins struct {
	ins  []*Pin
	outs []*Pin
}

// AddIn adds a new input pin.
func (p *Pins) AddIn(name string, width uint) *Pin {
	pin := NewPin(name, In, width)
	p.ins = append(p.ins, pin)
	return pin
}

// AddOut adds a new output pin.
func (p *Pins) AddOut(name string, width uint) *Pin {
	pin := NewPin(name, Out, width)
	p.outs = append(p.outs, pin)
	return pin
}

// Inputs returns the input pins in declaration order.
func (p *Pins) Inputs() []*Pin { return p.ins }

// Outputs returns the output pins in declaration order.
func (p *Pins) Outputs() []*Pin { return p.outs }

// Pin returns the pin with the given name or nil if no such pin exists.
//
func (p *Pins) Pin(name string) *Pin {
	for _, pin := range p.ins {
		if pin.name == name {
			return pin
		}
	}
	for _, pin := range p.outs {
		if pin.name == name {
			return pin
		}
	}
	return nil
}
