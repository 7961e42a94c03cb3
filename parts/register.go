// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import "github.com/db47h/minimax"

// Register is a clocked word register.
//
//	Inputs: in[width], we
//	Outputs: out[width]
//	Function: out = value
//	Clock edge: if we { value = in }
//
// The output always exposes the latched value. A new value is only latched on
// the clock edge (see minimax.Topology.Clock) and only if we is asserted.
//
type Register struct {
	minimax.Pins
	in, we, out *minimax.Pin
	width       uint
	init, value uint32
}

// NewRegister returns a new register of the given width with the given
// power-on value.
//
func NewRegister(width uint, init uint32) *Register {
	r := &Register{width: width}
	r.in = r.AddIn(PinIn, width)
	r.we = r.AddIn(PinWE, 1)
	r.out = r.AddOut(PinOut, width)
	r.width = r.out.Width()
	r.init = minimax.Mask(init, r.width)
	r.value = r.init
	return r
}

// Kind implements minimax.Part.
func (r *Register) Kind() minimax.Kind { return minimax.KindRegister }

// Update implements minimax.Part.
func (r *Register) Update() { r.out.Set(r.value) }

// Reset implements minimax.Part.
func (r *Register) Reset() { r.value = r.init }

// Latch implements minimax.Latcher.
//
func (r *Register) Latch() bool {
	if !r.we.Bool() {
		return false
	}
	v := r.in.Value()
	if v == r.value {
		return false
	}
	r.value = v
	return true
}

// State implements minimax.Stateful.
func (r *Register) State() uint32 { return r.value }

// Set forces the latched value. The circuit must be settled from r
// afterwards.
//
func (r *Register) Set(v uint32) { r.value = minimax.Mask(v, r.width) }

// Width returns the register width.
func (r *Register) Width() uint { return r.width }
