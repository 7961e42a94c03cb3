// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import "github.com/db47h/minimax"

// Mux is an n-way multiplexer.
//
//	Inputs: in0[width], ... in{n-1}[width], sel[SelWidth(n)]
//	Outputs: out[width]
//	Function: if sel < n { out = in[sel] } else { out = 0 }
//
type Mux struct {
	minimax.Pins
	ins []*minimax.Pin
	sel *minimax.Pin
	out *minimax.Pin
}

// NewMux returns an n-way multiplexer.
//
func NewMux(width uint, n int) *Mux {
	m := &Mux{ins: make([]*minimax.Pin, n)}
	for i := range m.ins {
		m.ins[i] = m.AddIn(indexed(PinIn, i), width)
	}
	m.sel = m.AddIn(PinSel, SelWidth(n))
	m.out = m.AddOut(PinOut, width)
	return m
}

// Kind implements minimax.Part.
func (m *Mux) Kind() minimax.Kind { return minimax.KindMux }

// Update implements minimax.Part.
func (m *Mux) Update() {
	if s := int(m.sel.Value()); s < len(m.ins) {
		m.out.Set(m.ins[s].Value())
	} else {
		m.out.Set(0)
	}
}

// Reset implements minimax.Part. A multiplexer has no state.
func (m *Mux) Reset() {}

// Size returns the number of data inputs.
func (m *Mux) Size() int { return len(m.ins) }
