// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import "github.com/db47h/minimax"

// Port is an externally driven signal source. Control signals of the
// micro-program are written into ports.
//
//	Outputs: out[width]
//	Function: out = value
//
type Port struct {
	minimax.Pins
	out        *minimax.Pin
	def, value uint32
}

// NewPort returns a new port with the given default value.
//
func NewPort(width uint, def uint32) *Port {
	p := new(Port)
	p.out = p.AddOut(PinOut, width)
	p.def = minimax.Mask(def, p.out.Width())
	p.value = p.def
	return p
}

// Kind implements minimax.Part.
func (p *Port) Kind() minimax.Kind { return minimax.KindPort }

// Update implements minimax.Part.
func (p *Port) Update() { p.out.Set(p.value) }

// Reset implements minimax.Part.
func (p *Port) Reset() { p.value = p.def }

// Set sets the port value, masked to the port width, and reports whether it
// changed. The circuit must be settled from p if it did.
//
func (p *Port) Set(v uint32) bool {
	v = minimax.Mask(v, p.out.Width())
	if v == p.value {
		return false
	}
	p.value = v
	return true
}

// Value returns the port value.
func (p *Port) Value() uint32 { return p.value }

// Width returns the port width.
func (p *Port) Width() uint { return p.out.Width() }

// Constant is a constant signal source.
//
//	Outputs: out[width]
//	Function: out = value
//
type Constant struct {
	minimax.Pins
	out   *minimax.Pin
	value uint32
}

// NewConstant returns a new constant.
//
func NewConstant(width uint, v uint32) *Constant {
	c := new(Constant)
	c.out = c.AddOut(PinOut, width)
	c.value = minimax.Mask(v, c.out.Width())
	return c
}

// Kind implements minimax.Part.
func (c *Constant) Kind() minimax.Kind { return minimax.KindConstant }

// Update implements minimax.Part.
func (c *Constant) Update() { c.out.Set(c.value) }

// Reset implements minimax.Part.
func (c *Constant) Reset() {}

// Value returns the constant value.
func (c *Constant) Value() uint32 { return c.value }

// Label is a decorative part without pins.
//
type Label struct {
	minimax.Pins
	text string
}

// NewLabel returns a new label.
//
func NewLabel(text string) *Label {
	return &Label{text: text}
}

// Kind implements minimax.Part.
func (l *Label) Kind() minimax.Kind { return minimax.KindLabel }

// Update implements minimax.Part.
func (l *Label) Update() {}

// Reset implements minimax.Part.
func (l *Label) Reset() {}

// Text returns the label text.
func (l *Label) Text() string { return l.text }
