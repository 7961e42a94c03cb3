// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"strconv"
)

// MaxWidth is the width of the widest signal in the datapath.
//
const MaxWidth = 32

// Direction of a pin.
//
type Direction uint8

// Pin directions.
//
const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Mask truncates v to its lower width bits. Widths outside of [1, MaxWidth]
// are clamped.
//
func Mask(v uint32, width uint) uint32 {
	if width >= MaxWidth {
		return v
	}
	if width == 0 {
		return 0
	}
	return v & (1<<width - 1)
}

// A Pin is a signal endpoint of a Part. It holds a single word masked to the
// pin width.
//
// Output pins are written by the owning part's Update method, input pins by
// the propagation engine.
//
type Pin struct {
	name  string
	dir   Direction
	width uint
	value uint32
	owner int // index of the owning part in its topology, -1 if not mounted
}

// NewPin returns a new unmounted pin. Widths are clamped to [1, MaxWidth].
//
func NewPin(name string, dir Direction, width uint) *Pin {
	if width == 0 {
		width = 1
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	return &Pin{name: name, dir: dir, width: width, owner: -1}
}

// Name returns the pin name, unique within its part.
func (p *Pin) Name() string { return p.name }

// Dir returns the pin direction.
func (p *Pin) Dir() Direction { return p.dir }

// Width returns the pin width in bits.
func (p *Pin) Width() uint { return p.width }

// Value returns the current pin value.
func (p *Pin) Value() uint32 { return p.value }

// Bool returns true if the pin value is not zero.
func (p *Pin) Bool() bool { return p.value != 0 }

// Set sets the pin value, masked to the pin width. Parts must only call Set
// on their own output pins.
//
func (p *Pin) Set(v uint32) {
	p.value = Mask(v, p.width)
}

// deliver sets the value of an input pin and reports whether it changed.
func (p *Pin) deliver(v uint32) bool {
	v = Mask(v, p.width)
	if p.value == v {
		return false
	}
	p.value = v
	return true
}

func (p *Pin) String() string {
	return p.name + "/" + p.dir.String() + "[" + strconv.FormatUint(uint64(p.width), 10) + "]"
}
