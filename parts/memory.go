// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import (
	"github.com/db47h/minimax"
	"github.com/pkg/errors"
)

// MaxAddrWidth is the widest address bus supported by Memory.
const MaxAddrWidth = 20

// Memory is a word addressed RAM.
//
//	Inputs: addr[addrWidth], data[width], cs, rw
//	Outputs: out[width]
//	Function: if cs { out = words[addr] } else { out = 0 }
//	Clock edge: if cs && rw { words[addr] = data }
//
type Memory struct {
	minimax.Pins
	addr, data, cs, rw *minimax.Pin
	out                *minimax.Pin
	words, image       []uint32
}

// NewMemory returns a new memory of 1<<addrWidth words.
//
func NewMemory(width, addrWidth uint) (*Memory, error) {
	if addrWidth == 0 || addrWidth > MaxAddrWidth {
		return nil, errors.Errorf("invalid memory address width %d", addrWidth)
	}
	m := &Memory{
		words: make([]uint32, 1<<addrWidth),
		image: make([]uint32, 1<<addrWidth),
	}
	m.addr = m.AddIn(PinAddr, addrWidth)
	m.data = m.AddIn(PinData, width)
	m.cs = m.AddIn(PinCS, 1)
	m.rw = m.AddIn(PinRW, 1)
	m.out = m.AddOut(PinOut, width)
	return m, nil
}

// Kind implements minimax.Part.
func (m *Memory) Kind() minimax.Kind { return minimax.KindMemory }

// Update implements minimax.Part.
func (m *Memory) Update() {
	if m.cs.Bool() {
		m.out.Set(m.words[m.addr.Value()])
	} else {
		m.out.Set(0)
	}
}

// Latch implements minimax.Latcher.
//
func (m *Memory) Latch() bool {
	if !m.cs.Bool() || !m.rw.Bool() {
		return false
	}
	a, v := m.addr.Value(), m.data.Value()
	if m.words[a] == v {
		return false
	}
	m.words[a] = v
	return true
}

// Reset implements minimax.Part. The memory content is restored to the image
// set by Load.
//
func (m *Memory) Reset() { copy(m.words, m.image) }

// Load sets the power-on content of the memory, starting at address 0, and
// resets the memory to it.
//
func (m *Memory) Load(image []uint32) error {
	if len(image) > len(m.image) {
		return errors.Errorf("memory image too large: %d words, capacity %d", len(image), len(m.image))
	}
	w := m.out.Width()
	for i := range m.image {
		m.image[i] = 0
		if i < len(image) {
			m.image[i] = minimax.Mask(image[i], w)
		}
	}
	m.Reset()
	return nil
}

// Word returns the word at address a.
//
func (m *Memory) Word(a uint32) (uint32, error) {
	if int(a) >= len(m.words) {
		return 0, errors.Errorf("address %#x out of range", a)
	}
	return m.words[a], nil
}

// Size returns the memory size in words.
func (m *Memory) Size() int { return len(m.words) }
