// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Wire connects one output pin to one input pin.
//
// The declared width of a wire must match the width of its destination and
// must not exceed the width of its source: a wire may narrow a signal, in
// which case the upper bits are dropped, but never widen it. A declared width
// of 0 stands for the destination width.
//
type Wire struct {
	from  *Pin
	to    *Pin
	width uint
}

// NewWire returns a new wire from the output pin from to the input pin to.
//
func NewWire(from, to *Pin, width uint) (*Wire, error) {
	if from == nil || to == nil {
		return nil, errors.Wrap(ErrPinNotFound, "nil wire endpoint")
	}
	if from.dir != Out || to.dir != In {
		return nil, errors.Wrapf(ErrDirection, "%s -> %s", from, to)
	}
	if width == 0 {
		width = to.width
	}
	if width != to.width || width > from.width {
		return nil, errors.Wrapf(ErrWidthMismatch, "%s -> %s: declared width %d", from, to, width)
	}
	return &Wire{from: from, to: to, width: width}, nil
}

// From returns the source pin.
func (w *Wire) From() *Pin { return w.from }

// To returns the destination pin.
func (w *Wire) To() *Pin { return w.to }

// Width returns the wire width.
func (w *Wire) Width() uint { return w.width }

// deliver copies the source value to the destination, masked to the wire
// width, and reports whether the destination value changed.
//
func (w *Wire) deliver() bool {
	return w.to.deliver(Mask(w.from.value, w.width))
}

func (w *Wire) String() string {
	return w.from.String() + " -> " + w.to.String() + " (" + strconv.FormatUint(uint64(w.width), 10) + ")"
}
