// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import "github.com/db47h/minimax"

// Junction is a fan-out splitter.
//
//	Inputs: in[width]
//	Outputs: out0[width], out1[width], ... out{n-1}[width]
//	Function: for i := range out { out[i] = in }
//
type Junction struct {
	minimax.Pins
	in   *minimax.Pin
	outs []*minimax.Pin
}

// NewJunction returns a junction with n outputs.
//
func NewJunction(width uint, n int) *Junction {
	j := new(Junction)
	j.in = j.AddIn(PinIn, width)
	for i := 0; i < n; i++ {
		j.AddPort()
	}
	return j
}

// AddPort adds a new output pin to an unmounted junction and returns it.
//
func (j *Junction) AddPort() *minimax.Pin {
	o := j.AddOut(indexed(PinOut, len(j.outs)), j.in.Width())
	j.outs = append(j.outs, o)
	return o
}

// Kind implements minimax.Part.
func (j *Junction) Kind() minimax.Kind { return minimax.KindJunction }

// Update implements minimax.Part.
func (j *Junction) Update() {
	v := j.in.Value()
	for _, o := range j.outs {
		o.Set(v)
	}
}

// Reset implements minimax.Part. A junction has no state.
func (j *Junction) Reset() {}
