// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package parts provides the functional units of the minimax datapath.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package parts

import (
	"math/bits"
	"strconv"
)

// common pin names
const (
	PinA    = "a"
	PinB    = "b"
	PinIn   = "in"
	PinOut  = "out"
	PinSel  = "sel"
	PinWE   = "we"
	PinCtrl = "ctrl"
	PinZero = "zero"
	PinNeg  = "neg"
	PinAddr = "addr"
	PinData = "data"
	PinCS   = "cs"
	PinRW   = "rw"
)

// indexed returns the name of the i-th pin of a pin array.
//
//	indexed("out", 2) // "out2"
//
func indexed(name string, i int) string {
	return name + strconv.Itoa(i)
}

// SelWidth returns the width of a selector able to address n items. It is at
// least 1.
//
func SelWidth(n int) uint {
	if n <= 2 {
		return 1
	}
	return uint(bits.Len(uint(n - 1)))
}
