// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import "github.com/pkg/errors"

// Configuration errors. They are returned when assembling a Topology and are
// usually wrapped with the offending part or pin name; use errors.Is to test
// for them.
//
var (
	ErrDuplicateID   = errors.New("duplicate part id")
	ErrPartNotFound  = errors.New("part not found")
	ErrPinNotFound   = errors.New("pin not found")
	ErrWrongVariant  = errors.New("wrong part variant")
	ErrPinConnected  = errors.New("input pin already connected")
	ErrWidthMismatch = errors.New("wire width mismatch")
	ErrDirection     = errors.New("wire must connect an output pin to an input pin")
	ErrDanglingPin   = errors.New("pin does not belong to a part of this topology")
)

// ErrOscillation is returned by Settle when the circuit does not reach a fixed
// point within the configured update budget. It denotes a combinational loop
// in the topology.
//
var ErrOscillation = errors.New("circuit does not settle")

// ErrMounted is returned when adding a part that already belongs to a
// topology.
//
var ErrMounted = errors.New("part already mounted")
