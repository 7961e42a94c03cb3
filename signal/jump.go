// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package signal

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Reader reads the settled value of a circuit signal, given as a pin
// reference like "ALU.zero". *minimax.Topology implements Reader.
//
type Reader interface {
	Read(ref string) (uint32, error)
}

// Cond is the outcome of a jump condition.
//
type Cond int8

// Condition outcomes.
//
const (
	NoCond Cond = iota // no condition evaluated
	CondFalse
	CondTrue
)

func (c Cond) String() string {
	switch c {
	case CondFalse:
		return "false"
	case CondTrue:
		return "true"
	}
	return "-"
}

// FallThrough as a jump target stands for the row following the current one.
//
const FallThrough = -1

// A Jump selects the row to execute after the current one. Next is called
// once the circuit has settled. It does not check that the returned row
// exists.
//
type Jump interface {
	Next(row int, r Reader) (next int, c Cond, err error)
	String() string
}

func target(row, t int) int {
	if t == FallThrough {
		return row + 1
	}
	return t
}

func targetString(t int) string {
	if t == FallThrough {
		return "next"
	}
	return strconv.Itoa(t)
}

// Sequential always advances to the next row.
//
type Sequential struct{}

// Next implements Jump.
func (Sequential) Next(row int, _ Reader) (int, Cond, error) { return row + 1, NoCond, nil }

func (Sequential) String() string { return "next" }

// Fixed always advances to Target.
//
type Fixed struct {
	Target int
}

// Next implements Jump.
func (j Fixed) Next(row int, _ Reader) (int, Cond, error) { return target(row, j.Target), NoCond, nil }

func (j Fixed) String() string { return "goto " + targetString(j.Target) }

// Conditional branches to Then if the settled value of Signal is not zero,
// to Else otherwise.
//
type Conditional struct {
	Signal string
	Then   int
	Else   int
}

// Next implements Jump.
//
func (j Conditional) Next(row int, r Reader) (int, Cond, error) {
	v, err := r.Read(j.Signal)
	if err != nil {
		return 0, NoCond, errors.Wrap(err, "jump condition")
	}
	if v != 0 {
		return target(row, j.Then), CondTrue, nil
	}
	return target(row, j.Else), CondFalse, nil
}

func (j Conditional) String() string {
	return "if " + j.Signal + " then " + targetString(j.Then) + " else " + targetString(j.Else)
}

// Decode computes the next row from circuit state: Base plus the settled
// value of Signal. It is used to dispatch on an opcode.
//
type Decode struct {
	Signal string
	Base   int
}

// Next implements Jump.
//
func (j Decode) Next(_ int, r Reader) (int, Cond, error) {
	v, err := r.Read(j.Signal)
	if err != nil {
		return 0, NoCond, errors.Wrap(err, "decode")
	}
	return j.Base + int(v), NoCond, nil
}

func (j Decode) String() string { return "decode " + j.Signal + " + " + strconv.Itoa(j.Base) }
