// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package parts

import (
	"github.com/db47h/minimax"
	"github.com/pkg/errors"
)

// An AluOp is an ALU operation. Fn computes the result for operands a and b
// of the given width. The result is masked to width by the ALU.
//
type AluOp struct {
	Name string
	Fn   func(a, b uint32, width uint) uint32
}

func shamt(b uint32, width uint) uint {
	return uint(b) % width
}

func signExtend(a uint32, width uint) int32 {
	s := 32 - width
	return int32(a<<s) >> s
}

func rotl(a uint32, n, width uint) uint32 {
	if n == 0 {
		return a
	}
	return a<<n | minimax.Mask(a, width)>>(width-n)
}

// DefaultAluOps is the operation set of the minimax ALU. The opcode of an
// operation is its index in this slice.
//
var DefaultAluOps = []AluOp{
	{"A ADD B", func(a, b uint32, _ uint) uint32 { return a + b }},
	{"A SUB B", func(a, b uint32, _ uint) uint32 { return a - b }},
	{"A MUL B", func(a, b uint32, _ uint) uint32 { return a * b }},
	{"A AND B", func(a, b uint32, _ uint) uint32 { return a & b }},
	{"A OR B", func(a, b uint32, _ uint) uint32 { return a | b }},
	{"A XOR B", func(a, b uint32, _ uint) uint32 { return a ^ b }},
	{"NOT A", func(a, _ uint32, _ uint) uint32 { return ^a }},
	{"TRANS.A", func(a, _ uint32, _ uint) uint32 { return a }},
	{"TRANS.B", func(_, b uint32, _ uint) uint32 { return b }},
	{"A SLL B", func(a, b uint32, w uint) uint32 { return a << shamt(b, w) }},
	{"A SRL B", func(a, b uint32, w uint) uint32 { return a >> shamt(b, w) }},
	{"A SRA B", func(a, b uint32, w uint) uint32 { return uint32(signExtend(a, w) >> shamt(b, w)) }},
	{"A ROL B", func(a, b uint32, w uint) uint32 { return rotl(a, shamt(b, w), w) }},
	{"A ROR B", func(a, b uint32, w uint) uint32 {
		n := shamt(b, w)
		if n == 0 {
			return a
		}
		return rotl(a, w-n, w)
	}},
	{"A+1", func(a, _ uint32, _ uint) uint32 { return a + 1 }},
	{"A-1", func(a, _ uint32, _ uint) uint32 { return a - 1 }},
}

// LookupAluOps returns the operations of DefaultAluOps with the given names,
// in the given order.
//
func LookupAluOps(names ...string) ([]AluOp, error) {
	ops := make([]AluOp, 0, len(names))
L:
	for _, n := range names {
		for _, op := range DefaultAluOps {
			if op.Name == n {
				ops = append(ops, op)
				continue L
			}
		}
		return nil, errors.Errorf("unknown ALU operation %q", n)
	}
	return ops, nil
}

// Alu is the arithmetic and logic unit.
//
//	Inputs: a[width], b[width], ctrl[SelWidth(len(ops))]
//	Outputs: out[width], zero, neg
//	Function: out = ops[ctrl](a, b) // 0 if ctrl is not a valid opcode
//	          zero = out == 0
//	          neg = msb(out)
//
// Results wrap around: they are always masked to the ALU width.
//
type Alu struct {
	minimax.Pins
	a, b, ctrl     *minimax.Pin
	out, zero, neg *minimax.Pin
	width          uint
	ops            []AluOp
}

// NewAlu returns a new ALU implementing the given operations.
//
func NewAlu(width uint, ops []AluOp) *Alu {
	alu := &Alu{ops: ops}
	alu.a = alu.AddIn(PinA, width)
	alu.b = alu.AddIn(PinB, width)
	alu.ctrl = alu.AddIn(PinCtrl, SelWidth(len(ops)))
	alu.out = alu.AddOut(PinOut, width)
	alu.zero = alu.AddOut(PinZero, 1)
	alu.neg = alu.AddOut(PinNeg, 1)
	alu.width = alu.out.Width()
	return alu
}

// Kind implements minimax.Part.
func (alu *Alu) Kind() minimax.Kind { return minimax.KindAlu }

// Update implements minimax.Part.
func (alu *Alu) Update() {
	var r uint32
	if op := int(alu.ctrl.Value()); op < len(alu.ops) {
		r = minimax.Mask(alu.ops[op].Fn(alu.a.Value(), alu.b.Value(), alu.width), alu.width)
	}
	alu.out.Set(r)
	alu.zero.Set(b2u(r == 0))
	alu.neg.Set(r >> (alu.width - 1))
}

// Reset implements minimax.Part. The ALU has no state.
func (alu *Alu) Reset() {}

// Ops returns the ALU operations.
func (alu *Alu) Ops() []AluOp { return alu.ops }

// Opcode returns the opcode of the named operation, or -1.
//
func (alu *Alu) Opcode(name string) int {
	for i, op := range alu.ops {
		if op.Name == name {
			return i
		}
	}
	return -1
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
