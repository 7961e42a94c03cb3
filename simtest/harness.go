// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing parts.
//
package simtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/minimax"
	"github.com/db47h/minimax/parts"
)

// PartID is the id of the part under test in a Harness topology.
const PartID = "dut"

// A Harness mounts a single part in a topology, with every input pin driven
// by a port.
//
type Harness struct {
	T     *minimax.Topology
	Part  minimax.Part
	tb    testing.TB
	ports map[string]*parts.Port
}

// New returns a new harness for p. The circuit is reset.
//
func New(tb testing.TB, p minimax.Part) *Harness {
	tb.Helper()
	h := &Harness{
		T:     minimax.NewTopology(),
		Part:  p,
		tb:    tb,
		ports: make(map[string]*parts.Port),
	}
	if err := h.T.AddPart(PartID, p); err != nil {
		tb.Fatal(err)
	}
	for _, in := range p.Inputs() {
		port := parts.NewPort(in.Width(), 0)
		id := "port_" + in.Name()
		if err := h.T.AddPart(id, port); err != nil {
			tb.Fatal(err)
		}
		if err := h.T.Connect(minimax.Ref(id, parts.PinOut), minimax.Ref(PartID, in.Name()), 0); err != nil {
			tb.Fatal(err)
		}
		h.ports[in.Name()] = port
	}
	if err := h.T.Reset(); err != nil {
		tb.Fatal(err)
	}
	return h
}

// Set drives input pin name with v and settles the circuit.
//
func (h *Harness) Set(name string, v uint32) {
	h.tb.Helper()
	port, ok := h.ports[name]
	if !ok {
		h.tb.Fatalf("no input pin %q", name)
	}
	if port.Set(v) {
		if err := h.T.Settle(port); err != nil {
			h.tb.Fatal(err)
		}
	}
}

// Get returns the value of pin name of the part under test.
//
func (h *Harness) Get(name string) uint32 {
	h.tb.Helper()
	pin := h.Part.Pin(name)
	if pin == nil {
		h.tb.Fatalf("no pin %q", name)
	}
	return pin.Value()
}

// Clock triggers a clock edge and settles the circuit.
//
func (h *Harness) Clock() {
	h.tb.Helper()
	if err := h.T.Settle(h.T.Clock()...); err != nil {
		h.tb.Fatal(err)
	}
}

// RandomWord returns a random word of the given width.
//
func RandomWord(r *rand.Rand, width uint) uint32 {
	return minimax.Mask(r.Uint32(), width)
}

func pinNames(pins []*minimax.Pin) []string {
	names := make([]string, len(pins))
	for i, p := range pins {
		names[i] = p.Name() + fmt.Sprintf("[%d]", p.Width())
	}
	return names
}

// CompareParts takes two parts and compares their outputs given the same
// random inputs, rounds times. Both parts must have the same pin interface.
// Stateful parts are clocked after each round.
//
func CompareParts(tb testing.TB, rounds int, p1, p2 minimax.Part) {
	tb.Helper()

	in1, in2 := pinNames(p1.Inputs()), pinNames(p2.Inputs())
	out1, out2 := pinNames(p1.Outputs()), pinNames(p2.Outputs())
	if strings.Join(in1, ",") != strings.Join(in2, ",") {
		tb.Fatalf("input pins differ: %v != %v", in1, in2)
	}
	if strings.Join(out1, ",") != strings.Join(out2, ",") {
		tb.Fatalf("output pins differ: %v != %v", out1, out2)
	}

	h1, h2 := New(tb, p1), New(tb, p2)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	vals := make([]uint32, len(p1.Inputs()))

	for i := 0; i < rounds; i++ {
		for j, in := range p1.Inputs() {
			vals[j] = RandomWord(r, in.Width())
			h1.Set(in.Name(), vals[j])
			h2.Set(in.Name(), vals[j])
		}
		for _, o := range p1.Outputs() {
			if v1, v2 := h1.Get(o.Name()), h2.Get(o.Name()); v1 != v2 {
				tb.Fatalf("inputs %v: %s = %#x, expected %#x", vals, o.Name(), v2, v1)
			}
		}
		h1.Clock()
		h2.Clock()
	}
}
