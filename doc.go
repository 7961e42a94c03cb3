/*
Package minimax provides the simulation kernel of the minimax CPU
microarchitecture: a fixed datapath of functional units (registers, ALU,
multiplexers, ...) connected by wires and driven one micro-instruction at a
time.

A machine is a Topology: a set of Parts, each exposing typed input and output
Pins, and Wires binding exactly one output pin to one input pin. Parts are
added in a well defined order which is also the order in which the
propagation engine processes them, making every simulation reproducible.

Parts are updated by Settle, which walks all parts depending on a set of dirty
parts until the circuit reaches a fixed point. State holding parts (registers,
memory) only change on an explicit clock edge (Clock), which is what keeps
feedback paths from looping forever:

	t := minimax.NewTopology()
	t.AddPart("a", parts.NewConstant(32, 2))
	t.AddPart("b", parts.NewConstant(32, 3))
	t.AddPart("alu", parts.NewAlu(32, parts.DefaultAluOps))
	t.Connect("a.out", "alu.a", 0)
	t.Connect("b.out", "alu.b", 0)
	t.Reset()

The micro-program driving the datapath lives in package signal and is executed
by package debugger.

*/
package minimax
