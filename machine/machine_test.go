package machine_test

import (
	"context"
	"strings"
	"testing"

	"github.com/db47h/minimax"
	"github.com/db47h/minimax/debugger"
	"github.com/db47h/minimax/machine"
	"github.com/db47h/minimax/signal"
	"github.com/pkg/errors"
)

func build(t *testing.T, d machine.Description) *machine.Machine {
	t.Helper()
	m, err := machine.Build(d)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return m
}

func TestBuild_signals(t *testing.T) {
	d := machine.Default()
	d.Registers = []machine.Register{{Name: "R0", Init: 42}}
	m := build(t, d)
	exp := []struct {
		name  string
		width uint
	}{
		{"ALUSelA", 2}, {"ALUSelB", 2}, {"ALUCtrl", 4},
		{"MDR.Sel", 1}, {"Mem.CS", 1}, {"Mem.RW", 1},
		{"PC.W", 1}, {"IR.W", 1}, {"MDR.W", 1}, {"MAR.W", 1}, {"ACCU.W", 1}, {"R0.W", 1},
		{"HALT", 1},
	}
	sigs := m.Signals.Signals()
	if len(sigs) != len(exp) {
		t.Fatalf("got %d signals, expected %d", len(sigs), len(exp))
	}
	for i, s := range sigs {
		if s.Name != exp[i].name || s.Width != exp[i].width {
			t.Errorf("signal %d: got %s[%d], expected %s[%d]", i, s.Name, s.Width, exp[i].name, exp[i].width)
		}
	}
	if m.Signals.Halt() != machine.Halt {
		t.Errorf("halt signal %q", m.Signals.Halt())
	}
	r0, err := m.Register("R0")
	if err != nil {
		t.Fatal(err)
	}
	if r0.State() != 42 {
		t.Errorf("R0 = %d, expected 42", r0.State())
	}
	if rs := m.Registers(); len(rs) != 6 || rs[5] != "R0" {
		t.Errorf("Registers() = %v", rs)
	}
	if _, err = m.Register(machine.ALU); !errors.Is(err, minimax.ErrWrongVariant) {
		t.Errorf("Register(ALU): got %v", err)
	}
}

func TestBuild_errors(t *testing.T) {
	data := []struct {
		name string
		edit func(d *machine.Description)
		err  error
	}{
		{"width", func(d *machine.Description) { d.Width = 0 }, machine.ErrInvalid},
		{"op", func(d *machine.Description) { d.AluOps = append(d.AluOps, "A NAND B") }, machine.ErrInvalid},
		{"noops", func(d *machine.Description) { d.AluOps = nil }, machine.ErrInvalid},
		{"source", func(d *machine.Description) { d.MuxA = append(d.MuxA, machine.Source{}) }, machine.ErrInvalid},
		{"both", func(d *machine.Description) {
			s := machine.Const(1)
			s.Register = machine.PC
			d.MuxB = append(d.MuxB, s)
		}, machine.ErrInvalid},
		{"const", func(d *machine.Description) { d.Width = 8; d.MuxA = append(d.MuxA, machine.Const(256)) }, machine.ErrInvalid},
		{"addr", func(d *machine.Description) { d.Width = 8; d.Memory.AddrWidth = 12 }, machine.ErrInvalid},
		{"image", func(d *machine.Description) { d.Memory.AddrWidth = 1; d.Memory.Image = []uint32{1, 2, 3} }, machine.ErrInvalid},
		{"regname", func(d *machine.Description) { d.Registers = []machine.Register{{Name: "R 0"}} }, machine.ErrInvalid},
		{"dup", func(d *machine.Description) { d.Registers = []machine.Register{{Name: "ACCU"}} }, minimax.ErrDuplicateID},
		{"unknown", func(d *machine.Description) { d.MuxB = append(d.MuxB, machine.Reg("R7")) }, minimax.ErrPartNotFound},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			desc := machine.Default()
			d.edit(&desc)
			m, err := machine.Build(desc)
			if !errors.Is(err, d.err) || m != nil {
				t.Fatalf("got %v, %v, expected %v", m, err, d.err)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	d, err := machine.Decode(strings.NewReader(`
width: 16
registers:
  - {name: R0, init: 7}
mux_a:
  - constant: 0
  - register: R0
memory:
  address_width: 8
  image: [1, 2, 3]
`))
	if err != nil {
		t.Fatal(err)
	}
	if d.Width != 16 || len(d.AluOps) != 16 || len(d.MuxA) != 2 || len(d.MuxB) != 3 || d.Memory.AddrWidth != 8 {
		t.Fatalf("bad description %+v", d)
	}
	m := build(t, d)
	if w, _ := m.Memory.Word(2); w != 3 || m.Memory.Size() != 256 {
		t.Fatalf("bad memory: word 2 = %d, size %d", w, m.Memory.Size())
	}
	if _, err = machine.Decode(strings.NewReader("widht: 8\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
	if d, err = machine.Decode(strings.NewReader("")); err != nil || d.Width != 32 {
		t.Fatalf("empty document: %v, %+v", err, d)
	}
}

// program loads mem[0] into ACCU, counts it down and writes the result back
// to mem[0], incrementing PC on the way.
const program = `
rows:
  - label: load
    description: MAR <- 0
    set: {ALUSelA: 0, ALUCtrl: 7, MAR.W: 1}
  - description: MDR <- mem[MAR]
    set: {Mem.CS: 1, MDR.Sel: 1, MDR.W: 1}
  - description: ACCU <- MDR
    set: {ALUSelB: 0, ALUCtrl: 8, ACCU.W: 1}
  - label: loop
    description: ACCU <- ACCU-1
    set: {ALUSelA: 2, ALUCtrl: 15, ACCU.W: 1}
    jump: {if: ALU.zero, then: store, else: loop}
  - label: store
    description: MDR <- ACCU
    set: {ALUSelA: 2, ALUCtrl: 7, MDR.W: 1}
  - description: mem[MAR] <- MDR, PC <- PC+1
    set: {Mem.CS: 1, Mem.RW: 1, ALUSelA: 1, ALUSelB: 1, ALUCtrl: 0, PC.W: 1}
  - label: end
    set: {HALT: 1}
`

func TestMachine_run(t *testing.T) {
	d := machine.Default()
	d.Memory = machine.Memory{AddrWidth: 4, Image: []uint32{7}}
	m := build(t, d)
	tbl, err := signal.Decode(strings.NewReader(program), m.Signals)
	if err != nil {
		t.Fatal(err)
	}
	dbg := debugger.New(m.Topology)
	if err = dbg.Load(tbl); err != nil {
		t.Fatal(err)
	}
	if err = dbg.Run(context.Background()); err != nil {
		t.Fatalf("%+v", err)
	}
	st := dbg.ExecutionState()
	if st.State != debugger.Halted || st.Err != nil || st.Row != 6 || st.Cycle != 12 {
		t.Fatalf("bad final state %+v", st)
	}
	snap := dbg.Snapshot()
	for r, exp := range map[string]uint32{"ACCU": 1, "MDR": 1, "MAR": 0, "PC": 1, "IR": 0} {
		if v := snap.Registers[r]; v != exp {
			t.Errorf("%s = %d, expected %d", r, v, exp)
		}
	}
	if w, _ := m.Memory.Word(0); w != 1 {
		t.Errorf("mem[0] = %d, expected 1", w)
	}

	// reset restores the memory image
	if err = dbg.Reset(); err != nil {
		t.Fatal(err)
	}
	if w, _ := m.Memory.Word(0); w != 7 {
		t.Errorf("mem[0] = %d after reset, expected 7", w)
	}
}
