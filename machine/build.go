// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package machine

import (
	"fmt"
	"strconv"

	"github.com/db47h/minimax"
	"github.com/db47h/minimax/parts"
	"github.com/db47h/minimax/signal"
	"github.com/pkg/errors"
)

// Part ids and control signal names.
//
const (
	ALU     = "ALU"
	MuxA    = "MuxA"
	MuxB    = "MuxB"
	Mem     = "Mem"
	MDRMux  = "MDR.Mux"
	SelA    = "ALUSelA"
	SelB    = "ALUSelB"
	AluCtrl = "ALUCtrl"
	MDRSel  = "MDR.Sel"
	MemCS   = "Mem.CS"
	MemRW   = "Mem.RW"
	Halt    = "HALT"

	// Zero is the pin read by conditional jumps on a zero ALU result.
	Zero = ALU + "." + parts.PinZero
)

// WriteEnable returns the name of the write enable signal of register reg.
func WriteEnable(reg string) string { return reg + ".W" }

func constID(v uint32) string { return "CONST_" + strconv.FormatUint(uint64(v), 10) }

// A Machine is a built minimax datapath with its signal configuration.
//
type Machine struct {
	Topology *minimax.Topology
	Signals  *signal.Config
	Alu      *parts.Alu
	Memory   *parts.Memory

	registers []string
}

// Registers returns the register names, base registers first.
func (m *Machine) Registers() []string { return append([]string(nil), m.registers...) }

// Register returns the named register.
//
func (m *Machine) Register(name string) (*parts.Register, error) {
	return minimax.Lookup[*parts.Register](m.Topology, name)
}

// Build builds the machine described by d. The returned topology is reset.
//
func Build(d Description) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	ops, err := parts.LookupAluOps(d.AluOps...)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "%v", err)
	}
	regs := append([]string(nil), BaseRegisters...)
	inits := make(map[string]uint32)
	for _, r := range d.Registers {
		regs = append(regs, r.Name)
		inits[r.Name] = r.Init
	}

	t := minimax.NewTopology()
	for _, r := range regs {
		if err = t.AddPart(r, parts.NewRegister(d.Width, inits[r])); err != nil {
			return nil, errors.Wrapf(err, "register %s", r)
		}
	}
	if err = t.AddGroup(aluGroup(d, ops)); err != nil {
		return nil, err
	}
	mem, err := parts.NewMemory(d.Width, d.Memory.AddrWidth)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalid, "%v", err)
	}
	if err = mem.Load(d.Memory.Image); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "%v", err)
	}
	if err = t.AddGroup(memoryGroup(d, mem)); err != nil {
		return nil, err
	}
	for _, r := range regs {
		if err = t.AddGroup(registerGroup(d, r)); err != nil {
			return nil, err
		}
	}

	signals := []signal.Signal{
		{Name: SelA, Width: parts.SelWidth(len(d.MuxA))},
		{Name: SelB, Width: parts.SelWidth(len(d.MuxB))},
		{Name: AluCtrl, Width: parts.SelWidth(len(ops))},
		{Name: MDRSel, Width: 1},
		{Name: MemCS, Width: 1},
		{Name: MemRW, Width: 1},
	}
	for _, r := range regs {
		signals = append(signals, signal.Signal{Name: WriteEnable(r), Width: 1})
	}
	signals = append(signals, signal.Signal{Name: Halt, Width: 1})
	cfg, err := signal.NewConfig(d.Version, Halt, signals...)
	if err != nil {
		return nil, err
	}

	if err = t.Reset(); err != nil {
		return nil, err
	}
	alu, _ := minimax.Lookup[*parts.Alu](t, ALU)
	return &Machine{
		Topology:  t,
		Signals:   cfg,
		Alu:       alu,
		Memory:    mem,
		registers: regs,
	}, nil
}

// aluGroup holds the ALU, its operand muxes with their constant sources and
// the ALU control ports.
//
func aluGroup(d Description, ops []parts.AluOp) *minimax.Group {
	g := minimax.NewGroup(ALU)
	consts := make(map[uint32]bool)
	for _, src := range [][]Source{d.MuxA, d.MuxB} {
		for _, s := range src {
			if s.Constant != nil && !consts[*s.Constant] {
				consts[*s.Constant] = true
				g.Add(constID(*s.Constant), parts.NewConstant(d.Width, *s.Constant))
			}
		}
	}
	g.Add(MuxA, parts.NewMux(d.Width, len(d.MuxA))).
		Add(MuxB, parts.NewMux(d.Width, len(d.MuxB))).
		Add(ALU, parts.NewAlu(d.Width, ops)).
		Add(SelA, parts.NewPort(parts.SelWidth(len(d.MuxA)), 0)).
		Add(SelB, parts.NewPort(parts.SelWidth(len(d.MuxB)), 0)).
		Add(AluCtrl, parts.NewPort(parts.SelWidth(len(ops)), 0))
	for _, m := range []struct {
		id  string
		src []Source
	}{{MuxA, d.MuxA}, {MuxB, d.MuxB}} {
		for i, s := range m.src {
			from := s.Register
			if s.Constant != nil {
				from = constID(*s.Constant)
			}
			g.Wire(fmt.Sprintf("%s.out=%s.in%d", from, m.id, i))
		}
	}
	return g.Wire("ALUSelA.out=MuxA.sel, ALUSelB.out=MuxB.sel, ALUCtrl.out=ALU.ctrl").
		Wire("MuxA.out=ALU.a, MuxB.out=ALU.b")
}

// registerGroup connects register r to the ALU result through a junction and
// adds its write enable port. MDR is fed through the MDR mux instead.
//
func registerGroup(d Description, r string) *minimax.Group {
	j := r + "_j"
	g := minimax.NewGroup(r).
		Add(j, parts.NewJunction(d.Width, 2)).
		Add(WriteEnable(r), parts.NewPort(1, 0)).
		Add(r+"_label", parts.NewLabel(WriteEnable(r))).
		Wire(fmt.Sprintf("ALU.out=%[1]s.in, %[2]s.W.out=%[2]s.we", j, r))
	if r == MDR {
		return g.Wire(j + ".out0=MDR.Mux.in0")
	}
	return g.Wire(fmt.Sprintf("%s.out0=%s.in", j, r))
}

// memoryGroup holds the memory, its control ports and the MDR input mux.
//
func memoryGroup(d Description, mem *parts.Memory) *minimax.Group {
	return minimax.NewGroup(Mem).
		Add(Mem, mem).
		Add(MemCS, parts.NewPort(1, 0)).
		Add(MemRW, parts.NewPort(1, 0)).
		Add(MDRMux, parts.NewMux(d.Width, 2)).
		Add(MDRSel, parts.NewPort(1, 0)).
		Wire("MAR.out=Mem.addr, MDR.out=Mem.data, Mem.CS.out=Mem.cs, Mem.RW.out=Mem.rw").
		Wire("Mem.out=MDR.Mux.in1, MDR.Sel.out=MDR.Mux.sel, MDR.Mux.out=MDR.in")
}
