// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package machine builds the minimax datapath from a machine description.
//
// The datapath has the base registers PC, IR, MDR, MAR and ACCU, followed by
// user registers. Every register is written from the ALU result through its
// own junction, under the control of its write enable signal <REG>.W. MDR
// can also be loaded from memory. The ALU operands are selected by the muxes
// MuxA and MuxB from registers or constants. The memory is addressed by MAR
// and written from MDR.
//
// The control signals derived from a description are, in order:
//
//	ALUSelA, ALUSelB, ALUCtrl, MDR.Sel, Mem.CS, Mem.RW, <REG>.W..., HALT
//
// Every signal but HALT is driven by the port with the same id.
//
package machine

import (
	"io"

	"github.com/db47h/minimax"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for invalid machine descriptions.
var ErrInvalid = errors.New("invalid machine description")

var validate = validator.New()

// Base registers.
//
const (
	PC   = "PC"
	IR   = "IR"
	MDR  = "MDR"
	MAR  = "MAR"
	ACCU = "ACCU"
)

// BaseRegisters lists the registers present in every machine.
var BaseRegisters = []string{PC, IR, MDR, MAR, ACCU}

// Description describes a minimax machine.
//
type Description struct {
	// Version is copied to the signal configuration.
	Version int `yaml:"version" validate:"gte=0"`
	// Width is the data path width in bits.
	Width uint `yaml:"width" validate:"min=1,max=32"`
	// Registers lists user registers, added after the base registers.
	Registers []Register `yaml:"registers,omitempty" validate:"dive"`
	// AluOps names the ALU operations in opcode order. See
	// parts.DefaultAluOps.
	AluOps []string `yaml:"alu_ops" validate:"min=1,dive,required"`
	MuxA   []Source `yaml:"mux_a" validate:"min=1,dive"`
	MuxB   []Source `yaml:"mux_b" validate:"min=1,dive"`
	Memory Memory   `yaml:"memory"`
}

// A Register is a user register.
//
type Register struct {
	Name        string `yaml:"name" validate:"required,alphanum"`
	Init        uint32 `yaml:"init,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// A Source is an ALU operand source: either a register or a constant.
//
type Source struct {
	Register string  `yaml:"register,omitempty" validate:"required_without=Constant,excluded_with=Constant"`
	Constant *uint32 `yaml:"constant,omitempty"`
}

// Reg returns a register operand source.
func Reg(name string) Source { return Source{Register: name} }

// Const returns a constant operand source.
func Const(v uint32) Source { return Source{Constant: &v} }

func (s Source) String() string {
	if s.Constant != nil {
		return "constant " + constID(*s.Constant)
	}
	return "register " + s.Register
}

// Memory describes the main memory.
//
type Memory struct {
	// AddrWidth is the address bus width. The memory has 1<<AddrWidth words.
	AddrWidth uint `yaml:"address_width" validate:"min=1,max=20"`
	// Image is the power-on memory content.
	Image []uint32 `yaml:"image,omitempty"`
}

// Default returns the description of the default minimax machine.
//
func Default() Description {
	return Description{
		Version: 1,
		Width:   32,
		AluOps: []string{
			"A ADD B", "A SUB B", "A MUL B", "A AND B",
			"A OR B", "A XOR B", "NOT A", "TRANS.A",
			"TRANS.B", "A SLL B", "A SRL B", "A SRA B",
			"A ROL B", "A ROR B", "A+1", "A-1",
		},
		MuxA:   []Source{Const(0), Const(1), Reg(ACCU)},
		MuxB:   []Source{Reg(MDR), Reg(PC), Reg(IR)},
		Memory: Memory{AddrWidth: 16},
	}
}

// Decode reads a YAML machine description from r. Fields missing from the
// document keep their value from Default.
//
func Decode(r io.Reader) (Description, error) {
	d := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return Description{}, errors.Wrap(err, "decode machine description")
	}
	if err := d.Validate(); err != nil {
		return Description{}, err
	}
	return d, nil
}

// Validate checks the description.
//
func (d *Description) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Wrapf(ErrInvalid, "%v", err)
	}
	if d.Memory.AddrWidth > d.Width {
		return errors.Wrapf(ErrInvalid, "address width %d larger than data path width %d", d.Memory.AddrWidth, d.Width)
	}
	for _, src := range [][]Source{d.MuxA, d.MuxB} {
		for _, s := range src {
			if s.Constant != nil && minimax.Mask(*s.Constant, d.Width) != *s.Constant {
				return errors.Wrapf(ErrInvalid, "%v does not fit in %d bits", s, d.Width)
			}
		}
	}
	if len(d.Memory.Image) > 1<<d.Memory.AddrWidth {
		return errors.Wrapf(ErrInvalid, "memory image of %d words does not fit in %d address bits", len(d.Memory.Image), d.Memory.AddrWidth)
	}
	return nil
}
