// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package signal

import (
	"io"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// validate is shared by all document types of this package. validator.Validate
// is safe for concurrent use.
var validate = validator.New()

// A document is the persisted form of a signal table:
//
//	version: 1
//	halt: HALT
//	signals:
//	  - {name: ALUCtrl, width: 4}
//	  - {name: ACCU.W, width: 1}
//	  - {name: HALT, width: 1}
//	rows:
//	  - label: inc
//	    set: {ALUCtrl: 14, ACCU.W: 1}
//	    jump: {if: ALU.zero, then: end, else: inc}
//	  - label: end
//	    set: {HALT: 1}
//
// Jump targets are row labels, row indices or "next".
//
type document struct {
	Version int      `yaml:"version" validate:"gte=0"`
	Halt    string   `yaml:"halt,omitempty"`
	Signals []Signal `yaml:"signals,omitempty" validate:"dive"`
	Rows    []rowDoc `yaml:"rows" validate:"dive"`
}

type rowDoc struct {
	Label       string            `yaml:"label,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Set         map[string]uint32 `yaml:"set,omitempty"`
	Jump        *jumpDoc          `yaml:"jump,omitempty"`
}

type jumpDoc struct {
	Goto   string `yaml:"goto,omitempty" validate:"excluded_with=If Decode"`
	If     string `yaml:"if,omitempty" validate:"required_with=Then Else,excluded_with=Decode"`
	Then   string `yaml:"then,omitempty" validate:"required_with=If"`
	Else   string `yaml:"else,omitempty"`
	Decode string `yaml:"decode,omitempty"`
	Base   int    `yaml:"base,omitempty" validate:"gte=0"`
}

// Decode reads a signal table document from r.
//
// If cfg is nil, the signal configuration is read from the document.
// Otherwise the rows are validated against cfg, and any signal declarations
// in the document must match cfg.
//
func Decode(r io.Reader, cfg *Config) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode signal table")
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "%v", err)
	}

	if len(doc.Signals) > 0 || cfg == nil {
		dc, err := NewConfig(doc.Version, doc.Halt, doc.Signals...)
		if err != nil {
			return nil, err
		}
		if cfg != nil && !cfg.Equal(dc) {
			return nil, errors.Wrap(ErrInvalid, "document signals do not match the machine signal configuration")
		}
		if cfg == nil {
			cfg = dc
		}
	}

	labels := make(map[string]int)
	for i, rd := range doc.Rows {
		if rd.Label == "" {
			continue
		}
		if err := checkLabel(rd.Label); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		if _, ok := labels[rd.Label]; ok {
			return nil, errors.Wrapf(ErrInvalid, "duplicate row label %q", rd.Label)
		}
		labels[rd.Label] = i
	}
	resolve := func(t string) (int, error) {
		switch t {
		case "", "next":
			return FallThrough, nil
		}
		if i, ok := labels[t]; ok {
			return i, nil
		}
		i, err := strconv.Atoi(t)
		if err != nil || i < 0 {
			return 0, errors.Wrapf(ErrInvalid, "unknown jump target %q", t)
		}
		return i, nil
	}

	rows := make([]Row, len(doc.Rows))
	for i, rd := range doc.Rows {
		rows[i] = Row{Label: rd.Label, Description: rd.Description, Values: rd.Set}
		j, err := rd.Jump.jump(resolve)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		rows[i].Jump = j
	}
	return NewTable(cfg, rows...)
}

func (jd *jumpDoc) jump(resolve func(string) (int, error)) (Jump, error) {
	if jd == nil {
		return Sequential{}, nil
	}
	switch {
	case jd.If != "":
		th, err := resolve(jd.Then)
		if err != nil {
			return nil, err
		}
		el, err := resolve(jd.Else)
		if err != nil {
			return nil, err
		}
		return Conditional{Signal: jd.If, Then: th, Else: el}, nil
	case jd.Decode != "":
		return Decode{Signal: jd.Decode, Base: jd.Base}, nil
	case jd.Goto != "":
		t, err := resolve(jd.Goto)
		if err != nil {
			return nil, err
		}
		return Fixed{Target: t}, nil
	}
	return Sequential{}, nil
}

// Encode writes t as a document to w. Jump targets are written as labels
// when the target row has one.
//
func Encode(w io.Writer, t *Table) error {
	doc := document{
		Version: t.cfg.version,
		Halt:    t.cfg.halt,
		Signals: t.cfg.Signals(),
		Rows:    make([]rowDoc, len(t.rows)),
	}
	name := func(target int) string {
		if target == FallThrough {
			return "next"
		}
		if target >= 0 && target < len(t.rows) && t.rows[target].Label != "" {
			return t.rows[target].Label
		}
		return strconv.Itoa(target)
	}
	for i, r := range t.rows {
		rd := rowDoc{Label: r.Label, Description: r.Description}
		if len(r.Values) > 0 {
			rd.Set = r.Values
		}
		switch j := r.Jump.(type) {
		case Fixed:
			rd.Jump = &jumpDoc{Goto: name(j.Target)}
		case Conditional:
			rd.Jump = &jumpDoc{If: j.Signal, Then: name(j.Then), Else: name(j.Else)}
		case Decode:
			rd.Jump = &jumpDoc{Decode: j.Signal, Base: j.Base}
		case Sequential, nil:
		default:
			return errors.Errorf("row %d: unsupported jump type %T", i, r.Jump)
		}
		doc.Rows[i] = rd
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrap(err, "encode signal table")
	}
	return enc.Close()
}
