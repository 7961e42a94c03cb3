// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package signal

import (
	"strconv"

	"github.com/db47h/minimax"
	"github.com/pkg/errors"
)

// A Row is a micro-instruction. Values assigns a value to control signals;
// signals missing from Values take their default value. A nil Jump is the
// same as Sequential.
//
type Row struct {
	Label       string
	Description string
	Values      map[string]uint32
	Jump        Jump
}

func (r Row) clone() Row {
	v := make(map[string]uint32, len(r.Values))
	for k, x := range r.Values {
		v[k] = x
	}
	r.Values = v
	if r.Jump == nil {
		r.Jump = Sequential{}
	}
	return r
}

// A Table is an ordered sequence of rows valid relative to a Config.
//
// The table is only modified through Insert, Set and Delete. The debugger
// treats it as read-only.
//
type Table struct {
	cfg  *Config
	rows []Row
}

// NewTable returns a new table with the given rows. Every row is validated
// against cfg.
//
func NewTable(cfg *Config, rows ...Row) (*Table, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalid, "nil signal configuration")
	}
	t := &Table{cfg: cfg, rows: make([]Row, 0, len(rows))}
	for i, r := range rows {
		if err := t.check(r); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		t.rows = append(t.rows, r.clone())
	}
	return t, nil
}

// checkLabel rejects labels that read as a jump target of their own.
func checkLabel(l string) error {
	if l == "next" {
		return errors.Wrapf(ErrInvalid, "reserved row label %q", l)
	}
	if _, err := strconv.Atoi(l); err == nil {
		return errors.Wrapf(ErrInvalid, "numeric row label %q", l)
	}
	return nil
}

func (t *Table) check(r Row) error {
	if r.Label != "" {
		if err := checkLabel(r.Label); err != nil {
			return err
		}
	}
	for name, v := range r.Values {
		s, ok := t.cfg.Signal(name)
		if !ok {
			return errors.Wrap(ErrUndeclaredSignal, name)
		}
		if minimax.Mask(v, s.Width) != v {
			return errors.Wrapf(ErrValueRange, "%s = %d does not fit in %d bits", name, v, s.Width)
		}
	}
	switch j := r.Jump.(type) {
	case Conditional:
		if j.Signal == "" {
			return errors.Wrap(ErrInvalid, "conditional jump without condition signal")
		}
	case Decode:
		if j.Signal == "" {
			return errors.Wrap(ErrInvalid, "decode jump without signal")
		}
	}
	return nil
}

// Config returns the table's signal configuration.
func (t *Table) Config() *Config { return t.cfg }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, %d rows", i, len(t.rows))
	}
	return nil
}

// Row returns a copy of row i.
//
func (t *Table) Row(i int) (Row, error) {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return Row{}, err
	}
	return t.rows[i].clone(), nil
}

// Values returns the value of every declared signal for row i, in signal
// declaration order.
//
func (t *Table) Values(i int) ([]uint32, error) {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return nil, err
	}
	r := t.rows[i]
	vs := make([]uint32, len(t.cfg.signals))
	for k, s := range t.cfg.signals {
		if v, ok := r.Values[s.Name]; ok {
			vs[k] = v
		} else {
			vs[k] = s.Default
		}
	}
	return vs, nil
}

// Halts returns true if row i sets the halt signal.
//
func (t *Table) Halts(i int) (bool, error) {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return false, err
	}
	if t.cfg.halt == "" {
		return false, nil
	}
	if v, ok := t.rows[i].Values[t.cfg.halt]; ok {
		return v != 0, nil
	}
	s, _ := t.cfg.Signal(t.cfg.halt)
	return s.Default != 0, nil
}

// Jump returns the jump of row i.
//
func (t *Table) Jump(i int) (Jump, error) {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return nil, err
	}
	return t.rows[i].Jump, nil
}

// IndexOf returns the index of the first row with the given label, or -1.
//
func (t *Table) IndexOf(label string) int {
	for i, r := range t.rows {
		if r.Label == label {
			return i
		}
	}
	return -1
}

// Insert inserts r at index i. i may be equal to Len() to append.
//
func (t *Table) Insert(i int, r Row) error {
	if err := t.checkIndex(i, len(t.rows)+1); err != nil {
		return err
	}
	if err := t.check(r); err != nil {
		return err
	}
	t.rows = append(t.rows, Row{})
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = r.clone()
	return nil
}

// Set replaces row i with r.
//
func (t *Table) Set(i int, r Row) error {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return err
	}
	if err := t.check(r); err != nil {
		return err
	}
	t.rows[i] = r.clone()
	return nil
}

// Delete removes row i.
//
func (t *Table) Delete(i int) error {
	if err := t.checkIndex(i, len(t.rows)); err != nil {
		return err
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}
