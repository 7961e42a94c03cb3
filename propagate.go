// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"sort"

	"github.com/pkg/errors"
)

const minUpdates = 1024

func (t *Topology) maxUpdates() int {
	if t.MaxUpdates > 0 {
		return t.MaxUpdates
	}
	n := 64 * len(t.parts)
	if n < minUpdates {
		n = minUpdates
	}
	return n
}

// Settle brings the circuit to a fixed point after the outputs of the given
// parts may have changed.
//
// Parts are processed from a FIFO work queue seeded with the given parts in
// insertion order. Each processed part is updated, its output values are
// delivered along all its outgoing wires, and every part that sees one of its
// input values actually change is queued, unless already queued. Rewriting an
// unchanged value never triggers a part, so feedback paths stop propagating
// once values are stable.
//
// Settle returns ErrOscillation if the queue is still not empty after
// MaxUpdates part updates.
//
func (t *Topology) Settle(seeds ...Part) error {
	queued := make([]bool, len(t.parts))
	q := make([]int, 0, len(t.parts))
	for _, p := range seeds {
		i, ok := t.index[p]
		if !ok {
			return errors.Wrapf(ErrPartNotFound, "settle seed %T", p)
		}
		if !queued[i] {
			queued[i] = true
			q = append(q, i)
		}
	}
	sort.Ints(q)

	max := t.maxUpdates()
	n := 0
	for len(q) > 0 {
		i := q[0]
		q = q[1:]
		queued[i] = false
		if n == max {
			t.updates = n
			return errors.Wrapf(ErrOscillation, "%d updates, last queued part %q", n, t.names[i])
		}
		n++
		p := t.parts[i]
		p.Update()
		for _, out := range p.Outputs() {
			for _, w := range t.fanout[out] {
				if !w.deliver() {
					continue
				}
				if j := w.to.owner; !queued[j] {
					queued[j] = true
					q = append(q, j)
				}
			}
		}
	}
	t.updates = n
	return nil
}

// SettleAll settles the whole circuit, using all parts as seeds.
//
func (t *Topology) SettleAll() error {
	return t.Settle(t.parts...)
}

// Updates returns the number of part updates performed by the last call to
// Settle.
//
func (t *Topology) Updates() int {
	return t.updates
}

// Clock triggers a clock edge: every Latcher in the topology samples its
// inputs. Since Latch does not update any output, all parts sample the values
// of the settled circuit.
//
// Clock returns the parts whose state changed, in insertion order. The
// circuit needs to be settled again from these parts.
//
func (t *Topology) Clock() []Part {
	var latched []Part
	for _, p := range t.parts {
		if l, ok := p.(Latcher); ok && l.Latch() {
			latched = append(latched, p)
		}
	}
	return latched
}

// Reset resets every part to its power-on state, clears all pin values and
// settles the circuit.
//
func (t *Topology) Reset() error {
	for _, p := range t.parts {
		p.Reset()
		for _, pins := range [2][]*Pin{p.Inputs(), p.Outputs()} {
			for _, pin := range pins {
				pin.value = 0
			}
		}
	}
	return t.SettleAll()
}
