// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// A Topology owns the parts and wires of a machine instance.
//
// Parts are kept in insertion order. This order is used by the propagation
// engine to break ties, so that a given topology always settles the same way.
//
// A Topology is not safe for concurrent use. Independent topologies share no
// state and can be simulated in parallel.
//
type Topology struct {
	// MaxUpdates caps the number of part updates performed by a single call
	// to Settle. If 0, a default based on the number of parts is used.
	MaxUpdates int

	names  []string
	parts  []Part
	ids    map[string]int
	index  map[Part]int
	wires  []*Wire
	fanout map[*Pin][]*Wire
	driver map[*Pin]*Wire

	updates int // part updates during the last settle pass
}

// NewTopology returns a new empty topology.
//
func NewTopology() *Topology {
	return &Topology{
		ids:    make(map[string]int),
		index:  make(map[Part]int),
		fanout: make(map[*Pin][]*Wire),
		driver: make(map[*Pin]*Wire),
	}
}

// AddPart adds part p with the given id.
//
func (t *Topology) AddPart(id string, p Part) error {
	if id == "" {
		return errors.New("empty part id")
	}
	if p == nil {
		return errors.Errorf("nil part %q", id)
	}
	if _, ok := t.ids[id]; ok {
		return errors.Wrap(ErrDuplicateID, id)
	}
	if _, ok := t.index[p]; ok {
		return errors.Wrap(ErrMounted, id)
	}
	for _, pins := range [2][]*Pin{p.Inputs(), p.Outputs()} {
		for _, pin := range pins {
			if pin.owner >= 0 {
				return errors.Wrapf(ErrMounted, "%s.%s", id, pin.name)
			}
		}
	}
	n := len(t.parts)
	t.names = append(t.names, id)
	t.parts = append(t.parts, p)
	t.ids[id] = n
	t.index[p] = n
	for _, pins := range [2][]*Pin{p.Inputs(), p.Outputs()} {
		for _, pin := range pins {
			pin.owner = n
		}
	}
	return nil
}

// owns returns true if pin belongs to a part of t.
func (t *Topology) owns(pin *Pin) bool {
	if pin.owner < 0 || pin.owner >= len(t.parts) {
		return false
	}
	return t.parts[pin.owner].Pin(pin.name) == pin
}

// AddWire adds the wire w. It fails if the destination pin is already driven
// by another wire, or if any of the wire endpoints does not belong to this
// topology. The topology is left unchanged on error.
//
func (t *Topology) AddWire(w *Wire) error {
	if w == nil {
		return errors.New("nil wire")
	}
	if w.from == nil || w.to == nil {
		return errors.Wrap(ErrPinNotFound, "wire without endpoints")
	}
	if !t.owns(w.from) {
		return errors.Wrapf(ErrDanglingPin, "source %s", w.from)
	}
	if !t.owns(w.to) {
		return errors.Wrapf(ErrDanglingPin, "destination %s", w.to)
	}
	if _, ok := t.driver[w.to]; ok {
		return errors.Wrap(ErrPinConnected, t.RefOf(w.to))
	}
	t.wires = append(t.wires, w)
	t.fanout[w.from] = append(t.fanout[w.from], w)
	t.driver[w.to] = w
	return nil
}

// Connect wires the pin referenced by from to the pin referenced by to. Pin
// references have the form "part.pin", see PinByRef.
//
func (t *Topology) Connect(from, to string, width uint) error {
	src, err := t.PinByRef(from)
	if err != nil {
		return err
	}
	dst, err := t.PinByRef(to)
	if err != nil {
		return err
	}
	w, err := NewWire(src, dst, width)
	if err != nil {
		return errors.Wrapf(err, "%s -> %s", from, to)
	}
	return t.AddWire(w)
}

// SplitRef splits a pin reference into a part id and a pin name. Part ids
// may contain dots, pin names may not.
//
func SplitRef(ref string) (id, pin string, ok bool) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}

// Ref returns the pin reference for the given part id and pin name.
//
func Ref(id, pin string) string {
	return id + "." + pin
}

// PinByRef returns the pin referenced by ref, in the form "part.pin".
//
func (t *Topology) PinByRef(ref string) (*Pin, error) {
	id, name, ok := SplitRef(ref)
	if !ok {
		return nil, errors.Errorf("malformed pin reference %q", ref)
	}
	p, err := t.Part(id)
	if err != nil {
		return nil, err
	}
	pin := p.Pin(name)
	if pin == nil {
		return nil, errors.Wrap(ErrPinNotFound, ref)
	}
	return pin, nil
}

// RefOf returns the reference of a mounted pin.
//
func (t *Topology) RefOf(pin *Pin) string {
	if !t.owns(pin) {
		return "?." + pin.name
	}
	return Ref(t.names[pin.owner], pin.name)
}

// Read returns the current value of the pin referenced by ref.
//
func (t *Topology) Read(ref string) (uint32, error) {
	pin, err := t.PinByRef(ref)
	if err != nil {
		return 0, err
	}
	return pin.value, nil
}

// Part returns the part with the given id.
//
func (t *Topology) Part(id string) (Part, error) {
	i, ok := t.ids[id]
	if !ok {
		return nil, errors.Wrap(ErrPartNotFound, id)
	}
	return t.parts[i], nil
}

// PartOfKind returns the part with the given id and checks that it is of the
// expected variant.
//
func (t *Topology) PartOfKind(id string, k Kind) (Part, error) {
	p, err := t.Part(id)
	if err != nil {
		return nil, err
	}
	if p.Kind() != k {
		return nil, errors.Wrapf(ErrWrongVariant, "%s is a %s, not a %s", id, p.Kind(), k)
	}
	return p, nil
}

// Lookup returns the part with the given id as a T.
//
//	reg, err := minimax.Lookup[*parts.Register](t, "ACCU")
//
func Lookup[T Part](t *Topology, id string) (T, error) {
	var zero T
	p, err := t.Part(id)
	if err != nil {
		return zero, err
	}
	v, ok := p.(T)
	if !ok {
		return zero, errors.Wrapf(ErrWrongVariant, "%s is a %s", id, p.Kind())
	}
	return v, nil
}

// ID returns the id of part p or an empty string if p does not belong to t.
//
func (t *Topology) ID(p Part) string {
	i, ok := t.index[p]
	if !ok {
		return ""
	}
	return t.names[i]
}

// Len returns the number of parts.
func (t *Topology) Len() int { return len(t.parts) }

// IDs returns the part ids in insertion order.
func (t *Topology) IDs() []string { return append([]string(nil), t.names...) }

// Parts returns the parts in insertion order.
func (t *Topology) Parts() []Part { return append([]Part(nil), t.parts...) }

// Wires returns the wires in insertion order.
func (t *Topology) Wires() []*Wire { return append([]*Wire(nil), t.wires...) }

// Successors returns the parts directly depending on the outputs of p, in
// insertion order and without duplicates.
//
func (t *Topology) Successors(p Part) []Part {
	seen := make(map[int]bool)
	var idx []int
	for _, out := range p.Outputs() {
		for _, w := range t.fanout[out] {
			if i := w.to.owner; !seen[i] {
				seen[i] = true
				idx = append(idx, i)
			}
		}
	}
	sort.Ints(idx)
	succ := make([]Part, len(idx))
	for i, n := range idx {
		succ[i] = t.parts[n]
	}
	return succ
}

// truncate removes all parts and wires added after the first np parts and nw
// wires.
//
func (t *Topology) truncate(np, nw int) {
	for _, w := range t.wires[nw:] {
		delete(t.driver, w.to)
		fo := t.fanout[w.from]
		fo = fo[:len(fo)-1]
		if len(fo) == 0 {
			delete(t.fanout, w.from)
		} else {
			t.fanout[w.from] = fo
		}
	}
	t.wires = t.wires[:nw]
	for i := np; i < len(t.parts); i++ {
		p := t.parts[i]
		for _, pins := range [2][]*Pin{p.Inputs(), p.Outputs()} {
			for _, pin := range pins {
				pin.owner = -1
			}
		}
		delete(t.index, p)
		delete(t.ids, t.names[i])
	}
	t.parts = t.parts[:np]
	t.names = t.names[:np]
}
