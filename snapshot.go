// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"maps"
	"sort"
)

// A Snapshot is a copy of the observable state of a topology: the value of
// every pin, by pin reference, and the latched word of every Stateful part, by
// part id.
//
type Snapshot struct {
	Pins      map[string]uint32 `json:"pins"`
	Registers map[string]uint32 `json:"registers"`
}

// Snapshot returns a snapshot of the current state of t.
//
func (t *Topology) Snapshot() Snapshot {
	s := Snapshot{
		Pins:      make(map[string]uint32),
		Registers: make(map[string]uint32),
	}
	for i, p := range t.parts {
		id := t.names[i]
		for _, pins := range [2][]*Pin{p.Inputs(), p.Outputs()} {
			for _, pin := range pins {
				s.Pins[Ref(id, pin.name)] = pin.value
			}
		}
		if st, ok := p.(Stateful); ok {
			s.Registers[id] = st.State()
		}
	}
	return s
}

// PinRefs returns the sorted pin references in s.
//
func (s Snapshot) PinRefs() []string {
	return sortedKeys(s.Pins)
}

// RegisterIDs returns the sorted register ids in s.
//
func (s Snapshot) RegisterIDs() []string {
	return sortedKeys(s.Registers)
}

func sortedKeys(m map[string]uint32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal returns true if s and o hold the same values.
//
func (s Snapshot) Equal(o Snapshot) bool {
	return maps.Equal(s.Pins, o.Pins) && maps.Equal(s.Registers, o.Registers)
}
