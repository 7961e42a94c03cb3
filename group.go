// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"github.com/db47h/minimax/internal/hdl"
	"github.com/pkg/errors"
)

// A Group bundles parts and the wires connecting them to each other and to
// the rest of a topology. Groups are added to a topology with AddGroup, which
// adds either all of the group's parts and wires or none of them.
//
// Wires are described with connection strings:
//
//	g := minimax.NewGroup("ACCU").
//		Add("ACCU_j", parts.NewJunction(32, 2)).
//		Add("ACCU.W", parts.NewPort(1, 0)).
//		Wire("ALU.out=ACCU_j.in, ACCU_j.out0=ACCU.in, ACCU.W.out=ACCU.we")
//
type Group struct {
	name  string
	ids   []string
	parts []Part
	conns []hdl.Conn
	err   error
}

// NewGroup returns a new empty group.
//
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Add adds a part to the group.
//
func (g *Group) Add(id string, p Part) *Group {
	g.ids = append(g.ids, id)
	g.parts = append(g.parts, p)
	return g
}

// Wire adds the connections described by conns. Parse errors are reported by
// AddGroup.
//
func (g *Group) Wire(conns string) *Group {
	if g.err != nil {
		return g
	}
	cs, err := hdl.ParseConnections(conns)
	if err != nil {
		g.err = err
		return g
	}
	g.conns = append(g.conns, cs...)
	return g
}

// AddGroup adds all parts of g, then all of its wires. On error the topology
// is restored to its state before the call.
//
func (t *Topology) AddGroup(g *Group) (err error) {
	if g.err != nil {
		return errors.Wrapf(g.err, "group %s", g.name)
	}
	np, nw := len(t.parts), len(t.wires)
	defer func() {
		if err != nil {
			t.truncate(np, nw)
			err = errors.Wrapf(err, "group %s", g.name)
		}
	}()
	for i, p := range g.parts {
		if err = t.AddPart(g.ids[i], p); err != nil {
			return err
		}
	}
	for _, c := range g.conns {
		if err = t.Connect(c.From, c.To, c.Width); err != nil {
			return err
		}
	}
	return nil
}
