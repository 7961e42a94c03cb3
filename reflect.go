// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package minimax

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom parts built using reflection must
// implement. See MakePart.
//
// If an Updater also has a Reset() method, it is called when the part is
// reset.
//
type Updater interface {
	Update()
}

// KindCustom is the Kind of parts built with MakePart.
const KindCustom Kind = "custom"

// MakePart wraps u, a pointer to a struct, into a custom part. Input and
// output pins are identified by field tags:
//
//	type mux2 struct {
//		In  [2]*minimax.Pin `hw:"in,,8"`  // pins in0 and in1, 8 bits wide
//		Sel *minimax.Pin    `hw:"in,s,1"` // pin s, 1 bit wide
//		Out *minimax.Pin    `hw:"out,,8"`
//	}
//
// The tag is `hw:"dir,name,width"` where dir is "in" or "out". The name
// defaults to the field name in lowercase and the width to MaxWidth. Tagged
// fields must be of type *Pin or arrays of *Pin. Arrays yield one pin per
// element, named after the field with the element index appended.
//
// MakePart allocates the pins and stores them in the tagged fields.
//
func MakePart(u Updater) (Part, error) {
	v := reflect.ValueOf(u)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, errors.Errorf("unsupported type %T: must be a pointer to a struct", u)
	}
	e := v.Elem()
	typ := e.Type()
	pinType := reflect.TypeOf((*Pin)(nil))

	p := &custom{u: u}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		tv := strings.Split(tag, ",")
		if len(tv) > 3 {
			return nil, errors.Errorf("invalid tag %q for field %s in %s", tag, f.Name, typ.Name())
		}
		var add func(string, uint) *Pin
		switch tv[0] {
		case "in":
			add = p.AddIn
		case "out":
			add = p.AddOut
		default:
			return nil, errors.Errorf("unsupported tag %q for field %s in %s", tag, f.Name, typ.Name())
		}
		name := strings.ToLower(f.Name)
		if len(tv) > 1 && tv[1] != "" {
			name = tv[1]
		}
		width := uint(MaxWidth)
		if len(tv) > 2 && tv[2] != "" {
			w, err := strconv.ParseUint(tv[2], 10, 8)
			if err != nil || w == 0 || w > MaxWidth {
				return nil, errors.Errorf("invalid width in tag %q for field %s in %s", tag, f.Name, typ.Name())
			}
			width = uint(w)
		}
		if !f.IsExported() {
			return nil, errors.Errorf("unexported field %s in %s", f.Name, typ.Name())
		}

		mk := func(n string) (reflect.Value, error) {
			if p.Pin(n) != nil {
				return reflect.Value{}, errors.Errorf("duplicate pin name %q for field %s in %s", n, f.Name, typ.Name())
			}
			return reflect.ValueOf(add(n, width)), nil
		}
		fv := e.Field(i)
		switch ft := f.Type; {
		case ft == pinType:
			pv, err := mk(name)
			if err != nil {
				return nil, err
			}
			fv.Set(pv)
		case ft.Kind() == reflect.Array && ft.Elem() == pinType:
			for j := 0; j < ft.Len(); j++ {
				pv, err := mk(name + strconv.Itoa(j))
				if err != nil {
					return nil, err
				}
				fv.Index(j).Set(pv)
			}
		default:
			return nil, errors.Errorf("unsupported type %s for field %s in %s", ft, f.Name, typ.Name())
		}
	}
	return p, nil
}

type custom struct {
	Pins
	u Updater
}

func (c *custom) Kind() Kind { return KindCustom }
func (c *custom) Update()    { c.u.Update() }

func (c *custom) Reset() {
	if r, ok := c.u.(interface{ Reset() }); ok {
		r.Reset()
	}
}
