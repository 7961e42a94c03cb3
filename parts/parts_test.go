package parts_test

import (
	"testing"
	"testing/quick"

	mm "github.com/db47h/minimax"
	"github.com/db47h/minimax/parts"
	"github.com/db47h/minimax/simtest"
)

func TestSelWidth(t *testing.T) {
	for n, w := range map[int]uint{0: 1, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 16: 4, 17: 5} {
		if got := parts.SelWidth(n); got != w {
			t.Errorf("SelWidth(%d) = %d, expected %d", n, got, w)
		}
	}
}

func TestMux(t *testing.T) {
	m := parts.NewMux(8, 3)
	if m.Pin("sel").Width() != 2 {
		t.Fatalf("sel width = %d", m.Pin("sel").Width())
	}
	h := simtest.New(t, m)
	h.Set("in0", 10)
	h.Set("in1", 11)
	h.Set("in2", 12)
	for sel, exp := range []uint32{10, 11, 12, 0} {
		h.Set("sel", uint32(sel))
		if out := h.Get("out"); out != exp {
			t.Errorf("sel = %d: out = %d, expected %d", sel, out, exp)
		}
	}
}

func TestJunction(t *testing.T) {
	f := func(n uint8, v uint32) bool {
		j := parts.NewJunction(16, int(n%20))
		h := simtest.New(t, j)
		h.Set("in", v)
		for _, o := range j.Outputs() {
			if o.Value() != v&0xffff {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRegister(t *testing.T) {
	r := parts.NewRegister(8, 0x42)
	h := simtest.New(t, r)
	if out := h.Get("out"); out != 0x42 {
		t.Fatalf("power-on out = %#x", out)
	}
	f := func(in uint8, we bool) bool {
		before := r.State()
		h.Set("in", uint32(in))
		if we {
			h.Set("we", 1)
		} else {
			h.Set("we", 0)
		}
		// the output only changes on the clock edge.
		if h.Get("out") != before {
			return false
		}
		h.Clock()
		if !we {
			return r.State() == before && h.Get("out") == before
		}
		return r.State() == uint32(in) && h.Get("out") == uint32(in)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
	if err := h.T.Reset(); err != nil {
		t.Fatal(err)
	}
	if r.State() != 0x42 {
		t.Fatalf("after reset: %#x", r.State())
	}
	r.Set(0x1ff)
	if r.State() != 0xff {
		t.Fatalf("Set did not mask: %#x", r.State())
	}
}

func TestPort(t *testing.T) {
	p := parts.NewPort(4, 0x13)
	if p.Value() != 3 {
		t.Fatalf("default = %d", p.Value())
	}
	if p.Set(0x13) {
		t.Error("Set reported a change for an identical masked value")
	}
	if !p.Set(4) || p.Value() != 4 {
		t.Error("Set did not change the value")
	}
	p.Reset()
	if p.Value() != 3 {
		t.Errorf("after reset: %d", p.Value())
	}
}

func TestConstant_Label(t *testing.T) {
	c := parts.NewConstant(4, 0xff)
	h := simtest.New(t, c)
	if out := h.Get("out"); out != 0xf {
		t.Errorf("constant out = %#x", out)
	}
	l := parts.NewLabel("ACCU.W")
	if l.Kind() != mm.KindLabel || len(l.Inputs())+len(l.Outputs()) != 0 || l.Text() != "ACCU.W" {
		t.Errorf("bad label %v", l)
	}
}

func TestMemory(t *testing.T) {
	if _, err := parts.NewMemory(8, 0); err == nil {
		t.Fatal("expected error for 0 address bits")
	}
	m, err := parts.NewMemory(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err = m.Load([]uint32{1, 2, 0x103}); err != nil {
		t.Fatal(err)
	}
	if err = m.Load(make([]uint32, 17)); err == nil {
		t.Fatal("expected error for oversized image")
	}
	if err = m.Load([]uint32{1, 2, 0x103}); err != nil {
		t.Fatal(err)
	}
	h := simtest.New(t, m)
	h.Set("addr", 2)
	if out := h.Get("out"); out != 0 {
		t.Fatalf("out = %d without chip select", out)
	}
	h.Set("cs", 1)
	if out := h.Get("out"); out != 3 {
		t.Fatalf("mem[2] = %d, expected 3", out)
	}
	h.Set("data", 0x55)
	h.Clock()
	if w, _ := m.Word(2); w != 3 {
		t.Fatalf("memory written while rw = 0: %#x", w)
	}
	h.Set("rw", 1)
	h.Clock()
	if w, _ := m.Word(2); w != 0x55 || h.Get("out") != 0x55 {
		t.Fatalf("mem[2] = %#x, out = %#x, expected 0x55", w, h.Get("out"))
	}
	if _, err = m.Word(16); err == nil {
		t.Fatal("expected error for out of range address")
	}
	if err = h.T.Reset(); err != nil {
		t.Fatal(err)
	}
	if w, _ := m.Word(2); w != 3 {
		t.Fatalf("after reset: mem[2] = %#x, expected 3", w)
	}
}
