package debugger_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"testing/quick"

	"github.com/db47h/minimax"
	"github.com/db47h/minimax/debugger"
	"github.com/db47h/minimax/parts"
	"github.com/db47h/minimax/signal"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const (
	opAdd = 0
	opDec = 15
)

// machine builds a small datapath:
//
//	C2 ──┐
//	     MuxA(SelA) ── ALU.a
//	R ───┘             ALU(ALUCtrl) ── R.in
//	C3 ─────────────── ALU.b           R.W ── R.we
//
func machine(t *testing.T) (*minimax.Topology, *parts.Register) {
	t.Helper()
	top := minimax.NewTopology()
	r := parts.NewRegister(8, 0)
	add := func(id string, p minimax.Part) {
		if err := top.AddPart(id, p); err != nil {
			t.Fatal(err)
		}
	}
	add("C2", parts.NewConstant(8, 2))
	add("C3", parts.NewConstant(8, 3))
	add("R", r)
	add("MuxA", parts.NewMux(8, 2))
	add("ALU", parts.NewAlu(8, parts.DefaultAluOps))
	add("ALUCtrl", parts.NewPort(4, 0))
	add("SelA", parts.NewPort(1, 0))
	add("R.W", parts.NewPort(1, 0))
	for _, c := range [][2]string{
		{"C2.out", "MuxA.in0"},
		{"R.out", "MuxA.in1"},
		{"SelA.out", "MuxA.sel"},
		{"MuxA.out", "ALU.a"},
		{"C3.out", "ALU.b"},
		{"ALUCtrl.out", "ALU.ctrl"},
		{"ALU.out", "R.in"},
		{"R.W.out", "R.we"},
	} {
		if err := top.Connect(c[0], c[1], 0); err != nil {
			t.Fatal(err)
		}
	}
	return top, r
}

func config(t *testing.T) *signal.Config {
	t.Helper()
	cfg, err := signal.NewConfig(1, "HALT",
		signal.Signal{Name: "ALUCtrl", Width: 4},
		signal.Signal{Name: "SelA", Width: 1},
		signal.Signal{Name: "R.W", Width: 1},
		signal.Signal{Name: "HALT", Width: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func table(t *testing.T, rows ...signal.Row) *signal.Table {
	t.Helper()
	tbl, err := signal.NewTable(config(t), rows...)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

type values = map[string]uint32

// addHalt: R = 2 + 3, then halt.
func addHalt(t *testing.T) *signal.Table {
	return table(t,
		signal.Row{Values: values{"ALUCtrl": opAdd, "R.W": 1}, Jump: signal.Fixed{Target: 1}},
		signal.Row{Values: values{"HALT": 1}},
	)
}

// countdown: R = 5, then decrement R until R-1 == 0.
func countdown(t *testing.T) *signal.Table {
	return table(t,
		signal.Row{Label: "init", Values: values{"ALUCtrl": opAdd, "R.W": 1}},
		signal.Row{Label: "loop", Values: values{"ALUCtrl": opDec, "SelA": 1, "R.W": 1},
			Jump: signal.Conditional{Signal: "ALU.zero", Then: 2, Else: 1}},
		signal.Row{Label: "end", Values: values{"HALT": 1}},
	)
}

func load(t *testing.T, tbl *signal.Table, opts ...debugger.Option) (*debugger.Debugger, *parts.Register) {
	t.Helper()
	top, r := machine(t)
	d := debugger.New(top, opts...)
	if err := d.Load(tbl); err != nil {
		t.Fatal(err)
	}
	return d, r
}

func TestDebugger_addHalt(t *testing.T) {
	d, r := load(t, addHalt(t))
	if st := d.ExecutionState(); st.State != debugger.Ready || st.Row != 0 || r.State() != 0 {
		t.Fatalf("bad initial state %+v, R = %d", st, r.State())
	}
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if st := d.ExecutionState(); st.State != debugger.Ready || st.Row != 1 || st.Cycle != 1 {
		t.Fatalf("bad state after step 1: %+v", st)
	}
	if r.State() != 5 {
		t.Fatalf("R = %d, expected 5", r.State())
	}
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	st := d.ExecutionState()
	if st.State != debugger.Halted || !st.Halted || st.Err != nil || st.Row != 1 || st.Cycle != 2 {
		t.Fatalf("bad state after step 2: %+v", st)
	}
	if err := d.Step(); !errors.Is(err, debugger.ErrNotReady) {
		t.Fatalf("step on halted machine: got %v, expected ErrNotReady", err)
	}
	if s := d.Snapshot(); s.Registers["R"] != 5 || s.Pins["R.out"] != 5 {
		t.Fatalf("bad snapshot %v", s)
	}
}

func TestDebugger_idle(t *testing.T) {
	top, _ := machine(t)
	d := debugger.New(top)
	if st := d.ExecutionState(); st.State != debugger.Idle {
		t.Fatalf("state %v, expected idle", st.State)
	}
	err := d.Step()
	if !errors.Is(err, debugger.ErrNotLoaded) || !errors.Is(err, debugger.ErrNotReady) {
		t.Fatalf("got %v, expected ErrNotLoaded", err)
	}
	if err = d.Reset(); err != nil || d.ExecutionState().State != debugger.Idle {
		t.Fatalf("reset without table: %v, %v", err, d.ExecutionState().State)
	}
}

func TestDebugger_Load_unbound(t *testing.T) {
	data := []struct {
		name   string
		signal signal.Signal
		jump   signal.Jump
		err    error
	}{
		{"missing", signal.Signal{Name: "SelB", Width: 1}, nil, debugger.ErrUnboundSignal},
		{"variant", signal.Signal{Name: "R", Width: 1}, nil, debugger.ErrUnboundSignal},
		{"width", signal.Signal{Name: "SelA", Width: 2}, nil, debugger.ErrUnboundSignal},
		{"cond_pin", signal.Signal{Name: "SelA", Width: 1},
			signal.Conditional{Signal: "ALU.zeroo", Then: 0, Else: 0}, minimax.ErrPinNotFound},
		{"decode_part", signal.Signal{Name: "SelA", Width: 1},
			signal.Decode{Signal: "IR.op"}, minimax.ErrPartNotFound},
	}
	for _, d := range data {
		t.Run(d.name, func(t *testing.T) {
			cfg, err := signal.NewConfig(1, "", d.signal)
			if err != nil {
				t.Fatal(err)
			}
			tbl, err := signal.NewTable(cfg, signal.Row{}, signal.Row{Jump: d.jump})
			if err != nil {
				t.Fatal(err)
			}
			top, _ := machine(t)
			dbg := debugger.New(top)
			if err = dbg.Load(tbl); !errors.Is(err, d.err) {
				t.Fatalf("got %v, expected %v", err, d.err)
			}
			if dbg.Table() != nil || dbg.ExecutionState().State != debugger.Idle {
				t.Fatal("failed Load changed the debugger")
			}
		})
	}
}

func TestDebugger_Run(t *testing.T) {
	d, r := load(t, countdown(t))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := d.ExecutionState()
	if st.State != debugger.Halted || st.Row != 2 || st.Cycle != 6 {
		t.Fatalf("bad final state %+v", st)
	}
	if r.State() != 1 {
		t.Fatalf("R = %d, expected 1", r.State())
	}
}

func TestDebugger_Run_breakpoints(t *testing.T) {
	d, r := load(t, countdown(t))
	ctx := context.Background()
	for i, exp := range []uint32{5, 4, 3, 2} {
		if err := d.Run(ctx, 1); err != nil {
			t.Fatal(err)
		}
		st := d.ExecutionState()
		if st.State != debugger.Ready || st.Row != 1 || st.Cycle != uint64(i+1) || r.State() != exp {
			t.Fatalf("run %d: state %+v, R = %d", i, st, r.State())
		}
		if i > 0 && st.Cond != signal.CondFalse {
			t.Fatalf("run %d: cond %v", i, st.Cond)
		}
	}
	// leaves the loop at R == 1
	if err := d.Run(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}
	if st := d.ExecutionState(); st.State != debugger.Ready || st.Row != 2 || st.Cond != signal.CondTrue {
		t.Fatalf("bad state %+v", st)
	}
}

func TestDebugger_Run_cancel(t *testing.T) {
	d, _ := load(t, countdown(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, expected context.Canceled", err)
	}
	if st := d.ExecutionState(); st.State != debugger.Ready || st.Cycle != 0 {
		t.Fatalf("bad state %+v", st)
	}
}

func TestDebugger_Run_limit(t *testing.T) {
	d, _ := load(t, countdown(t), debugger.WithStepLimit(3))
	if err := d.Run(context.Background()); !errors.Is(err, debugger.ErrStepLimit) {
		t.Fatalf("got %v, expected ErrStepLimit", err)
	}
	if st := d.ExecutionState(); st.State != debugger.Ready || st.Cycle != 3 {
		t.Fatalf("bad state %+v", st)
	}
}

func TestDebugger_jump_out_of_range(t *testing.T) {
	d, _ := load(t, table(t,
		signal.Row{Jump: signal.Fixed{Target: 7}},
		signal.Row{Values: values{"HALT": 1}},
	))
	err := d.Step()
	if !errors.Is(err, signal.ErrIndexOutOfRange) {
		t.Fatalf("got %v, expected ErrIndexOutOfRange", err)
	}
	st := d.ExecutionState()
	if st.State != debugger.Halted || !st.Halted || st.Row != 0 || st.Err != err {
		t.Fatalf("bad state %+v", st)
	}
	if err = d.Step(); !errors.Is(err, debugger.ErrNotReady) {
		t.Fatalf("got %v, expected ErrNotReady", err)
	}
	if err = d.Reset(); err != nil || d.ExecutionState().State != debugger.Ready {
		t.Fatalf("reset: %v, %+v", err, d.ExecutionState())
	}
}

func TestDebugger_fall_off_end(t *testing.T) {
	d, _ := load(t, table(t, signal.Row{}))
	if err := d.Run(context.Background()); !errors.Is(err, signal.ErrIndexOutOfRange) {
		t.Fatalf("got %v, expected ErrIndexOutOfRange", err)
	}
}

// An ALU fed back into its own A input is stable under ADD with B = 0 and
// oscillates under NOT A.
func TestDebugger_oscillation(t *testing.T) {
	const opNot = 6
	top := minimax.NewTopology()
	top.MaxUpdates = 100
	for _, x := range []struct {
		id string
		p  minimax.Part
	}{{"ALU", parts.NewAlu(8, parts.DefaultAluOps)}, {"ALUCtrl", parts.NewPort(4, opAdd)}} {
		if err := top.AddPart(x.id, x.p); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range [][2]string{{"ALU.out", "ALU.a"}, {"ALUCtrl.out", "ALU.ctrl"}} {
		if err := top.Connect(c[0], c[1], 0); err != nil {
			t.Fatal(err)
		}
	}
	cfg, err := signal.NewConfig(1, "HALT",
		signal.Signal{Name: "ALUCtrl", Width: 4},
		signal.Signal{Name: "HALT", Width: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := signal.NewTable(cfg,
		signal.Row{Values: values{"ALUCtrl": opNot}},
		signal.Row{Values: values{"HALT": 1}},
	)
	if err != nil {
		t.Fatal(err)
	}
	d := debugger.New(top)
	if err = d.Load(tbl); err != nil {
		t.Fatal(err)
	}
	if err = d.Step(); !errors.Is(err, minimax.ErrOscillation) {
		t.Fatalf("got %v, expected ErrOscillation", err)
	}
	st := d.ExecutionState()
	if st.State != debugger.Halted || !st.Halted || !errors.Is(st.Err, minimax.ErrOscillation) || st.Row != 0 {
		t.Fatalf("bad state %+v", st)
	}
	if err = d.Step(); !errors.Is(err, debugger.ErrNotReady) {
		t.Fatalf("step after error: got %v, expected ErrNotReady", err)
	}
	if err = d.Reset(); err != nil {
		t.Fatal(err)
	}
	if st = d.ExecutionState(); st.State != debugger.Ready || st.Err != nil || st.Row != 0 || st.Cycle != 0 {
		t.Fatalf("bad state after reset %+v", st)
	}
}

func TestDebugger_Reset_idempotent(t *testing.T) {
	d, r := load(t, countdown(t))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	st, snap := d.ExecutionState(), d.Snapshot()
	for i := 0; i < 3; i++ {
		if err := d.Reset(); err != nil {
			t.Fatal(err)
		}
		if d.ExecutionState() != st || !d.Snapshot().Equal(snap) {
			t.Fatalf("reset %d: state %+v differs from %+v", i, d.ExecutionState(), st)
		}
	}
	if st.State != debugger.Ready || st.Row != 0 || st.Cycle != 0 || r.State() != 0 {
		t.Fatalf("bad state after reset %+v, R = %d", st, r.State())
	}
}

func TestDebugger_write_enable(t *testing.T) {
	top, r := machine(t)
	d := debugger.New(top)
	f := func(ctrl, sel, init uint8) bool {
		tbl := table(t, signal.Row{Values: values{"ALUCtrl": uint32(ctrl % 16), "SelA": uint32(sel & 1)}})
		if err := d.Load(tbl); err != nil {
			t.Fatal(err)
		}
		r.Set(uint32(init))
		if err := top.Settle(r); err != nil {
			t.Fatal(err)
		}
		before, _ := top.Read("R.out")
		// the only row falls off the table: the step runs, then halts.
		d.Step()
		after, _ := top.Read("R.out")
		return before == after && r.State() == uint32(init)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

type recorder struct {
	cycles []uint64
	rows   []int
	r      []uint32
}

func (r *recorder) Record(cycle uint64, row int, s minimax.Snapshot) error {
	r.cycles = append(r.cycles, cycle)
	r.rows = append(r.rows, row)
	r.r = append(r.r, s.Registers["R"])
	return nil
}

func TestDebugger_observability(t *testing.T) {
	rec := new(recorder)
	reg := prometheus.NewRegistry()
	m := debugger.NewMetrics(reg)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d, _ := load(t, countdown(t), debugger.WithRecorder(rec), debugger.WithMetrics(m), debugger.WithLogger(log))
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	expRows := []int{0, 1, 1, 1, 1, 2}
	expR := []uint32{5, 4, 3, 2, 1, 1}
	if len(rec.cycles) != len(expRows) {
		t.Fatalf("recorded %d snapshots, expected %d", len(rec.cycles), len(expRows))
	}
	for i := range expRows {
		if rec.cycles[i] != uint64(i+1) || rec.rows[i] != expRows[i] || rec.r[i] != expR[i] {
			t.Errorf("record %d: cycle %d, row %d, R = %d", i, rec.cycles[i], rec.rows[i], rec.r[i])
		}
	}

	if n := testutil.ToFloat64(m.Steps); n != 6 {
		t.Errorf("steps_total = %v, expected 6", n)
	}
	if n := testutil.ToFloat64(m.Halts.WithLabelValues("signal")); n != 1 {
		t.Errorf("halts_total{reason=signal} = %v, expected 1", n)
	}
	if !strings.Contains(buf.String(), "msg=halted") {
		t.Errorf("no halt event in log:\n%s", buf.String())
	}
}
