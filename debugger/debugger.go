// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package debugger implements the execution controller of the minimax
// machine. A Debugger runs a signal table against a topology one
// micro-instruction at a time:
//
//	d := debugger.New(topo, debugger.WithLogger(logger))
//	if err := d.Load(table); err != nil {
//		// unbound signal
//	}
//	err := d.Run(ctx, breakpoints...)
//	snap := d.Snapshot()
//
// Every control signal of the table's configuration is bound to the
// parts.Port with the same id in the topology. Only the halt signal may be
// left unbound.
//
// A Debugger is not safe for concurrent use. Independent debuggers on
// distinct topologies can run in parallel.
//
package debugger

import (
	"context"
	"log/slog"
	"time"

	"github.com/db47h/minimax"
	"github.com/db47h/minimax/parts"
	"github.com/db47h/minimax/signal"
	"github.com/pkg/errors"
)

// Errors.
//
var (
	ErrNotReady      = errors.New("debugger not ready")
	ErrNotLoaded     = errors.Wrap(ErrNotReady, "no signal table loaded")
	ErrUnboundSignal = errors.New("control signal not bound to a port")
	ErrStepLimit     = errors.New("step limit reached")
)

// State is the state of the execution controller.
//
type State int8

// Debugger states.
//
const (
	Idle    State = iota // no signal table loaded
	Ready                // waiting for the next step
	Running              // executing a step
	Halted               // halt signal or execution error, reset required
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Halted:
		return "halted"
	}
	return "invalid"
}

// ExecutionState is the observable state of a Debugger.
//
// Row is the index of the next row to execute. Once halted, it is the index
// of the row that halted the machine. Cond is the outcome of the last
// evaluated jump condition. Err is the execution error that halted the
// machine, if any.
//
type ExecutionState struct {
	State  State
	Row    int
	Halted bool
	Cond   signal.Cond
	Cycle  uint64
	Err    error
}

// A Recorder receives the snapshot taken after every executed step.
//
type Recorder interface {
	Record(cycle uint64, row int, s minimax.Snapshot) error
}

// Option configures a Debugger.
//
type Option func(*Debugger)

// WithLogger sets the logger. Step events are logged at debug level, halts
// at info level and execution errors at warn level.
//
func WithLogger(l *slog.Logger) Option {
	return func(d *Debugger) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMetrics sets the metrics collectors updated by the Debugger.
//
func WithMetrics(m *Metrics) Option {
	return func(d *Debugger) { d.metrics = m }
}

// WithRecorder sets a Recorder for post-step snapshots.
//
func WithRecorder(r Recorder) Option {
	return func(d *Debugger) { d.rec = r }
}

// WithStepLimit limits the number of steps executed by a single call to
// Run. Zero means no limit.
//
func WithStepLimit(n uint64) Option {
	return func(d *Debugger) { d.limit = n }
}

// A Debugger drives a topology with a signal table.
//
type Debugger struct {
	topo    *minimax.Topology
	table   *signal.Table
	ports   []*parts.Port // indexed like the table's signals, nil if unbound
	st      ExecutionState
	log     *slog.Logger
	metrics *Metrics
	rec     Recorder
	limit   uint64
}

// New returns a new Debugger for topo in the Idle state.
//
func New(topo *minimax.Topology, opts ...Option) *Debugger {
	d := &Debugger{
		topo: topo,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Load binds the signals of t to the topology ports, checks that the pins
// read by conditional and decode jumps exist, and resets the machine. If
// either fails, the Debugger is left unchanged.
//
func (d *Debugger) Load(t *signal.Table) error {
	cfg := t.Config()
	ports := make([]*parts.Port, cfg.Len())
	for i, s := range cfg.Signals() {
		p, err := minimax.Lookup[*parts.Port](d.topo, s.Name)
		if err != nil {
			if s.Name == cfg.Halt() && errors.Is(err, minimax.ErrPartNotFound) {
				continue
			}
			return errors.Wrapf(ErrUnboundSignal, "signal %s: %v", s.Name, err)
		}
		if p.Width() < s.Width {
			return errors.Wrapf(ErrUnboundSignal, "signal %s: %d bits wide, port is %d bits wide", s.Name, s.Width, p.Width())
		}
		ports[i] = p
	}
	for i := 0; i < t.Len(); i++ {
		j, err := t.Jump(i)
		if err != nil {
			return err
		}
		var ref string
		switch j := j.(type) {
		case signal.Conditional:
			ref = j.Signal
		case signal.Decode:
			ref = j.Signal
		default:
			continue
		}
		if _, err = d.topo.PinByRef(ref); err != nil {
			return errors.Wrapf(err, "row %d: jump", i)
		}
	}
	d.table = t
	d.ports = ports
	d.log.Info("signal table loaded", "rows", t.Len(), "signals", cfg.Len(), "version", cfg.Version())
	return d.Reset()
}

// Reset resets all parts, settles the circuit and returns to row 0 with the
// cycle counter cleared. The Debugger is Ready if a table is loaded, Idle
// otherwise. Reset only fails if the circuit does not settle, in which case
// the Debugger is Halted.
//
func (d *Debugger) Reset() error {
	d.st = ExecutionState{State: Idle}
	if d.table != nil {
		d.st.State = Ready
	}
	if err := d.topo.Reset(); err != nil {
		d.halt(errors.Wrap(err, "reset"))
		return d.st.Err
	}
	if d.table != nil && d.table.Len() == 0 {
		d.halt(errors.Wrap(signal.ErrIndexOutOfRange, "empty signal table"))
		return d.st.Err
	}
	d.log.Debug("reset", "state", d.st.State)
	return nil
}

// ExecutionState returns the current execution state.
//
func (d *Debugger) ExecutionState() ExecutionState { return d.st }

// Table returns the loaded signal table, or nil.
func (d *Debugger) Table() *signal.Table { return d.table }

// Topology returns the topology driven by d.
func (d *Debugger) Topology() *minimax.Topology { return d.topo }

// Snapshot returns the value of every pin and the content of every register.
//
func (d *Debugger) Snapshot() minimax.Snapshot { return d.topo.Snapshot() }

func (d *Debugger) halt(err error) {
	d.st.State = Halted
	d.st.Halted = true
	d.st.Err = err
	if err != nil {
		d.log.Warn("execution error", "cycle", d.st.Cycle, "row", d.st.Row, "error", err)
		d.metrics.halt("error")
	} else {
		d.log.Info("halted", "cycle", d.st.Cycle, "row", d.st.Row)
		d.metrics.halt("signal")
	}
}

// Step executes the current row:
//
//  1. the row's signal values are written to their ports
//  2. the circuit is settled from the ports that changed
//  3. clock edge: registers and memories latch, and the circuit is settled
//     once more from the parts whose state changed
//  4. unless the row sets the halt signal, its jump is evaluated
//
// Jump conditions read the circuit as settled after the clock edge, so they
// see the new register contents. A loop that decrements a register until
// ALU.zero is set leaves the register at 1.
//
// Step fails with ErrNotReady if the Debugger is not Ready. Any other error
// halts the Debugger.
//
func (d *Debugger) Step() error {
	switch d.st.State {
	case Idle:
		return ErrNotLoaded
	case Ready:
	default:
		return errors.Wrapf(ErrNotReady, "state %v", d.st.State)
	}
	d.st.State = Running
	start := time.Now()
	if err := d.step(); err != nil {
		d.halt(err)
		return err
	}
	d.metrics.step(time.Since(start))
	return nil
}

func (d *Debugger) step() error {
	row := d.st.Row
	vals, err := d.table.Values(row)
	if err != nil {
		return err
	}
	var seeds []minimax.Part
	for i, p := range d.ports {
		if p != nil && p.Set(vals[i]) {
			seeds = append(seeds, p)
		}
	}
	if err = d.topo.Settle(seeds...); err != nil {
		return errors.Wrapf(err, "row %d", row)
	}
	updates := d.topo.Updates()
	latched := d.topo.Clock()
	if len(latched) > 0 {
		if err = d.topo.Settle(latched...); err != nil {
			return errors.Wrapf(err, "row %d: clock edge", row)
		}
		updates += d.topo.Updates()
	}
	d.st.Cycle++
	d.metrics.updates(updates)
	d.record(row)

	halt, err := d.table.Halts(row)
	if err != nil {
		return err
	}
	if halt {
		d.st.Cond = signal.NoCond
		d.halt(nil)
		return nil
	}
	j, err := d.table.Jump(row)
	if err != nil {
		return err
	}
	next, cond, err := j.Next(row, d.topo)
	if err != nil {
		return errors.Wrapf(err, "row %d", row)
	}
	d.st.Cond = cond
	if next < 0 || next >= d.table.Len() {
		return errors.Wrapf(signal.ErrIndexOutOfRange, "row %d: jump to row %d", row, next)
	}
	d.log.Debug("step", "cycle", d.st.Cycle, "row", row, "next", next, "cond", cond, "updates", updates, "latched", len(latched))
	d.st.Row = next
	d.st.State = Ready
	return nil
}

func (d *Debugger) record(row int) {
	if d.rec == nil {
		return
	}
	if err := d.rec.Record(d.st.Cycle, row, d.topo.Snapshot()); err != nil {
		d.log.Warn("trace recording failed", "cycle", d.st.Cycle, "error", err)
		d.metrics.recordError()
	}
}

// Run executes steps until the machine halts or the next row is one of the
// given breakpoints. At least one step is executed, so that Run can resume
// from a breakpoint.
//
// The context is checked before every step. If it is done, Run returns its
// error and the Debugger stays Ready.
//
// Run returns nil when the machine halts on its halt signal or stops on a
// breakpoint. Check ExecutionState to tell them apart.
//
func (d *Debugger) Run(ctx context.Context, breakpoints ...int) error {
	bp := make(map[int]struct{}, len(breakpoints))
	for _, b := range breakpoints {
		bp[b] = struct{}{}
	}
	for n := uint64(0); ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.limit > 0 && n == d.limit {
			return errors.Wrapf(ErrStepLimit, "%d steps", n)
		}
		if err := d.Step(); err != nil {
			return err
		}
		if d.st.State == Halted {
			return nil
		}
		if _, ok := bp[d.st.Row]; ok {
			d.log.Debug("breakpoint", "row", d.st.Row, "cycle", d.st.Cycle)
			return nil
		}
	}
}
