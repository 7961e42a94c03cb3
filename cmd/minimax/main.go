// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command minimax runs and debugs micro-programs on the minimax machine.
//
//	minimax run prog.yaml           # run until halt
//	minimax run -b 3 prog.yaml      # run until row 3 or halt
//	minimax debug prog.yaml         # interactive debugger
//	minimax check prog.yaml         # validate a program
//	minimax batch a.yaml b.yaml     # run programs in parallel
//	minimax history [session]       # show recorded traces
//
// A program is a signal table document, see package signal. The machine is
// the default minimax machine unless a machine description is given with
// --machine.
//
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"time"

	"github.com/db47h/minimax/debugger"
	"github.com/db47h/minimax/machine"
	"github.com/db47h/minimax/signal"
	"github.com/db47h/minimax/trace"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// app holds the state shared by all sub commands.
//
type app struct {
	cfgPath string
	flags   Config
	cfg     Config
	stderr  io.Writer

	log     *slog.Logger
	store   *trace.Store
	metrics *debugger.Metrics
	srv     *http.Server
}

func newApp(stderr io.Writer) *app {
	return &app{stderr: stderr, log: slog.New(slog.DiscardHandler)}
}

// rootCmd returns the root command. a.teardown must be called once the
// command has been executed.
//
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "minimax",
		Short:             "minimax CPU microarchitecture simulator",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "minimax.yaml", "configuration file")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.Machine, "machine", "", "machine description file")
	pf.StringVar(&a.flags.TraceDB, "trace-db", "", "trace database directory")
	pf.StringVar(&a.flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.Uint64Var(&a.flags.StepLimit, "step-limit", 0, "maximum number of steps per run")
	pf.IntVar(&a.flags.MaxUpdates, "max-updates", 0, "maximum part updates per settle pass")

	root.AddCommand(
		a.runCmd(),
		a.debugCmd(),
		a.checkCmd(),
		a.batchCmd(),
		a.historyCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.cfgPath)
	if err != nil {
		return err
	}
	fs := cmd.Flags()
	if fs.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if fs.Changed("machine") {
		cfg.Machine = a.flags.Machine
	}
	if fs.Changed("trace-db") {
		cfg.TraceDB = a.flags.TraceDB
	}
	if fs.Changed("metrics-addr") {
		cfg.MetricsAddr = a.flags.MetricsAddr
	}
	if fs.Changed("step-limit") {
		cfg.StepLimit = a.flags.StepLimit
	}
	if fs.Changed("max-updates") {
		cfg.MaxUpdates = a.flags.MaxUpdates
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if cfg.TraceDB != "" {
		if a.store, err = trace.Open(trace.Config{Path: cfg.TraceDB, Logger: a.log.With("component", "badger")}); err != nil {
			return err
		}
	}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.metrics = debugger.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		a.srv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Error("metrics server", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		a.log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = a.srv.Shutdown(ctx)
		a.srv = nil
	}
	if a.store != nil {
		if cerr := a.store.Close(); err == nil {
			err = cerr
		}
		a.store = nil
	}
	return err
}

// machine builds a new machine from the configured description.
//
func (a *app) machine() (*machine.Machine, error) {
	d := machine.Default()
	if a.cfg.Machine != "" {
		f, err := os.Open(a.cfg.Machine)
		if err != nil {
			return nil, errors.Wrap(err, "machine description")
		}
		defer f.Close()
		if d, err = machine.Decode(f); err != nil {
			return nil, errors.Wrap(err, a.cfg.Machine)
		}
	}
	m, err := machine.Build(d)
	if err != nil {
		return nil, err
	}
	m.Topology.MaxUpdates = a.cfg.MaxUpdates
	return m, nil
}

// program reads a signal table for m.
//
func program(m *machine.Machine, path string) (*signal.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := signal.Decode(f, m.Signals)
	return t, errors.Wrap(err, path)
}

// session is a machine running a program.
//
type session struct {
	name string
	m    *machine.Machine
	d    *debugger.Debugger
	rec  *trace.Session
}

func (a *app) load(path string) (*session, error) {
	m, err := a.machine()
	if err != nil {
		return nil, err
	}
	t, err := program(m, path)
	if err != nil {
		return nil, err
	}
	s := &session{name: path, m: m}
	log := a.log.With("program", path)
	opts := []debugger.Option{
		debugger.WithLogger(log),
		debugger.WithMetrics(a.metrics),
		debugger.WithStepLimit(a.cfg.StepLimit),
	}
	if a.store != nil {
		s.rec = a.store.NewSession()
		opts = append(opts, debugger.WithRecorder(s.rec))
		log.Info("recording trace", "session", s.rec.ID)
	}
	s.d = debugger.New(m.Topology, opts...)
	if err = s.d.Load(t); err != nil {
		return nil, err
	}
	return s, nil
}

// registers formats the register contents, base registers first.
//
func (s *session) registers() string {
	var b strings.Builder
	snap := s.d.Snapshot()
	for i, r := range s.m.Registers() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%#x", r, snap.Registers[r])
	}
	return b.String()
}

func (s *session) status() string {
	st := s.d.ExecutionState()
	str := fmt.Sprintf("%s at row %d, cycle %d", st.State, st.Row, st.Cycle)
	if st.Cond != signal.NoCond {
		str += ", condition " + st.Cond.String()
	}
	if st.Err != nil {
		str += ": " + st.Err.Error()
	}
	return str
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(ctx, os.Interrupt)
}

func main() {
	a := newApp(os.Stderr)
	err := a.rootCmd().Execute()
	if terr := a.teardown(); terr != nil {
		a.log.Error("shutdown", "error", terr)
	}
	if err != nil {
		os.Exit(1)
	}
}
