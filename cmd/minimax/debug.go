// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug program.yaml",
		Short: "Debug a program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			r := &repl{s: s, bps: make(map[int]bool), out: cmd.OutOrStdout()}
			return r.loop(cmd.Context(), cmd.InOrStdin())
		},
	}
}

type repl struct {
	s   *session
	bps map[int]bool
	out io.Writer
	ctx context.Context
}

type replCmd struct {
	desc string
	fn   func(r *repl, args []string) error
}

var errQuit = errors.New("quit")

var replCmds map[string]replCmd

func init() {
	replCmds = map[string]replCmd{
		"s": {"(s)tep [n]: execute n rows (default 1)", cmdStep},
		"c": {"(c)ontinue until a breakpoint or halt", cmdContinue},
		"b": {"(b)reak row|label: set a breakpoint", cmdBreak},
		"d": {"(d)elete row|label: delete a breakpoint", cmdDelete},
		"l": {"(l)ist the program", cmdList},
		"r": {"dump the (r)egisters", func(r *repl, _ []string) error {
			fmt.Fprintln(r.out, r.s.registers())
			return nil
		}},
		"p": {"(p)rint pin values: p part.pin...", cmdPin},
		"m": {"print (m)emory: m addr [n]", cmdMem},
		"i": {"execution state (i)nfo", func(r *repl, _ []string) error {
			fmt.Fprintln(r.out, r.s.status())
			return nil
		}},
		"x": {"reset the machine", func(r *repl, _ []string) error {
			err := r.s.d.Reset()
			fmt.Fprintln(r.out, r.s.status())
			return err
		}},
		"h": {"(h)elp", cmdHelp},
		"q": {"(q)uit", func(*repl, []string) error { return errQuit }},
	}
}

func (r *repl) loop(ctx context.Context, in io.Reader) error {
	r.ctx = ctx
	sc := bufio.NewScanner(in)
	fmt.Fprintln(r.out, r.s.status())
	for {
		fmt.Fprintf(r.out, "(%d) > ", r.s.d.ExecutionState().Row)
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		c, ok := replCmds[f[0]]
		if !ok {
			fmt.Fprintf(r.out, "unknown command %q, h for help\n", f[0])
			continue
		}
		if err := c.fn(r, f[1:]); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintln(r.out, "error:", err)
		}
	}
}

func cmdHelp(r *repl, _ []string) error {
	keys := make([]string, 0, len(replCmds))
	for k := range replCmds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.out, "%s\t%s\n", k, replCmds[k].desc)
	}
	return nil
}

func cmdStep(r *repl, args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 1 {
			return errors.Errorf("invalid step count %q", args[0])
		}
	}
	for ; n > 0; n-- {
		if err := r.s.d.Step(); err != nil {
			return err
		}
		if r.s.d.ExecutionState().Halted {
			break
		}
	}
	fmt.Fprintln(r.out, r.s.status())
	return nil
}

func cmdContinue(r *repl, _ []string) error {
	bps := make([]int, 0, len(r.bps))
	for b := range r.bps {
		bps = append(bps, b)
	}
	err := r.s.d.Run(r.ctx, bps...)
	fmt.Fprintln(r.out, r.s.status())
	return err
}

// row parses a row index or label.
func (r *repl) row(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("row index or label expected")
	}
	t := r.s.d.Table()
	if i := t.IndexOf(args[0]); i >= 0 {
		return i, nil
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= t.Len() {
		return 0, errors.Errorf("no row %q", args[0])
	}
	return i, nil
}

func cmdBreak(r *repl, args []string) error {
	i, err := r.row(args)
	if err != nil {
		return err
	}
	r.bps[i] = true
	fmt.Fprintf(r.out, "breakpoint at row %d\n", i)
	return nil
}

func cmdDelete(r *repl, args []string) error {
	i, err := r.row(args)
	if err != nil {
		return err
	}
	delete(r.bps, i)
	return nil
}

func cmdList(r *repl, _ []string) error {
	t := r.s.d.Table()
	cur := r.s.d.ExecutionState().Row
	for i := 0; i < t.Len(); i++ {
		row, _ := t.Row(i)
		mark := "  "
		if i == cur {
			mark = "=>"
		}
		bp := " "
		if r.bps[i] {
			bp = "*"
		}
		names := make([]string, 0, len(row.Values))
		for k := range row.Values {
			names = append(names, k)
		}
		sort.Strings(names)
		vals := make([]string, len(names))
		for k, n := range names {
			vals[k] = fmt.Sprintf("%s=%d", n, row.Values[n])
		}
		fmt.Fprintf(r.out, "%s%s%4d %-8s %-40s %s\n", mark, bp, i, row.Label, strings.Join(vals, " "), row.Jump)
	}
	return nil
}

func cmdPin(r *repl, args []string) error {
	if len(args) == 0 {
		return errors.New("pin reference expected")
	}
	for _, ref := range args {
		v, err := r.s.m.Topology.Read(ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s = %#x (%d)\n", ref, v, v)
	}
	return nil
}

func cmdMem(r *repl, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: m addr [n]")
	}
	addr, err := strconv.ParseUint(args[0], 0, 32)
	if err != nil {
		return errors.Wrap(err, "address")
	}
	n := uint64(1)
	if len(args) == 2 {
		if n, err = strconv.ParseUint(args[1], 0, 32); err != nil {
			return errors.Wrap(err, "word count")
		}
	}
	for a := addr; a < addr+n; a++ {
		w, err := r.s.m.Memory.Word(uint32(a))
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "[%04x] = %08x (%d)\n", a, w, w)
	}
	return nil
}
