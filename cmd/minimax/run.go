// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"runtime"

	"github.com/db47h/minimax/signal"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) runCmd() *cobra.Command {
	var bps []int
	cmd := &cobra.Command{
		Use:   "run program.yaml",
		Short: "Run a program until it halts or reaches a breakpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			err = s.d.Run(ctx, bps...)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, s.status())
			fmt.Fprintln(out, s.registers())
			return err
		},
	}
	cmd.Flags().IntSliceVarP(&bps, "break", "b", nil, "breakpoint rows")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "check program.yaml...",
		Short: "Validate programs against the machine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machine()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range args {
				t, err := program(m, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d rows, %d signals\n", path, t.Len(), t.Config().Len())
				if dump {
					if err = signal.Encode(out, t); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the normalized program")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "batch program.yaml...",
		Short: "Run several programs in parallel, each on its own machine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptible(cmd.Context())
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			if jobs <= 0 {
				jobs = runtime.GOMAXPROCS(0)
			}
			g.SetLimit(jobs)
			res := make([]string, len(args))
			for i, path := range args {
				g.Go(func() error {
					s, err := a.load(path)
					if err != nil {
						return err
					}
					err = s.d.Run(ctx)
					res[i] = fmt.Sprintf("%s: %s\n%s: %s", path, s.status(), path, s.registers())
					return errors.Wrap(err, path)
				})
			}
			err := g.Wait()
			out := cmd.OutOrStdout()
			for _, r := range res {
				if r != "" {
					fmt.Fprintln(out, r)
				}
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "maximum number of parallel runs (default GOMAXPROCS)")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [session]",
		Short: "List recorded sessions, or the steps of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return errors.New("no trace database configured")
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ids, err := a.store.Sessions()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}
			id, err := parseSession(args[0])
			if err != nil {
				return err
			}
			h, err := a.store.History(id)
			if err != nil {
				return err
			}
			if len(h) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no entries")
			}
			for _, e := range h {
				fmt.Fprintf(out, "%6d row %-4d", e.Cycle, e.Row)
				for _, r := range e.Snapshot.RegisterIDs() {
					fmt.Fprintf(out, " %s=%#x", r, e.Snapshot.Registers[r])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func parseSession(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	return id, errors.Wrapf(err, "session id %q", s)
}
