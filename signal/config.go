// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package signal implements the micro-program of the minimax machine: a
// signal configuration declaring the control signals, and a signal table
// whose rows assign a value to every control signal and select the next row.
//
package signal

import (
	"github.com/db47h/minimax"
	"github.com/pkg/errors"
)

// Errors.
//
var (
	ErrUndeclaredSignal = errors.New("undeclared signal")
	ErrDuplicateSignal  = errors.New("duplicate signal")
	ErrValueRange       = errors.New("value out of range")
	ErrIndexOutOfRange  = errors.New("row index out of range")
	ErrInvalid          = errors.New("invalid signal table")
)

// A Signal is a declared control signal.
//
type Signal struct {
	Name    string `yaml:"name" validate:"required"`
	Width   uint   `yaml:"width" validate:"min=1,max=32"`
	Default uint32 `yaml:"default,omitempty"`
}

// A Config is a versioned list of control signals. A Config is immutable.
//
type Config struct {
	version int
	halt    string
	signals []Signal
	index   map[string]int
}

// NewConfig returns a new signal configuration. If halt is not empty, it
// names the signal that stops the machine when a row sets it to a non zero
// value; it must be one of the declared signals.
//
func NewConfig(version int, halt string, signals ...Signal) (*Config, error) {
	c := &Config{
		version: version,
		halt:    halt,
		signals: make([]Signal, len(signals)),
		index:   make(map[string]int, len(signals)),
	}
	for i, s := range signals {
		if s.Name == "" {
			return nil, errors.Wrapf(ErrInvalid, "signal #%d has no name", i)
		}
		if s.Width == 0 || s.Width > minimax.MaxWidth {
			return nil, errors.Wrapf(ErrInvalid, "signal %s: invalid width %d", s.Name, s.Width)
		}
		if minimax.Mask(s.Default, s.Width) != s.Default {
			return nil, errors.Wrapf(ErrValueRange, "signal %s: default value %d", s.Name, s.Default)
		}
		if _, ok := c.index[s.Name]; ok {
			return nil, errors.Wrap(ErrDuplicateSignal, s.Name)
		}
		c.index[s.Name] = i
		c.signals[i] = s
	}
	if _, ok := c.index[halt]; halt != "" && !ok {
		return nil, errors.Wrapf(ErrUndeclaredSignal, "halt signal %s", halt)
	}
	return c, nil
}

// Version returns the configuration version.
func (c *Config) Version() int { return c.version }

// Halt returns the name of the halt signal.
func (c *Config) Halt() string { return c.halt }

// Len returns the number of declared signals.
func (c *Config) Len() int { return len(c.signals) }

// Signals returns the declared signals in declaration order.
func (c *Config) Signals() []Signal { return append([]Signal(nil), c.signals...) }

// Signal returns the named signal.
//
func (c *Config) Signal(name string) (Signal, bool) {
	i, ok := c.index[name]
	if !ok {
		return Signal{}, false
	}
	return c.signals[i], true
}

// Equal returns true if c and o declare the same signals in the same order
// with the same halt signal.
//
func (c *Config) Equal(o *Config) bool {
	if c.halt != o.halt || len(c.signals) != len(o.signals) {
		return false
	}
	for i := range c.signals {
		if c.signals[i] != o.signals[i] {
			return false
		}
	}
	return true
}
