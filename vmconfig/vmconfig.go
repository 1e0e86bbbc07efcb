// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package vmconfig collects the configurable limits a VM run is bounded
// by, assembled through functional options the way probe-lang's cmd/probec
// flags assemble a run configuration.
package vmconfig

// Limits bundles every bound a single VM run enforces beyond the fixed
// exception taxonomy: gas ceiling, operand stack depth, and the maximum
// Merkle depth accepted for a committed c4/c5.
type Limits struct {
	GasLimit     int64
	StackDepth   int
	MaxDataDepth int
	SameC3       bool
	PushZero     bool
	StackTrace   bool
}

// Option mutates a Limits during construction.
type Option func(*Limits)

const (
	defaultGasLimit     = 1_000_000
	defaultStackDepth   = 10000
	defaultMaxDataDepth = 512
)

// Default returns the baseline limits applied when New is given no
// options.
func Default() Limits {
	return Limits{
		GasLimit:     defaultGasLimit,
		StackDepth:   defaultStackDepth,
		MaxDataDepth: defaultMaxDataDepth,
	}
}

// New assembles a Limits from Default() plus the given options.
func New(opts ...Option) Limits {
	l := Default()
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithGasLimit overrides the gas ceiling.
func WithGasLimit(n int64) Option { return func(l *Limits) { l.GasLimit = n } }

// WithStackDepth overrides the operand stack depth limit.
func WithStackDepth(n int) Option { return func(l *Limits) { l.StackDepth = n } }

// WithMaxDataDepth overrides the accepted commit depth for c4/c5.
func WithMaxDataDepth(n int) Option { return func(l *Limits) { l.MaxDataDepth = n } }

// WithSameC3 sets the same-c3 run flag (install c3 as an ordinary
// continuation over the entry code rather than quit-on-return).
func WithSameC3(v bool) Option { return func(l *Limits) { l.SameC3 = v } }

// WithPushZero sets the push-zero run flag (seed the initial stack with a
// single 0, used by some calling conventions for a "self-check" arg).
func WithPushZero(v bool) Option { return func(l *Limits) { l.PushZero = v } }

// WithStackTrace enables per-instruction stack-depth tracing.
func WithStackTrace(v bool) Option { return func(l *Limits) { l.StackTrace = v } }
