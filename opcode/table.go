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

// Package opcode implements the VM's prefix-coded instruction dispatch
// table: each instruction claims an interval of the 24-bit opcode prefix
// space, consuming opcBits of prefix plus argBits of immediate parameter.
// Grounded on probe-lang/lang/vm/opcodes.go's opcodeInfo table, generalized
// from a flat uint8 opcode byte to TON's variable-width prefix intervals
// (mirroring crypto/vm/opctable.cpp/dispatch.cpp).
package opcode

import (
	"fmt"
	"sort"

	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/stack"
)

// PrefixBits is the width of the prefix space instructions are registered
// into (the dispatch loop prefetches this many bits before searching).
const PrefixBits = 24

// Machine is the surface an opcode Handler needs from the running VM; it
// embeds cont.Machine (handlers install continuations) and adds the
// cell-loading, call/return, codepage, and exception primitives unique to
// instruction execution. vm.VmState implements it.
type Machine interface {
	cont.Machine
	Cp() int
	SetCp(int)
	Call(c cont.Continuation) (int, error)
	Ret() (int, error)
	ThrowExn(excno int) (int, error)
	ThrowExnPayload(excno int, payload *stack.Entry) (int, error)
	LoadCell(c *cell.Cell) (*cell.Slice, error)
}

// Handler executes one instruction's semantics given the parameter bits
// captured by the dispatcher (already shifted down to start at bit 0). It
// returns 0 to continue the run loop or a terminal (already-negated) exit
// code, exactly like Continuation.Jump.
type Handler func(st Machine, args uint64) (int, error)

// Instruction describes one dispatch-table entry: the prefix interval
// [Min, Max) it claims within the PrefixBits-wide space, how many of those
// bits are the fixed opcode (OpcBits) versus the immediate argument
// (ArgBits, as given by the registering caller),
// its name, and its handler.
type Instruction struct {
	Name    string
	Min     uint32 // inclusive, left-aligned within PrefixBits
	Max     uint32 // exclusive
	OpcBits int
	ArgBits int
	Handler Handler
}

// Table is a finalized, sorted list of non-overlapping Instructions
// covering the entire PrefixBits space (gaps are filled with a dummy
// inv_opcode instruction by Finalize).
type Table struct {
	entries  []Instruction
	finalized bool
}

// NewTable returns an empty, unfinalized table.
func NewTable() *Table { return &Table{} }

// Register adds an instruction occupying the fixed-width prefix range
// [base, base+1) left-shifted to the PrefixBits window (argBits does not
// change the range), i.e. a
// "mkfixedrange"-style registration: opcBits of fixed prefix starting at
// base (already left-aligned to opcBits width) followed by argBits of
// immediate.
func (t *Table) Register(name string, base uint32, opcBits, argBits int, h Handler) {
	if t.finalized {
		panic("opcode: Register called on finalized table")
	}
	shift := PrefixBits - opcBits
	min := base << uint(shift)
	width := uint32(1) << uint(shift)
	t.entries = append(t.entries, Instruction{
		Name: name, Min: min, Max: min + width,
		OpcBits: opcBits, ArgBits: argBits, Handler: h,
	})
}

// RegisterRange adds an instruction whose opcode occupies opcBits bits and
// whose base value ranges over [baseLo, baseHi) (TON's mkfixedrange helper
// for contiguous opcode families like the THROW range 0xf2f0..0xf2f6).
func (t *Table) RegisterRange(name string, baseLo, baseHi uint32, opcBits, argBits int, h Handler) {
	if t.finalized {
		panic("opcode: RegisterRange called on finalized table")
	}
	shift := PrefixBits - opcBits
	min := baseLo << uint(shift)
	max := baseHi << uint(shift)
	t.entries = append(t.entries, Instruction{
		Name: name, Min: min, Max: max,
		OpcBits: opcBits, ArgBits: argBits, Handler: h,
	})
}

func dummyHandler(st Machine, args uint64) (int, error) {
	return st.ThrowExn(invOpcodeExcno)
}

// invOpcodeExcno mirrors exn.InvOpcode without importing exn (which would
// be an unused extra dependency just for one constant); the numeric value
// is part of the fixed exception taxonomy and never changes independently.
const invOpcodeExcno = 6

// Finalize sorts the registered instructions and fills every gap in the
// PrefixBits space with a dummy inv_opcode instruction, after which the
// table is effectively const, matching the spec's "any gaps ... must be
// filled with a dummy instruction" requirement.
func (t *Table) Finalize() {
	if t.finalized {
		return
	}
	sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].Min < t.entries[j].Min })
	var filled []Instruction
	var cursor uint32
	full := uint32(1) << uint(PrefixBits)
	for _, e := range t.entries {
		if e.Min > cursor {
			filled = append(filled, Instruction{
				Name: "inv_opcode", Min: cursor, Max: e.Min, OpcBits: PrefixBits, Handler: dummyHandler,
			})
		}
		filled = append(filled, e)
		if e.Max > cursor {
			cursor = e.Max
		}
	}
	if cursor < full {
		filled = append(filled, Instruction{
			Name: "inv_opcode", Min: cursor, Max: full, OpcBits: PrefixBits, Handler: dummyHandler,
		})
	}
	t.entries = filled
	t.finalized = true
}

// Lookup finds the instruction whose interval contains the given
// PrefixBits-wide prefetched prefix value, via binary search over the
// finalized, sorted, gap-free list.
func (t *Table) Lookup(prefix uint32) (*Instruction, error) {
	if !t.finalized {
		return nil, fmt.Errorf("opcode: Lookup called before Finalize")
	}
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Max > prefix })
	if i >= len(t.entries) || prefix < t.entries[i].Min {
		return nil, fmt.Errorf("opcode: no instruction covers prefix %x", prefix)
	}
	return &t.entries[i], nil
}

// Len returns the number of finalized entries (including dummy fillers).
func (t *Table) Len() int { return len(t.entries) }
