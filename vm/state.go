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

// Package vm ties together cell, stack, cont, opcode and gasprice into the
// executable TVM core: VmState (the aggregate run context) and the
// dispatch loop that drives it to completion. Grounded on
// probe-lang/lang/vm/vm.go's VM struct and its useGas/Run/Step/execute
// trio, generalized from a flat-register machine to the stack+continuation
// model this domain requires.
package vm

import (
	"fmt"

	"github.com/holiman/bloomfilter/v2"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
	"github.com/tonvm/tvm/vmlog"
)

// loadedBloomBits/loadedBloomHashes size the per-run loaded-cell bloom
// filter: small enough to allocate per run, generous enough that a
// reasonably sized contract's cell set stays well under the filter's
// false-positive knee. Same m/k-parameterized construction go-ethereum's
// trie/sync_bloom.go uses over the same library.
const (
	loadedBloomBits   = 1 << 16
	loadedBloomHashes = 4
)

// maxLoadRecursion bounds library-cell resolution recursion (spec §4.2:
// "the recursion depth must be bounded").
const maxLoadRecursion = 16

// maxDataDepth bounds the Merkle depth of c4/c5 accepted on commit.
const maxDataDepth = 512

// Flags controls optional run-entry behavior.
type Flags struct {
	SameC3     bool // install c3 as an ordinary continuation over the entry code rather than quit0
	PushZero   bool // push a single 0 onto the initial stack before running
	StackTrace bool // log the stack before every dispatched instruction
}

// VmState is the aggregate execution context for one run: operand stack,
// control registers, the current code position, the dispatch table, gas
// accounting, loaded-cell tracking, and the committed persistent-state
// snapshot taken on a successful exit.
type VmState struct {
	stk    *stack.Stack
	cr     cont.ControlRegs
	code   *cell.Slice
	cp     int
	table  *opcode.Table
	gas    *gasprice.Limits

	libraries []*cell.Cell

	loadedCells map[cell.Hash]bool
	loadedBloom *bloomfilter.Filter
	loadDepth   int

	steps int64

	quit0 *cont.QuitCont
	quit1 *cont.QuitCont

	committedC4 *cell.Cell
	committedC5 *cell.Cell
	committed   bool

	archive *cell.Archive

	flags Flags
	log   vmlog.Logger
}

// New constructs a fresh VmState over code, with stk as the initial
// operand stack, dispatching through table, metered by gas.
func New(code *cell.Slice, stk *stack.Stack, table *opcode.Table, gas *gasprice.Limits) *VmState {
	bloom, _ := bloomfilter.New(loadedBloomBits, loadedBloomHashes)
	st := &VmState{
		stk:         stk,
		code:        code,
		cp:          0,
		table:       table,
		gas:         gas,
		loadedCells: make(map[cell.Hash]bool),
		loadedBloom: bloom,
		quit0:       cont.NewQuitCont(0),
		quit1:       cont.NewQuitCont(1),
		log:         vmlog.New("vm"),
	}
	st.cr.SetC0(st.quit0)
	st.cr.SetC1(st.quit1)
	return st
}

// SetC4 installs the persistent-data cell (register d[0]/c4).
func (st *VmState) SetC4(c *cell.Cell) { st.cr.SetD(4, c) }

// SetArchive installs the durable store a successful run's committed c4/c5
// are persisted into (see Run in step.go). A nil archive (the default)
// leaves commit purely in-memory, matching a pure compute/test invocation
// that has nowhere durable to write.
func (st *VmState) SetArchive(a *cell.Archive) { st.archive = a }

// SetC7 installs the "smart contract info" tuple register.
func (st *VmState) SetC7(t stack.Entry) { st.cr.SetC7(t) }

// SetLibraries installs the list of external library cell roots consulted
// by load_cell_slice when resolving LibraryCell special cells.
func (st *VmState) SetLibraries(libs []*cell.Cell) { st.libraries = libs }

// SetFlags installs the run-entry flags (same-c3, push-zero, stack-trace).
func (st *VmState) SetFlags(f Flags) { st.flags = f }

// ApplyFlags performs the one-time setup SetFlags implies: pushing the
// initial zero and wiring c3, before the first Step.
func (st *VmState) ApplyFlags() error {
	if st.flags.PushZero {
		if err := st.stk.PushInt(bigint.FromInt64(0)); err != nil {
			return err
		}
	}
	if st.flags.SameC3 {
		st.cr.SetC3(cont.NewOrdCont(st.code))
	} else {
		st.cr.SetC3(st.quit0)
	}
	return nil
}

// Stack returns the live operand stack.
func (st *VmState) Stack() *stack.Stack { return st.stk }

// SetStack replaces the live operand stack wholesale (used by jump's
// captured-stack substitution path).
func (st *VmState) SetStack(s *stack.Stack) { st.stk = s }

// Regs returns the live control register file.
func (st *VmState) Regs() *cont.ControlRegs { return &st.cr }

// Code returns the current code cursor.
func (st *VmState) Code() *cell.Slice { return st.code }

// SetCode installs a new code cursor (the program counter).
func (st *VmState) SetCode(s *cell.Slice) { st.code = s }

// Cp returns the active codepage.
func (st *VmState) Cp() int { return st.cp }

// SetCp installs the active codepage.
func (st *VmState) SetCp(cp int) { st.cp = cp }

// ChargeGas debits n gas units, returning exn-mappable error on exhaustion.
func (st *VmState) ChargeGas(n int64) error {
	if err := st.gas.ConsumeChk(n); err != nil {
		return &VmNoGasError{Consumed: st.gas.Consumed}
	}
	return nil
}

// GasConsumed returns the total gas spent so far.
func (st *VmState) GasConsumed() int64 { return st.gas.Consumed }

// bloomKey folds a cell hash down to the uint64 key bloomfilter.Filter
// operates on.
func bloomKey(h cell.Hash) uint64 {
	var k uint64
	for _, b := range h[:8] {
		k = k<<8 | uint64(b)
	}
	return k
}

// seenCell reports whether h was already charged the full load price this
// run. The bloom filter never false-negatives, so a miss there is a cheap,
// authoritative "no"; a hit still falls through to the real map, since the
// filter can false-positive. Mirrors cell.Pool.Lookup's cache-then-map
// shape.
func (st *VmState) seenCell(h cell.Hash) bool {
	if st.loadedBloom != nil && !st.loadedBloom.Contains(bloomKey(h)) {
		return false
	}
	return st.loadedCells[h]
}

// markCellSeen records h as loaded for the rest of this run.
func (st *VmState) markCellSeen(h cell.Hash) {
	st.loadedCells[h] = true
	if st.loadedBloom != nil {
		st.loadedBloom.Add(bloomKey(h))
	}
}

// Log emits a debug line through the VM's logger.
func (st *VmState) Log(format string, args ...interface{}) {
	st.log.Debug(fmt.Sprintf(format, args...))
}

// Steps returns the number of dispatch cycles executed so far.
func (st *VmState) Steps() int64 { return st.steps }

// CommittedState returns the c4/c5 snapshot taken on a successful commit,
// and whether a commit has happened at all.
func (st *VmState) CommittedState() (c4, c5 *cell.Cell, ok bool) {
	return st.committedC4, st.committedC5, st.committed
}

// VmNoGasError is VmState's concrete representation of the spec's VmNoGas:
// unconditionally terminal, never recoverable via c2.
type VmNoGasError struct{ Consumed int64 }

func (e *VmNoGasError) Error() string { return fmt.Sprintf("vm: out of gas (consumed %d)", e.Consumed) }

var (
	_ cont.Machine   = (*VmState)(nil)
	_ opcode.Machine = (*VmState)(nil)
)
