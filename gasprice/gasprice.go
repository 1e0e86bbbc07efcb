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

// Package gasprice centralizes the VM's fixed gas prices, the way
// probe-lang/lang/vm's gasTrivial/gasArithmetic/... constant block does for
// its register VM, generalized to the opcode-dispatch pricing model (a
// per-instruction base plus per-opcode-bit surcharge, plus a handful of
// fixed prices for cell/exception/tuple events).
package gasprice

const (
	// DispatchBase is debited on every instruction dispatch in addition to
	// OpcBits(instr) extra units.
	DispatchBase int64 = 10

	// CellLoad is charged the first time a given cell hash is loaded during
	// a run; CellReload is charged on every subsequent load of the same
	// hash within the same run (loaded_cells tracks which hashes already
	// paid the full price).
	CellLoad   int64 = 100
	CellReload int64 = 25

	// CellCreate is charged when a builder is finalized into a new cell.
	CellCreate int64 = 500

	// Exception is charged once when throw_exception fires.
	Exception int64 = 50

	// ImplicitJmpref is charged by the run loop's implicit-JMPREF step
	// (falling off the end of a code slice into its first ref).
	ImplicitJmpref int64 = 10

	// ImplicitRet is charged by the run loop's implicit-RET step (falling
	// off the end of a code slice with no refs left).
	ImplicitRet int64 = 5

	// TupleEntry is charged per element constructed or decomposed by a
	// tuple opcode.
	TupleEntry int64 = 1

	// StackEntry is charged per entry moved by stack-shuffle opcodes whose
	// cost scales with the block size (BLKSWAP, BLKPUSH, etc).
	StackEntry int64 = 1
)

// Limits tracks the three-valued gas accounting the spec requires: an
// absolute cap, the current ceiling, and a credit (overdraft that becomes
// chargeable on the next refill).
type Limits struct {
	Max      int64
	Limit    int64
	Credit   int64
	Consumed int64
}

// NewLimits returns a Limits with max==limit==limit and zero consumed/credit.
func NewLimits(limit int64) *Limits {
	return &Limits{Max: limit, Limit: limit}
}

// Remaining returns how much gas may still be spent before ConsumeChk fails.
func (l *Limits) Remaining() int64 { return l.Limit + l.Credit - l.Consumed }

// ConsumeChk debits n gas units, returning an error (the caller maps this
// to VmNoGas) if doing so would drive Remaining negative.
func (l *Limits) ConsumeChk(n int64) error {
	l.Consumed += n
	if l.Remaining() < 0 {
		return ErrOutOfGas
	}
	return nil
}

// Consume debits n gas units unconditionally, without bounds checking;
// used internally once a prior ConsumeChk already validated headroom.
func (l *Limits) Consume(n int64) { l.Consumed += n }

// SetCredit grants an overdraft allowance usable by the next ConsumeChk
// calls before it must be repaid on refill.
func (l *Limits) SetCredit(credit int64) { l.Credit = credit }

// DispatchCost computes the 10+opc_bits dispatch charge for an instruction
// whose opcode occupies opcBits bits of the prefix space.
func DispatchCost(opcBits int) int64 {
	return DispatchBase + int64(opcBits)
}

// ErrOutOfGas is returned by ConsumeChk on exhaustion; callers translate it
// into exn.VmNoGas at the VmState boundary.
var ErrOutOfGas = errOutOfGas{}

type errOutOfGas struct{}

func (errOutOfGas) Error() string { return "gasprice: out of gas" }
