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

package vm

import (
	"errors"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/exn"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
)

// Result is the outcome of a completed run: the (already non-negated) exit
// code, the final stack, and the committed c4/c5 if any.
type Result struct {
	ExitCode  int
	Stack     *stack.Stack
	Committed bool
	C4, C5    *cell.Cell
	GasUsed   int64
	Steps     int64
}

// Run drives the dispatch loop to completion: implicit JMPREF/RET when the
// code slice is exhausted, per-instruction dispatch otherwise, with the
// VmError/VmNoGas/VmVirtError/VmFatal catch-and-resume policy of §4.8.
func (st *VmState) Run(table *opcode.Table) Result {
	var code int
	for {
		code = st.step(table)
		if code != 0 {
			break
		}
	}
	exit := ^code
	committed := false
	c4 := st.cr.GetD(4)
	c5 := st.cr.GetD(5)
	if c4 != nil && c5 != nil && c4.Depth() <= maxDataDepth && c5.Depth() <= maxDataDepth {
		st.committedC4, st.committedC5 = c4, c5
		st.committed = true
		committed = true
		if st.archive != nil {
			if aerr := st.archive.Put(c4); aerr != nil {
				exit = int(exn.Fatal)
			} else if aerr := st.archive.Put(c5); aerr != nil {
				exit = int(exn.Fatal)
			}
		}
	} else if c4 != nil || c5 != nil {
		exit = int(exn.CellOv)
	} else {
		c4, c5 = nil, nil
	}
	return Result{
		ExitCode:  exit,
		Stack:     st.stk,
		Committed: committed,
		C4:        c4,
		C5:        c5,
		GasUsed:   st.gas.Consumed,
		Steps:     st.steps,
	}
}

// step runs exactly one dispatch cycle (or one implicit JMPREF/RET step)
// and returns 0 to continue or a terminal (bitwise-complemented) code.
func (st *VmState) step(table *opcode.Table) int {
	st.steps++
	if st.flags.StackTrace {
		st.Log("stack depth=%d code_bits=%d", st.stk.Depth(), st.code.BitsLeft())
	}

	var result int
	var err error

	switch {
	case st.code.BitsLeft() > 0:
		result, err = opcode.Dispatch(st, table)
	case st.code.RefsLeft() > 0:
		if cerr := st.ChargeGas(gasprice.ImplicitJmpref); cerr != nil {
			err = cerr
		} else {
			ref, rerr := st.code.FetchRef()
			if rerr != nil {
				err = rerr
			} else {
				sl, lerr := st.LoadCell(ref)
				if lerr != nil {
					err = lerr
				} else {
					result, err = st.Jump(cont.NewOrdCont(sl))
				}
			}
		}
	default:
		if cerr := st.ChargeGas(gasprice.ImplicitRet); cerr != nil {
			err = cerr
		} else {
			result, err = st.Ret()
		}
	}

	if err == nil {
		return result
	}
	return st.handleError(err)
}

// handleError implements the catch policy: a typed VmError is routed
// through throw_exception; VmNoGas/VmFatal terminate immediately;
// VmVirtError is mapped to virt_err and routed through the same exception
// path. A second exception raised while handling the first terminates the
// loop with the complemented second errno (no further catch is attempted).
func (st *VmState) handleError(err error) int {
	var ve *exn.VmError
	var virt *exn.VmVirtError
	var nogas *exn.VmNoGas
	var stNogas *VmNoGasError
	var fatal *exn.VmFatal

	switch {
	case errors.As(err, &ve):
		code, terr := st.ThrowExn(int(ve.Excno))
		if terr != nil {
			return st.handleErrorOnce(terr)
		}
		return code
	case errors.As(err, &virt):
		code, terr := st.ThrowExn(int(exn.VirtErr))
		if terr != nil {
			return st.handleErrorOnce(terr)
		}
		return code
	case errors.As(err, &nogas):
		return st.noGasExit()
	case errors.As(err, &stNogas):
		return st.noGasExit()
	case errors.As(err, &fatal):
		return ^int(exn.Fatal)
	default:
		// Untyped error from a lower-level helper (stack/cell/bigint) is
		// classified by the dispatch's own try/catch convention: map to the
		// nearest matching excno by inspecting the originating package's
		// sentinel, defaulting to fatal if nothing matches.
		code, terr := st.ThrowExn(int(classify(err)))
		if terr != nil {
			return st.handleErrorOnce(terr)
		}
		return code
	}
}

// handleErrorOnce is used for the second exception raised while an earlier
// one was already being handled: per spec, "a second exception in the
// handler terminates with ~excno" -- no further catch/resume.
func (st *VmState) handleErrorOnce(err error) int {
	if excno, ok := exn.As(err); ok {
		return ^int(excno)
	}
	if errors.As(err, new(*exn.VmNoGas)) || errors.As(err, new(*VmNoGasError)) {
		return ^int(exn.OutOfGas)
	}
	return ^int(exn.Fatal)
}

func (st *VmState) noGasExit() int {
	st.stk.Clear()
	_ = st.stk.PushInt(bigint.FromInt64(st.gas.Consumed))
	return ^int(exn.OutOfGas)
}

// classify maps a plain (untyped) error from stack/cell/bigint into its
// nearest exn.Excno, the way the dispatch's wrapping try/catch does per
// §4.8 ("Arithmetic/cell overflow or underflow from helper primitives ->
// mapped to int_ov/cell_ov/cell_und").
func classify(err error) exn.Excno {
	switch {
	case errors.Is(err, stack.ErrUnderflow):
		return exn.StkUnd
	case errors.Is(err, stack.ErrOverflow):
		return exn.StkOv
	case errors.Is(err, stack.ErrTypeMismatch):
		return exn.TypeChk
	case errors.Is(err, stack.ErrRange):
		return exn.RangeChk
	case errors.Is(err, cell.ErrTooManyBits), errors.Is(err, cell.ErrTooManyRefs):
		return exn.CellOv
	case errors.Is(err, cell.ErrSliceUnderflow):
		return exn.CellUnd
	default:
		return exn.Fatal
	}
}
