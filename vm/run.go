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
	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/exn"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/stack"
)

// JumpTo is the simple path: blindly invoke cont.Jump.
func (st *VmState) JumpTo(c cont.Continuation) (int, error) {
	return c.Jump(st)
}

// Jump decides, based on whether c carries a captured stack or a declared
// nargs, between the simple JumpTo path and the general pass_args path
// (passing the entire current stack in the latter case, matching a bare
// "jump(cont)" call site with no explicit argument count).
func (st *VmState) Jump(c cont.Continuation) (int, error) {
	cd := c.GetControlData()
	if cd != nil && (cd.Stack != nil || cd.Nargs >= 0) {
		return st.JumpArgs(c, st.stk.Depth())
	}
	return st.JumpTo(c)
}

// JumpArgs is the general jump(cont, pass_args) path: validates the
// requested argument count against both the live stack depth and any
// nargs the continuation declares, preclears registers the continuation is
// about to overwrite, slices the stack accordingly, and finally installs
// the continuation.
func (st *VmState) JumpArgs(c cont.Continuation, passArgs int) (int, error) {
	if passArgs > st.stk.Depth() {
		return 0, exn.New(exn.StkUnd, "jump requires %d args, have %d", passArgs, st.stk.Depth())
	}
	cd := c.GetControlData()
	if cd != nil && cd.Nargs >= 0 && passArgs < cd.Nargs {
		return 0, exn.New(exn.StkUnd, "continuation requires %d args, got %d", cd.Nargs, passArgs)
	}
	if cd != nil {
		st.cr.AndAssign(&cd.Save)
	}
	if cd != nil && cd.Stack != nil {
		moved, err := st.stk.SplitTop(passArgs)
		if err != nil {
			return 0, err
		}
		newTop := cd.Stack.Clone()
		if err := newTop.MoveFromStack(moved, moved.Depth()); err != nil {
			return 0, err
		}
		st.stk = newTop
	} else if passArgs >= 0 && passArgs < st.stk.Depth() {
		kept, err := st.stk.SplitTop(passArgs)
		if err != nil {
			return 0, err
		}
		st.stk = kept
	}
	return c.Jump(st)
}

// Call constructs a return continuation from the current code and c0,
// installs it as the new c0, then jumps to c.
func (st *VmState) Call(c cont.Continuation) (int, error) {
	ret := cont.NewOrdCont(st.code)
	ret.CD.Save.SetC0(st.cr.GetC(0))
	st.cr.SetC0(ret)
	return st.Jump(c)
}

// CallArgs is Call with an explicit pass_args/ret_args pair: the return
// continuation is constrained to return exactly retArgs values.
func (st *VmState) CallArgs(c cont.Continuation, passArgs, retArgs int) (int, error) {
	ret := cont.NewOrdCont(st.code)
	ret.CD.Save.SetC0(st.cr.GetC(0))
	if retArgs >= 0 {
		ret.CD.Nargs = retArgs
	}
	st.cr.SetC0(ret)
	return st.JumpArgs(c, passArgs)
}

// Ret takes c0, replaces it with quit0, and jumps to the continuation that
// was there.
func (st *VmState) Ret() (int, error) {
	c0 := st.cr.GetC(0)
	if c0 == nil {
		c0 = st.quit0
	}
	st.cr.SetC0(st.quit0)
	return st.Jump(c0)
}

// RetArgs is Ret with an explicit required return-argument count.
func (st *VmState) RetArgs(retArgs int) (int, error) {
	c0 := st.cr.GetC(0)
	if c0 == nil {
		c0 = st.quit0
	}
	st.cr.SetC0(st.quit0)
	return st.JumpArgs(c0, retArgs)
}

// ExtractCC materializes the current execution point as a fresh OrdCont
// capturing passArgs from the top of the stack, installing quit0/quit1/a
// fresh ExcQuitCont into whichever of saveMask's bits (bit i => register i)
// request a save, and returns the continuation without altering st's own
// program position.
func (st *VmState) ExtractCC(saveMask uint, passArgs, retArgs int) (cont.Continuation, error) {
	oc := cont.NewOrdCont(st.code)
	if passArgs >= 0 {
		moved, err := st.stk.SplitTop(passArgs)
		if err != nil {
			return nil, err
		}
		oc.CD.Stack = moved
	}
	if retArgs >= 0 {
		oc.CD.Nargs = retArgs
	}
	for i := 0; i < 8; i++ {
		if saveMask&(1<<uint(i)) == 0 {
			continue
		}
		switch i {
		case 0:
			oc.CD.Save.SetC0(st.quit0)
		case 1:
			oc.CD.Save.SetC1(st.quit1)
		case 2:
			oc.CD.Save.SetC2(cont.NewExcQuitCont())
		default:
			if c := st.cr.GetC(i); c != nil {
				oc.CD.Save.SetC(i, c)
			}
		}
	}
	return oc, nil
}

// ThrowExn implements throw_exception: clears the stack, pushes the small
// integer excno, zeroes the code slice, debits the exception gas price, and
// jumps to c2.
func (st *VmState) ThrowExn(excno int) (int, error) {
	return st.ThrowExnPayload(excno, nil)
}

// ThrowExnPayload is ThrowExn with an optional payload value pushed below
// the exception number (arg-carrying throw).
func (st *VmState) ThrowExnPayload(excno int, payload *stack.Entry) (int, error) {
	st.stk.Clear()
	if payload != nil {
		if err := st.stk.Push(*payload); err != nil {
			return 0, err
		}
	}
	v := bigint.FromInt64(int64(excno))
	if err := st.stk.PushInt(v); err != nil {
		return 0, err
	}
	st.code = cell.NewSlice(emptyCell())
	st.gas.Consume(gasprice.Exception)
	c2 := st.cr.GetC(2)
	if c2 == nil {
		c2 = cont.NewExcQuitCont()
	}
	return st.Jump(c2)
}

var emptyCellCache *cell.Cell

func emptyCell() *cell.Cell {
	if emptyCellCache == nil {
		emptyCellCache = cell.NewBuilder().Finalize()
	}
	return emptyCellCache
}

// LoadCell implements load_cell_slice: registers a cell load with the gas
// meter (full price the first time a hash is seen this run, reload price
// thereafter), resolves LibraryCell special cells recursively (bounded by
// maxLoadRecursion), and raises virt_err/cell_und per spec §4.2 for pruned
// branches and disallowed special tags.
func (st *VmState) LoadCell(c *cell.Cell) (*cell.Slice, error) {
	return st.loadCell(c, 0)
}

func (st *VmState) loadCell(c *cell.Cell, depth int) (*cell.Slice, error) {
	if depth > maxLoadRecursion {
		return nil, &exn.VmFatal{Message: "library cell resolution recursion too deep"}
	}
	h := c.Hash()
	if st.seenCell(h) {
		st.gas.Consume(gasprice.CellReload)
	} else {
		st.gas.Consume(gasprice.CellLoad)
		st.markCellSeen(h)
	}
	switch c.Special() {
	case cell.Ordinary:
		return cell.NewSlice(c), nil
	case cell.PrunedBranch:
		return nil, &exn.VmVirtError{Message: "pruned branch touched with virtualization 0"}
	case cell.LibraryCell:
		s := cell.NewSlice(c)
		if _, err := s.FetchUint(8); err != nil {
			return nil, exn.New(exn.CellUnd, "malformed library cell tag")
		}
		hv, err := s.FetchBits(256)
		if err != nil {
			return nil, exn.New(exn.CellUnd, "malformed library cell hash")
		}
		var want cell.Hash
		b := hv.Bytes()
		copy(want[len(want)-len(b):], b)
		for _, lib := range st.libraries {
			if lib.Hash() == want {
				return st.loadCell(lib, depth+1)
			}
		}
		return nil, exn.New(exn.CellUnd, "library cell %x not resolvable", want)
	default:
		return nil, exn.New(exn.CellUnd, "disallowed special cell tag %d", c.Special())
	}
}

// LoadCellSpecial is the "is_special" variant: it never raises cell_und
// for a disallowed special tag, instead reporting isSpecial=true and
// handing back a plain data slice over the special cell's own bits.
func (st *VmState) LoadCellSpecial(c *cell.Cell) (s *cell.Slice, isSpecial bool, err error) {
	if c.Special() == cell.Ordinary {
		sl, err := st.LoadCell(c)
		return sl, false, err
	}
	h := c.Hash()
	if st.seenCell(h) {
		st.gas.Consume(gasprice.CellReload)
	} else {
		st.gas.Consume(gasprice.CellLoad)
		st.markCellSeen(h)
	}
	return cell.NewSlice(c), true, nil
}
