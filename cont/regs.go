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

// Package cont implements the VM's continuation model: the Continuation
// variants that reify control flow (Ord/Quit/ExcQuit/PushInt/Repeat/
// Again/Until/While/ArgExt), the ControlRegs register file (c0-c7), and
// the minimal Machine interface a continuation needs to install itself.
// Grounded on crypto/vm/continuation.h and crypto/vm/contops.cpp in
// original_source.
package cont

import (
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/stack"
)

// Number of continuation registers (c0..c3) and cell registers (c4..c5).
const (
	CRegNum = 4
	DRegNum = 2
	DRegIdx = 4
)

// ControlRegs is the VM's register file: four continuation slots (c0-c3,
// used for return/catch/repeat-break/unused), two cell slots (c4-c5,
// aliased as persistent-data and action-list), and one tuple slot (c7,
// "smart contract info").
type ControlRegs struct {
	C  [CRegNum]Continuation
	D  [DRegNum]*cell.Cell
	C7 stack.Entry
}

// GetC returns register c[idx], or nil if idx is out of range.
func (r *ControlRegs) GetC(idx int) Continuation {
	if idx < 0 || idx >= CRegNum {
		return nil
	}
	return r.C[idx]
}

// GetD returns register d[idx-DRegIdx] (i.e. c4 or c5), or nil if out of
// range.
func (r *ControlRegs) GetD(idx int) *cell.Cell {
	i := idx - DRegIdx
	if i < 0 || i >= DRegNum {
		return nil
	}
	return r.D[i]
}

// ValidIdx reports whether idx names a real control register (0-3, 4-5, or
// 7).
func ValidIdx(idx int) bool {
	return (idx >= 0 && idx < CRegNum) || (idx >= DRegIdx && idx < DRegIdx+DRegNum) || idx == 7
}

// Get returns the value currently stored in register idx as a stack entry,
// or the Null entry if idx is invalid or unset.
func (r *ControlRegs) Get(idx int) stack.Entry {
	switch {
	case idx >= 0 && idx < CRegNum:
		if r.C[idx] == nil {
			return stack.Null()
		}
		return stack.FromCont(r.C[idx])
	case idx >= DRegIdx && idx < DRegIdx+DRegNum:
		if c := r.D[idx-DRegIdx]; c != nil {
			return stack.FromCell(c)
		}
		return stack.Null()
	case idx == 7:
		if r.C7.Kind == stack.KindNull {
			return stack.Null()
		}
		return r.C7
	default:
		return stack.Null()
	}
}

// SetC0 through SetC3 install a continuation into the matching register.
func (r *ControlRegs) SetC0(c Continuation) { r.C[0] = c }
func (r *ControlRegs) SetC1(c Continuation) { r.C[1] = c }
func (r *ControlRegs) SetC2(c Continuation) { r.C[2] = c }
func (r *ControlRegs) SetC3(c Continuation) { r.C[3] = c }

// SetC installs a continuation into register c[idx]; reports false if idx
// is out of range.
func (r *ControlRegs) SetC(idx int, c Continuation) bool {
	if idx < 0 || idx >= CRegNum {
		return false
	}
	r.C[idx] = c
	return true
}

// SetD installs a cell into register d[idx-DRegIdx] (c4/c5); reports false
// if idx is out of range.
func (r *ControlRegs) SetD(idx int, c *cell.Cell) bool {
	i := idx - DRegIdx
	if i < 0 || i >= DRegNum {
		return false
	}
	r.D[i] = c
	return true
}

// SetC7 installs the tuple register.
func (r *ControlRegs) SetC7(t stack.Entry) { r.C7 = t }

// DefineC0 installs c only if c0 is currently empty ("define" semantics:
// first writer wins, used when extracting a fresh continuation that must
// not clobber an already-captured return point).
func (r *ControlRegs) DefineC0(c Continuation) {
	if r.C[0] == nil {
		r.C[0] = c
	}
}

// DefineC1 is DefineC0 for c1.
func (r *ControlRegs) DefineC1(c Continuation) {
	if r.C[1] == nil {
		r.C[1] = c
	}
}

// DefineC2 is DefineC0 for c2.
func (r *ControlRegs) DefineC2(c Continuation) {
	if r.C[2] == nil {
		r.C[2] = c
	}
}

// Set installs value into register idx, type-checking against the
// register's expected kind; reports false on type mismatch or invalid idx.
func (r *ControlRegs) Set(idx int, value stack.Entry) bool {
	switch {
	case idx >= 0 && idx < CRegNum:
		if value.Kind != stack.KindCont {
			return false
		}
		r.C[idx] = value.Cont.(Continuation)
		return true
	case idx >= DRegIdx && idx < DRegIdx+DRegNum:
		if value.Kind != stack.KindCell {
			return false
		}
		r.D[idx-DRegIdx] = value.Cell
		return true
	case idx == 7:
		r.C7 = value
		return true
	default:
		return false
	}
}

// XorAssign overwrites every register present (non-nil/non-empty) in save
// onto r ("cr ^= save" in the spec: used to install a continuation's
// captured register snapshot on jump).
func (r *ControlRegs) XorAssign(save *ControlRegs) {
	if save == nil {
		return
	}
	for i := 0; i < CRegNum; i++ {
		if save.C[i] != nil {
			r.C[i] = save.C[i]
		}
	}
	for i := 0; i < DRegNum; i++ {
		if save.D[i] != nil {
			r.D[i] = save.D[i]
		}
	}
	if save.C7.Kind != stack.KindNull {
		r.C7 = save.C7
	}
}

// AndAssign clears every register in r that is also present in save
// ("cr &= save": preclear before installing a continuation that will
// overwrite those same registers, so a partially-applied jump never
// leaves a stale value visible mid-transition).
func (r *ControlRegs) AndAssign(save *ControlRegs) {
	if save == nil {
		return
	}
	for i := 0; i < CRegNum; i++ {
		if save.C[i] != nil {
			r.C[i] = nil
		}
	}
	for i := 0; i < DRegNum; i++ {
		if save.D[i] != nil {
			r.D[i] = nil
		}
	}
	if save.C7.Kind != stack.KindNull {
		r.C7 = stack.Null()
	}
}

// Clone returns a shallow copy of r (continuations and cells are
// immutable/shared, so copying the slots is sufficient).
func (r *ControlRegs) Clone() *ControlRegs {
	cp := *r
	return &cp
}

// IsEmpty reports whether save has no registers set at all (a no-op
// XorAssign/AndAssign source).
func (r *ControlRegs) IsEmpty() bool {
	for i := 0; i < CRegNum; i++ {
		if r.C[i] != nil {
			return false
		}
	}
	for i := 0; i < DRegNum; i++ {
		if r.D[i] != nil {
			return false
		}
	}
	return r.C7.Kind == stack.KindNull
}
