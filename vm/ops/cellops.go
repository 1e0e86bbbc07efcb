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

package ops

import (
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
)

// NewC implements NEWC: push a fresh empty builder (0xC8).
func NewC() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().Push(stack.FromBuilder(cell.NewBuilder()))
	}
}

// EndC implements ENDC: pop a builder, finalize it into a cell, push the
// cell (0xC9); charges cell_create.
func EndC() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		if err := st.ChargeGas(gasprice.CellCreate); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromCell(b.Finalize()))
	}
}

// StU implements STU cc: pop (builder, value), store value as a cc-bit
// unsigned field, push the builder back (0xCA family; cc = args+1).
func StU() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		v, err := st.Stack().PopIntFinite()
		if err != nil {
			return 0, err
		}
		n := int(args) + 1
		if !v.UnsignedFitsBits(uint(n)) {
			return 0, errRangeChk("value does not fit in %d unsigned bits", n)
		}
		if err := b.StoreInt257(v, n, false); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromBuilder(b))
	}
}

// StI implements STI cc: as StU but signed.
func StI() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		v, err := st.Stack().PopIntFinite()
		if err != nil {
			return 0, err
		}
		n := int(args) + 1
		if !v.SignedFitsBits(uint(n)) {
			return 0, errRangeChk("value does not fit in %d signed bits", n)
		}
		if err := b.StoreInt257(v, n, true); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromBuilder(b))
	}
}

// StRef implements STREF: pop (builder, cell), append cell as a child
// reference, push the builder back.
func StRef() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		c, err := st.Stack().PopCell()
		if err != nil {
			return 0, err
		}
		if err := b.StoreRef(c); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromBuilder(b))
	}
}

// StSlice implements STSLICE: pop (builder, slice), append the slice's
// remaining bits/refs onto the builder, push the builder back.
func StSlice() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		if err := b.StoreSlice(s); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromBuilder(b))
	}
}

// CtoS implements CTOS: pop a cell, load it through load_cell_slice, push
// the resulting slice.
func CtoS() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCell()
		if err != nil {
			return 0, err
		}
		s, err := st.LoadCell(c)
		if err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromSlice(s))
	}
}

// LdU implements LDU cc: pop a slice, fetch a cc-bit unsigned field, push
// (value, remaining-slice).
func LdU() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		n := int(args) + 1
		v, err := s.FetchInt256(n, false)
		if err != nil {
			return 0, errCellUnd("%v", err)
		}
		if err := st.Stack().PushInt(v); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromSlice(s))
	}
}

// LdI implements LDI cc: as LdU but signed.
func LdI() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		n := int(args) + 1
		v, err := s.FetchInt256(n, true)
		if err != nil {
			return 0, errCellUnd("%v", err)
		}
		if err := st.Stack().PushInt(v); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromSlice(s))
	}
}

// LdRef implements LDREF: pop a slice, fetch a ref, push (ref-cell,
// remaining-slice).
func LdRef() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		c, err := s.FetchRef()
		if err != nil {
			return 0, errCellUnd("%v", err)
		}
		if err := st.Stack().Push(stack.FromCell(c)); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromSlice(s))
	}
}

// SBits implements SBITS / SREFS / SBITREFS-style introspection of a
// slice's remaining size (pushes BitsLeft only, for brevity).
func SBits() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		if err := st.Stack().Push(stack.FromSlice(s)); err != nil {
			return 0, err
		}
		return 0, pushSmall(st, int64(s.BitsLeft()))
	}
}
