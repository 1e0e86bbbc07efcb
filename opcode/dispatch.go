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

package opcode

import (
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/gasprice"
)

// prefetchPrefix returns the top min(PrefixBits, s.BitsLeft()) bits of s,
// zero-extended on the right up to PrefixBits, without consuming them --
// the dispatcher's view into what instruction interval the current code
// position falls into even when fewer than PrefixBits remain.
func prefetchPrefix(s *cell.Slice) uint32 {
	n := s.BitsLeft()
	if n > PrefixBits {
		n = PrefixBits
	}
	if n == 0 {
		return 0
	}
	v, err := s.PrefetchBits(n)
	if err != nil {
		return 0
	}
	shift := PrefixBits - n
	return uint32(v.Uint64()) << uint(shift)
}

// Dispatch prefetches the current instruction, debits its base dispatch
// cost, consumes its fixed opcode bits and immediate argument bits from
// st's code slice, and invokes its handler.
func Dispatch(st Machine, table *Table) (int, error) {
	prefix := prefetchPrefix(st.Code())
	instr, err := table.Lookup(prefix)
	if err != nil {
		return st.ThrowExn(invOpcodeExcno)
	}
	if err := st.ChargeGas(gasprice.DispatchCost(instr.OpcBits)); err != nil {
		return 0, err
	}
	if st.Code().BitsLeft() < instr.OpcBits+instr.ArgBits {
		return st.ThrowExn(invOpcodeExcno)
	}
	if _, err := st.Code().FetchBits(instr.OpcBits); err != nil {
		return st.ThrowExn(invOpcodeExcno)
	}
	var args uint64
	if instr.ArgBits > 0 {
		v, err := st.Code().FetchBits(instr.ArgBits)
		if err != nil {
			return st.ThrowExn(invOpcodeExcno)
		}
		args = v.Uint64()
	}
	return instr.Handler(st, args)
}
