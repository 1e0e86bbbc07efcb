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

import "github.com/tonvm/tvm/opcode"

// Nop implements the 0x00 NOP opcode.
func Nop() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) { return 0, nil }
}

// Swap implements the 0x01 SWAP opcode (exchange the top two entries).
func Swap() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().Swap(0, 1)
	}
}

// Xchg implements the XCHG s(i),s(j) family parametric on two small
// immediates packed into args (4 bits each).
func Xchg() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		i := int((args >> 4) & 0xF)
		j := int(args & 0xF)
		return 0, st.Stack().Swap(i, j)
	}
}

// Dup implements the 0x20 DUP opcode (push a copy of the top entry).
func Dup() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().PushCopy(0)
	}
}

// Push implements the PUSH s(i) family: push a copy of the entry at depth
// i below the top.
func Push() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().PushCopy(int(args))
	}
}

// Drop implements the 0x30 DROP opcode (discard the top entry).
func Drop() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().PopDiscard()
	}
}

// Pop implements the POP s(i) family: move the top entry into depth i,
// removing it from the top (expressed here as swap-then-drop, matching the
// "pop into register i" shape of the opcode).
func Pop() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		i := int(args)
		if i == 0 {
			return 0, st.Stack().PopDiscard()
		}
		if err := st.Stack().Swap(0, i); err != nil {
			return 0, err
		}
		return 0, st.Stack().PopDiscard()
	}
}

// Roll implements the ROLL family: move the entry at depth args below the
// top to the very top.
func Roll() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().Roll(int(args))
	}
}

// Reverse implements the REVERSE family: reverse n entries starting at
// startDepth below the top, with n and startDepth packed 4 bits each into
// args.
func Reverse() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n := int((args>>4)&0xF) + 2
		start := int(args & 0xF)
		return 0, st.Stack().Reverse(n, start)
	}
}
