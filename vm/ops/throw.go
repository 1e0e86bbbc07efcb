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

// Throw implements the short THROW n form: the 8-bit immediate is the
// exception number to raise unconditionally.
func Throw() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return st.ThrowExn(int(args))
	}
}

// ThrowIf implements THROWIF n: pop a boolean; if true, throw n.
func ThrowIf() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		return st.ThrowExn(int(args))
	}
}

// ThrowIfNot implements THROWIFNOT n: pop a boolean; if false, throw n.
func ThrowIfNot() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if ok {
			return 0, nil
		}
		return st.ThrowExn(int(args))
	}
}

// ThrowAny implements the exec_throw_any family: the low bits of args
// decode as has_param = args&1, has_cond = args&6, throw_cond = args&2,
// matching contops.cpp's exec_throw_any exactly: the condition (if any) is
// popped first, then the exception number is *always* popped off the
// stack (never taken from args), and only when has_param is a further
// payload value popped and forwarded — and only once the condition has
// matched, so a non-matching conditional throw still consumes excno but
// drops rather than forwards the payload.
func ThrowAny() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		hasParam := args&1 != 0
		hasCond := args&6 != 0
		throwCond := args&2 != 0

		flag := throwCond
		if hasCond {
			ok, err := st.Stack().PopBool()
			if err != nil {
				return 0, err
			}
			flag = ok
		}
		n, err := st.Stack().PopSmallintRange(0xffff, 0)
		if err != nil {
			return 0, err
		}
		if flag != throwCond {
			if hasParam {
				return 0, st.Stack().PopDiscard()
			}
			return 0, nil
		}
		if hasParam {
			payload, err := st.Stack().Pop()
			if err != nil {
				return 0, err
			}
			return st.ThrowExnPayload(int(n), &payload)
		}
		return st.ThrowExn(int(n))
	}
}
