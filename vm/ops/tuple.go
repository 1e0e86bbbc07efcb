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
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
)

// chargeTupleEntries debits TupleEntry gas per element a tuple op
// constructs or decomposes, per tupleops.cpp's per-entry billing.
func chargeTupleEntries(st opcode.Machine, n int) error {
	return st.ChargeGas(gasprice.TupleEntry * int64(n))
}

// Tuple implements TUPLE n: pop the top n stack entries (n is the
// dispatcher-supplied immediate) and assemble them, bottom-to-top order
// preserved, into a single Tuple entry.
func Tuple() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n := int(args)
		if err := chargeTupleEntries(st, n); err != nil {
			return 0, err
		}
		moved, err := st.Stack().SplitTop(n)
		if err != nil {
			return 0, err
		}
		entries := append([]stack.Entry(nil), moved.Entries()...)
		return 0, st.Stack().Push(stack.FromTuple(entries))
	}
}

// Untuple implements UNTUPLE n: pop a Tuple entry of exactly length n (the
// dispatcher-supplied immediate) and push its elements back onto the
// stack in order.
func Untuple() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n := int(args)
		entries, err := st.Stack().PopTupleRange(n, n)
		if err != nil {
			return 0, err
		}
		if err := chargeTupleEntries(st, n); err != nil {
			return 0, err
		}
		for _, e := range entries {
			if err := st.Stack().Push(e); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
}

// Explode implements EXPLODE max: pop a Tuple entry of length at most max
// (the dispatcher-supplied immediate), push its elements in order, then
// push its length.
func Explode() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		max := int(args)
		entries, err := st.Stack().PopTupleRange(max, 0)
		if err != nil {
			return 0, err
		}
		if err := chargeTupleEntries(st, len(entries)+1); err != nil {
			return 0, err
		}
		for _, e := range entries {
			if err := st.Stack().Push(e); err != nil {
				return 0, err
			}
		}
		return 0, pushSmall(st, int64(len(entries)))
	}
}

// Index implements INDEX k: pop a Tuple entry, push its k-th element (k is
// the dispatcher-supplied immediate).
func Index() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		k := int(args)
		entries, err := st.Stack().PopTupleRange(1<<20, 0)
		if err != nil {
			return 0, err
		}
		if k < 0 || k >= len(entries) {
			return 0, errRangeChk("tuple index %d out of range [0,%d)", k, len(entries))
		}
		if err := chargeTupleEntries(st, 1); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(entries[k])
	}
}

// UntupleVar implements UNTUPLE_VAR: pop a count, then a Tuple entry of
// exactly that length, and push its elements back onto the stack in order.
func UntupleVar() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n, err := st.Stack().PopSmallintRange(255, 0)
		if err != nil {
			return 0, err
		}
		entries, err := st.Stack().PopTupleRange(int(n), int(n))
		if err != nil {
			return 0, err
		}
		if err := chargeTupleEntries(st, len(entries)); err != nil {
			return 0, err
		}
		for _, e := range entries {
			if err := st.Stack().Push(e); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
}

// TLen implements TLEN: pop a Tuple entry, push its length.
func TLen() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		entries, err := st.Stack().PopTupleRange(1<<20, 0)
		if err != nil {
			return 0, err
		}
		return 0, pushSmall(st, int64(len(entries)))
	}
}
