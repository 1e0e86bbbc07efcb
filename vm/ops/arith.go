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

// Package ops implements the opcode.Handler bodies registered into the
// codepage-0 dispatch table: arithmetic, stack shuffles, cell builder/
// deserialize primitives, and control flow. Grounded on
// probe-lang/lang/vm/vm.go's execute() switch, generalized from flat int64
// register operations to BigInt257 stack operations, and on
// crypto/vm/arithops.cpp / contops.cpp for the exact opcode-bit encodings.
package ops

import (
	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/exn"
	"github.com/tonvm/tvm/opcode"
)

// popBinary pops y then x (x was pushed first, y is TOS) for a binary
// arithmetic opcode, matching stack order "x y OP -> x OP y".
func popBinary(st opcode.Machine) (x, y bigint.Int257, err error) {
	y, err = st.Stack().PopInt()
	if err != nil {
		return
	}
	x, err = st.Stack().PopInt()
	return
}

func pushResult(st opcode.Machine, v bigint.Int257, ok bool, quiet bool) (int, error) {
	if !ok && !quiet {
		return 0, exn.New(exn.IntOv, "integer overflow")
	}
	if v.IsNaN() && !quiet {
		return 0, exn.New(exn.IntOv, "NaN in non-quiet context")
	}
	if err := st.Stack().PushIntQuiet(v, quiet); err != nil {
		return 0, err
	}
	return 0, nil
}

// Add implements ADD; quiet selects the "Q" variant at registration time
// (QADD passes quiet=true, ADD under 0xA0 passes quiet=false). args is
// not consulted.
func Add(quiet bool) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		x, y, err := popBinary(st)
		if err != nil {
			return 0, err
		}
		v, ok := bigint.Add(x, y, quiet)
		return pushResult(st, v, ok, quiet)
	}
}

// Sub implements SUB.
func Sub(quiet bool) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		x, y, err := popBinary(st)
		if err != nil {
			return 0, err
		}
		v, ok := bigint.Sub(x, y, quiet)
		return pushResult(st, v, ok, quiet)
	}
}

// Negate implements NEGATE (unary).
func Negate(quiet bool) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		x, err := st.Stack().PopInt()
		if err != nil {
			return 0, err
		}
		v, ok := bigint.Neg(x, quiet)
		return pushResult(st, v, ok, quiet)
	}
}

// Mul implements MUL.
func Mul(quiet bool) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		x, y, err := popBinary(st)
		if err != nil {
			return 0, err
		}
		v, ok := bigint.Mul(x, y, quiet)
		return pushResult(st, v, ok, quiet)
	}
}

// roundingFromBits decodes the DIVMOD family's 2-bit round-mode field
// (1=floor, 2=round-to-nearest, 3=ceil; 0 is reserved/unused).
func roundingFromBits(rr uint64) bigint.Rounding {
	switch rr & 3 {
	case 2:
		return bigint.Nearest
	case 3:
		return bigint.Ceiling
	default:
		return bigint.Floor
	}
}

// DivMod implements the 0xA90..0xA9F DIVMOD family: args bit 2 selects
// "divide" (push quotient), bit 3 selects "mod" (push remainder); both set
// pushes both (quotient under remainder); bits 0-1 select rounding.
func DivMod(quiet bool) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		x, y, err := popBinary(st)
		if err != nil {
			return 0, err
		}
		mode := roundingFromBits(args)
		wantDiv := args&4 != 0
		wantMod := args&8 != 0
		if !wantDiv && !wantMod {
			wantDiv = true
		}
		q, r, ok := bigint.DivMod(x, y, mode, quiet)
		if wantDiv {
			if res, err := pushResult(st, q, ok, quiet); err != nil {
				return res, err
			}
		}
		if wantMod {
			if res, err := pushResult(st, r, ok, quiet); err != nil {
				return res, err
			}
		}
		return 0, nil
	}
}

// PushIntTiny implements the 0x70..0x7F range: a 4-bit signed literal
// encoded as (args+5)&15-5, matching arithops.cpp's tinyint4 decoding.
func PushIntTiny() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		v := (int64((args+5)&15) - 5)
		return 0, st.Stack().PushInt(bigint.FromInt64(v))
	}
}

// PushInt8 implements 0x80: an 8-bit signed literal.
func PushInt8() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		v, err := st.Code().FetchInt(8)
		if err != nil {
			return 0, err
		}
		return 0, st.Stack().PushInt(bigint.FromInt64(v))
	}
}

// PushInt16 implements 0x81: a 16-bit signed literal.
func PushInt16() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		v, err := st.Code().FetchInt(16)
		if err != nil {
			return 0, err
		}
		return 0, st.Stack().PushInt(bigint.FromInt64(v))
	}
}

// PushIntVar implements 0x82xx: a variable-length literal whose byte count
// is (args&31)+2 bytes (arithops.cpp's variable-length PUSHINT).
func PushIntVar() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n := int((args&31)+2) * 8
		v, err := st.Code().FetchInt256(n, true)
		if err != nil {
			return 0, err
		}
		return 0, st.Stack().PushInt(v)
	}
}

// PushNan pushes the NaN sentinel (PUSHNAN).
func PushNan() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().PushIntQuiet(bigint.NaN(), true)
	}
}

// PushPow2 pushes 2^(args+1) (PUSHPOW2's args field is the exponent minus
// one, matching arithops.cpp).
func PushPow2() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return 0, st.Stack().PushInt(bigint.SetPow2(uint(args) + 1))
	}
}
