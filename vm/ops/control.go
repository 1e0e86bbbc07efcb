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
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
)

// Execute implements EXECUTE (0xD8): pop a continuation, call it.
func Execute() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		return st.Call(asContinuation(c))
	}
}

// JmpX implements JMPX (0xD9): pop a continuation, jump to it (tail call).
func JmpX() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		return st.Jump(asContinuation(c))
	}
}

// CallRef implements CALLREF (part of the 0xD8..0xDB family): load the
// next ref as code, call it as an OrdCont.
func CallRef() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		ref, err := st.Code().FetchRef()
		if err != nil {
			return 0, err
		}
		sl, err := st.LoadCell(ref)
		if err != nil {
			return 0, err
		}
		return st.Call(cont.NewOrdCont(sl))
	}
}

// JmpRef implements JMPREF: load the next ref as code, jump to it.
func JmpRef() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		ref, err := st.Code().FetchRef()
		if err != nil {
			return 0, err
		}
		sl, err := st.LoadCell(ref)
		if err != nil {
			return 0, err
		}
		return st.Jump(cont.NewOrdCont(sl))
	}
}

// Ret implements RET (0xDC, just past the call/jump family): return to
// c0.
func Ret() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return st.Ret()
	}
}

// If implements IF (0xDE): pop a continuation then a boolean; if true,
// execute the continuation.
func If() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		return st.Call(asContinuation(c))
	}
}

// IfNot implements IFNOT: as If but executes when the popped boolean is
// false.
func IfNot() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if ok {
			return 0, nil
		}
		return st.Call(asContinuation(c))
	}
}

// IfElse implements IFELSE (0xE0): pop two continuations then a boolean;
// execute the first if true, else the second.
func IfElse() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		cElse, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		cThen, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if ok {
			return st.Call(asContinuation(cThen))
		}
		return st.Call(asContinuation(cElse))
	}
}

// IfRet implements IFRET: pop a boolean; if true, return to c0.
func IfRet() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		ok, err := st.Stack().PopBool()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		return st.Ret()
	}
}

// Repeat implements REPEAT (0xE4): pop (count, body); run body count
// times via a RepeatCont, then fall through.
func Repeat() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		n, err := st.Stack().PopIntFinite()
		if err != nil {
			return 0, err
		}
		count := n.Big().Int64()
		after := cont.NewOrdCont(st.Code())
		return st.Call(cont.NewRepeatCont(asContinuation(c), after, count))
	}
}

// Until implements UNTIL (0xE5): pop body; run it, repeating until it
// leaves a true boolean on the stack.
func Until() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		after := cont.NewOrdCont(st.Code())
		return st.Call(cont.NewUntilCont(asContinuation(c), after))
	}
}

// While implements WHILE (0xE6): pop (body, cond); evaluate cond, then
// body, looping while cond leaves true.
func While() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		body, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		condC, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		after := cont.NewOrdCont(st.Code())
		return st.Call(cont.NewWhileCont(asContinuation(condC), asContinuation(body), after))
	}
}

// Again implements AGAIN (0xE7): pop body; run it forever (exit only via
// RET or an exception).
func Again() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		return st.Call(cont.NewAgainCont(asContinuation(c)))
	}
}

// SetContArgs implements the SETCONTARGS family (0xEC): pop a continuation
// and attach extra saved control-registers to it, matching
// force_cdata/force_cregs.
func SetContArgs(idx int) opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		c, err := st.Stack().PopCont()
		if err != nil {
			return 0, err
		}
		wcd, save := cont.ForceCRegs(asContinuation(c))
		save.SetC(idx, st.Regs().GetC(idx))
		return 0, st.Stack().Push(stack.FromCont(wcd))
	}
}

// asContinuation narrows a stack.Continuation (the structural interface
// stack.Entry stores) back to cont.Continuation, which every concrete
// continuation type in this module satisfies.
func asContinuation(c stack.Continuation) cont.Continuation {
	return c.(cont.Continuation)
}
