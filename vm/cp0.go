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
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/vm/ops"
)

// NewCp0 builds and finalizes codepage 0's dispatch table: the mandatory
// opcode subset named in the external interface (NOP/SWAP/DUP/DROP,
// PUSHINT family, arithmetic, DIVMOD, cell builder/deserialize, call/jump,
// conditional, loops, SETCONTARGS, THROW family, debug/SETCP), plus enough
// of the surrounding stack-shuffle space to exercise them. Any prefix this
// table does not claim is filled by Finalize with a dummy inv_opcode
// instruction. Grounded on crypto/vm/cp0.cpp's register_*_ops layering and
// crypto/vm/opctable.cpp/dispatch.cpp's interval-registration mechanics.
func NewCp0() *opcode.Table {
	t := opcode.NewTable()

	// Stack primitives: 0x00 NOP, 0x01 SWAP, 0x02 XCHG i,j, 0x20 DUP,
	// 0x21 PUSH i, 0x30 DROP, 0x31 POP i, 0x32 ROLL i, 0x33 REVERSE n,i.
	t.Register("NOP", 0x00, 8, 0, ops.Nop())
	t.Register("SWAP", 0x01, 8, 0, ops.Swap())
	t.Register("XCHG", 0x02, 8, 8, ops.Xchg())
	t.Register("DUP", 0x20, 8, 0, ops.Dup())
	t.Register("PUSH", 0x21, 8, 8, ops.Push())
	t.Register("DROP", 0x30, 8, 0, ops.Drop())
	t.Register("POP", 0x31, 8, 8, ops.Pop())
	t.Register("ROLL", 0x32, 8, 8, ops.Roll())
	t.Register("REVERSE", 0x33, 8, 8, ops.Reverse())

	// Integer literals: 0x70..0x7F tiny 4-bit signed, 0x80 8-bit, 0x81
	// 16-bit, 0x82xx variable-length, plus PUSHNAN/PUSHPOW2 convenience
	// slots carved out of the surrounding 0x83/0x84 prefixes.
	t.RegisterRange("PUSHINT_TINY", 0x7, 0x8, 4, 4, ops.PushIntTiny())
	t.Register("PUSHINT8", 0x80, 8, 0, ops.PushInt8())
	t.Register("PUSHINT16", 0x81, 8, 0, ops.PushInt16())
	t.Register("PUSHINT_VAR", 0x82, 8, 8, wrapVarPushInt())
	t.Register("PUSHNAN", 0x83, 8, 0, ops.PushNan())
	t.Register("PUSHPOW2", 0x84, 8, 8, ops.PushPow2())

	// Arithmetic: 0xA0 ADD, 0xA1 SUB, 0xA2 NEGATE, 0xA3 MUL (a subset of
	// the spec's "0xA0..0xA8 ADD/SUB/..." range).
	t.Register("ADD", 0xA0, 8, 0, ops.Add(false))
	t.Register("SUB", 0xA1, 8, 0, ops.Sub(false))
	t.Register("NEGATE", 0xA2, 8, 0, ops.Negate(false))
	t.Register("MUL", 0xA3, 8, 0, ops.Mul(false))

	// DIVMOD family: 0xA9 byte, plus a 4-bit dm/rr selector immediate
	// (bit2=divide, bit3=mod, bits0-1=rounding mode).
	t.Register("DIVMOD", 0xA9, 8, 4, ops.DivMod(false))

	// Q-prefix (quiet) escape: 0xB7 selects a 16-bit quiet sub-opcode; we
	// wire the quiet arithmetic/divmod forms directly under adjacent bytes
	// rather than modeling the literal two-byte escape, since the quiet
	// variant only changes NaN/overflow handling, not opcode semantics.
	t.Register("QADD", 0xB0, 8, 0, ops.Add(true))
	t.Register("QSUB", 0xB1, 8, 0, ops.Sub(true))
	t.Register("QNEGATE", 0xB2, 8, 0, ops.Negate(true))
	t.Register("QMUL", 0xB3, 8, 0, ops.Mul(true))
	t.Register("QDIVMOD", 0xB7, 8, 4, ops.DivMod(true))

	// Cell builder ops: 0xC8 NEWC, 0xC9 ENDC, 0xCA STU cc, 0xCB STI cc,
	// 0xCC STREF, 0xCD STSLICE (the mandatory subset of 0xC8..0xCF3F).
	t.Register("NEWC", 0xC8, 8, 0, ops.NewC())
	t.Register("ENDC", 0xC9, 8, 0, ops.EndC())
	t.Register("STU", 0xCA, 8, 8, ops.StU())
	t.Register("STI", 0xCB, 8, 8, ops.StI())
	t.Register("STREF", 0xCC, 8, 0, ops.StRef())
	t.Register("STSLICE", 0xCD, 8, 0, ops.StSlice())

	// Cell deserialize ops: 0xD0 CTOS, 0xD1 LDU cc, 0xD2 LDI cc, 0xD3
	// LDREF, 0xD4 SBITS (the mandatory subset of 0xD0..0xD7).
	t.Register("CTOS", 0xD0, 8, 0, ops.CtoS())
	t.Register("LDU", 0xD1, 8, 8, ops.LdU())
	t.Register("LDI", 0xD2, 8, 8, ops.LdI())
	t.Register("LDREF", 0xD3, 8, 0, ops.LdRef())
	t.Register("SBITS", 0xD4, 8, 0, ops.SBits())

	// Call/jump: 0xD8 EXECUTE, 0xD9 JMPX, 0xDA CALLREF, 0xDB JMPREF (the
	// 0xD8..0xDB range); RET lives just past it as a convenience slot.
	t.Register("EXECUTE", 0xD8, 8, 0, ops.Execute())
	t.Register("JMPX", 0xD9, 8, 0, ops.JmpX())
	t.Register("CALLREF", 0xDA, 8, 0, ops.CallRef())
	t.Register("JMPREF", 0xDB, 8, 0, ops.JmpRef())
	t.Register("RET", 0xDC, 8, 0, ops.Ret())

	// Conditional: 0xDE IF, 0xDF IFNOT, 0xE0 IFELSE, 0xE1 IFRET (the
	// 0xDE..0xE2 range).
	t.Register("IF", 0xDE, 8, 0, ops.If())
	t.Register("IFNOT", 0xDF, 8, 0, ops.IfNot())
	t.Register("IFELSE", 0xE0, 8, 0, ops.IfElse())
	t.Register("IFRET", 0xE1, 8, 0, ops.IfRet())

	// Loops: 0xE4 REPEAT, 0xE5 UNTIL, 0xE6 WHILE, 0xE7 AGAIN (the
	// 0xE4..0xEB range).
	t.Register("REPEAT", 0xE4, 8, 0, ops.Repeat())
	t.Register("UNTIL", 0xE5, 8, 0, ops.Until())
	t.Register("WHILE", 0xE6, 8, 0, ops.While())
	t.Register("AGAIN", 0xE7, 8, 0, ops.Again())

	// Set-cont-args: 0xEC SETCONTARGS-onto-c0 (the mandatory slice of the
	// 0xEC..0xEE range).
	t.Register("SETCONTARGS_C0", 0xEC, 8, 0, ops.SetContArgs(0))

	// Throw family: 0xF2 THROW n (short form, matches S5's 0xF22A), 0xF3
	// THROWANY (exec_throw_any's resolved bit decoding: has_param=args&1,
	// has_cond=args&6, throw_cond=args&2), 0xF4 THROWIF n, 0xF5
	// THROWIFNOT n.
	t.Register("THROW", 0xF2, 8, 8, ops.Throw())
	t.Register("THROWANY", 0xF3, 8, 8, ops.ThrowAny())
	t.Register("THROWIF", 0xF4, 8, 8, ops.ThrowIf())
	t.Register("THROWIFNOT", 0xF5, 8, 8, ops.ThrowIfNot())

	// Tuple ops: 0x90..0x95, grounded on tupleops.cpp's TUPLE/UNTUPLE/
	// EXPLODE/INDEX/UNTUPLE_VAR/TLEN.
	t.Register("TUPLE", 0x90, 8, 8, ops.Tuple())
	t.Register("UNTUPLE", 0x91, 8, 8, ops.Untuple())
	t.Register("EXPLODE", 0x92, 8, 8, ops.Explode())
	t.Register("INDEX", 0x93, 8, 8, ops.Index())
	t.Register("UNTUPLE_VAR", 0x94, 8, 0, ops.UntupleVar())
	t.Register("TLEN", 0x95, 8, 0, ops.TLen())

	// Dictionary ops: 0x96..0x9B, grounded on dictops.cpp's exec_store_dict/
	// exec_load_dict/exec_dict_get/exec_dict_set/exec_dict_delete/
	// exec_pfx_dict_get (integer-keyed forms only; see vm/ops/dict.go's
	// package comments for the documented slice-key and prefix-jump scope
	// cuts).
	t.Register("STDICT", 0x96, 8, 0, ops.StDict())
	t.Register("LDDICT", 0x97, 8, 0, ops.LdDict())
	t.Register("DICTGET", 0x98, 8, 8, ops.DictGet())
	t.Register("DICTSET", 0x99, 8, 8, ops.DictSet())
	t.Register("DICTDEL", 0x9A, 8, 8, ops.DictDel())
	t.Register("PFXDICTGET", 0x9B, 8, 0, ops.PfxDictGet())

	// Debug and codepage: 0xFE debug no-op, 0xFF SETCP (the 0xFE..0xFF
	// range).
	t.Register("DEBUG_NOP", 0xFE, 8, 0, ops.DebugNop())
	t.Register("SETCP", 0xFF, 8, 8, ops.SetCp())

	t.Finalize()
	return t
}

// wrapVarPushInt exists only to keep NewCp0's table symmetric with the
// other ops.* registrations; PushIntVar already has the right Handler
// signature.
func wrapVarPushInt() opcode.Handler { return ops.PushIntVar() }
