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
	"testing"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/cont"
	"github.com/tonvm/tvm/exn"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/internal/dictmap"
	"github.com/tonvm/tvm/stack"
)

// pushIntTiny appends cp0's 4-bit-opcode/4-bit-value PUSHINT encoding for
// v in [-5,10].
func pushIntTiny(b *cell.Builder, v int64) {
	nibble := uint64(v & 15)
	_ = b.StoreUint(0x7, 4)
	_ = b.StoreUint(nibble, 4)
}

func op(b *cell.Builder, byteVal uint64) { _ = b.StoreUint(byteVal, 8) }

func newRunner(t *testing.T, codeBuilder *cell.Builder) *VmState {
	t.Helper()
	table := NewCp0()
	gas := gasprice.NewLimits(1_000_000)
	st := New(cell.NewSlice(codeBuilder.Finalize()), stack.New(), table, gas)
	return st
}

// S1: PUSHINT 1, PUSHINT 2, ADD -> stack [3], exit 0.
func TestScenarioAddLiterals(t *testing.T) {
	b := cell.NewBuilder()
	pushIntTiny(b, 1)
	pushIntTiny(b, 2)
	op(b, 0xA0) // ADD
	st := newRunner(t, b)

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	if res.Stack.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", res.Stack.Depth())
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if top.Big().Int64() != 3 {
		t.Fatalf("top = %v, want 3", top.Big())
	}
}

// S2: PUSHINT 1, PUSHINT 0, DIVMOD(floor, divide) strict -> raises int_ov,
// final stack [errno].
func TestScenarioDivByZeroStrict(t *testing.T) {
	b := cell.NewBuilder()
	pushIntTiny(b, 1)
	pushIntTiny(b, 0)
	op(b, 0xA9) // DIVMOD
	_ = b.StoreUint(0, 4) // selector: floor, default divide
	st := newRunner(t, b)

	res := st.Run(st.table)
	if res.ExitCode != int(exn.IntOv) {
		t.Fatalf("exit = %d, want %d (int_ov)", res.ExitCode, exn.IntOv)
	}
	if res.Stack.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", res.Stack.Depth())
	}
	top, err := res.Stack.PopIntFinite()
	if err != nil {
		t.Fatalf("PopIntFinite: %v", err)
	}
	if top.Big().Int64() != int64(exn.IntOv) {
		t.Fatalf("errno = %v, want %d", top.Big(), exn.IntOv)
	}
}

// S3: same as S2 but through the quiet DIVMOD form -> [NaN], exit 0.
func TestScenarioDivByZeroQuiet(t *testing.T) {
	b := cell.NewBuilder()
	pushIntTiny(b, 1)
	pushIntTiny(b, 0)
	op(b, 0xB7) // QDIVMOD
	_ = b.StoreUint(0, 4)
	st := newRunner(t, b)

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if !top.IsNaN() {
		t.Fatalf("top = %v, want NaN", top)
	}
}

// S4: seed stack [3, count=3, cont] (cont on top) where cont does
// PUSHINT 1 ADD; code = REPEAT.
// Expected: top-of-stack becomes 3+3=6.
func TestScenarioRepeatLoop(t *testing.T) {
	body := cell.NewBuilder()
	pushIntTiny(body, 1)
	op(body, 0xA0) // ADD
	bodyCont := cont.NewOrdCont(cell.NewSlice(body.Finalize()))

	code := cell.NewBuilder()
	op(code, 0xE4) // REPEAT
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(3)); err != nil {
		t.Fatalf("seed value: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(3)); err != nil {
		t.Fatalf("push count: %v", err)
	}
	if err := st.Stack().Push(stack.FromCont(bodyCont)); err != nil {
		t.Fatalf("seed body: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if top.Big().Int64() != 6 {
		t.Fatalf("top = %v, want 6", top.Big())
	}
}

// S5: THROW 42, with c2 registered as a handler that drops the exception
// number and pushes 5. Expected final stack [5], exit 0.
func TestScenarioThrowCaughtByC2(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xF2) // THROW
	op(code, 42)
	st := newRunner(t, code)

	c2Code := cell.NewBuilder()
	op(c2Code, 0x30) // DROP excno
	pushIntTiny(c2Code, 5)
	st.Regs().SetC(2, cont.NewOrdCont(cell.NewSlice(c2Code.Finalize())))

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if top.Big().Int64() != 5 {
		t.Fatalf("top = %v, want 5", top.Big())
	}
}

// S6: NEWC, STU 8, ENDC, CTOS, LDU 8 with initial stack [0x5A]. Expected
// final stack [0x5A], exit 0.
func TestScenarioCellRoundTrip(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xC8) // NEWC
	op(code, 0xCA) // STU
	_ = code.StoreUint(7, 8) // cc = args+1 = 8
	op(code, 0xC9) // ENDC
	op(code, 0xD0) // CTOS
	op(code, 0xD1) // LDU
	_ = code.StoreUint(7, 8)
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(0x5A)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	// LDU leaves (value, remaining-slice); drop the exhausted slice before
	// reading the round-tripped value.
	if err := res.Stack.PopDiscard(); err != nil {
		t.Fatalf("PopDiscard: %v", err)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if top.Big().Int64() != 0x5A {
		t.Fatalf("top = %v, want 0x5A", top.Big())
	}
}

// S7: PUSHINT 1,2,3, TUPLE 3, UNTUPLE 3 -> stack restored to [1,2,3] with 3
// on top, exit 0.
func TestScenarioTupleRoundTrip(t *testing.T) {
	code := cell.NewBuilder()
	pushIntTiny(code, 1)
	pushIntTiny(code, 2)
	pushIntTiny(code, 3)
	op(code, 0x90) // TUPLE
	_ = code.StoreUint(3, 8)
	op(code, 0x91) // UNTUPLE
	_ = code.StoreUint(3, 8)
	st := newRunner(t, code)

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	if res.Stack.Depth() != 3 {
		t.Fatalf("depth = %d, want 3", res.Stack.Depth())
	}
	for _, want := range []int64{3, 2, 1} {
		top, err := res.Stack.PopInt()
		if err != nil {
			t.Fatalf("PopInt: %v", err)
		}
		if top.Big().Int64() != want {
			t.Fatalf("top = %v, want %d", top.Big(), want)
		}
	}
}

// S8: PUSHINT8 10,20,30, TUPLE 3, INDEX 1 -> the tuple's element at
// index 1 (20) ends up on top.
func TestScenarioTupleIndex(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0x80) // PUSHINT8
	_ = code.StoreUint(10, 8)
	op(code, 0x80) // PUSHINT8
	_ = code.StoreUint(20, 8)
	op(code, 0x80) // PUSHINT8
	_ = code.StoreUint(30, 8)
	op(code, 0x90) // TUPLE
	_ = code.StoreUint(3, 8)
	op(code, 0x93) // INDEX
	_ = code.StoreUint(1, 8)
	st := newRunner(t, code)

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt: %v", err)
	}
	if top.Big().Int64() != 20 {
		t.Fatalf("top = %v, want 20", top.Big())
	}
}

// S9: seed stack [value-slice holding 0x7A, key=5, dict(null), n=8] (the
// pop order DICTSET expects: n on top, then dict, then key, then value),
// DICTSET -> pushes back the updated dictionary; verify directly against
// internal/dictmap that key 5 now maps to 0x7A.
func TestScenarioDictSetStoresValue(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0x99) // DICTSET
	_ = code.StoreUint(0, 8) // args = 0: slice-valued, signed key interpretation
	st := newRunner(t, code)

	valueSlice := cell.NewSlice(func() *cell.Cell {
		b := cell.NewBuilder()
		_ = b.StoreUint(0x7A, 8)
		return b.Finalize()
	}())

	if err := st.Stack().Push(stack.FromSlice(valueSlice)); err != nil {
		t.Fatalf("seed value: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(5)); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if err := st.Stack().Push(stack.Null()); err != nil {
		t.Fatalf("seed dict: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(8)); err != nil {
		t.Fatalf("seed n: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	if res.Stack.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", res.Stack.Depth())
	}
	root, err := res.Stack.PopMaybeCell()
	if err != nil {
		t.Fatalf("PopMaybeCell: %v", err)
	}
	if root == nil {
		t.Fatalf("updated dictionary root is nil, want non-empty")
	}
	m := dictmap.FromRoot(8, root)
	value, ok := m.Get(5)
	if !ok {
		t.Fatalf("key 5 not found after DICTSET")
	}
	got, err := value.FetchUint(8)
	if err != nil {
		t.Fatalf("FetchUint: %v", err)
	}
	if got != 0x7A {
		t.Fatalf("value = %#x, want 0x7a", got)
	}
}

// S10: seed stack [key=5, dict, n=8] (n on top, then dict, then key, the
// order DICTGET pops them) where dict was built directly via
// internal/dictmap to hold key 5 -> 0x7A; DICTGET -> found flag -1 and the
// value slice decodes back to 0x7A.
func TestScenarioDictGetFindsValue(t *testing.T) {
	valueBuilder := cell.NewBuilder()
	_ = valueBuilder.StoreUint(0x7A, 8)
	m, err := dictmap.Empty(8).Set(5, valueBuilder)
	if err != nil {
		t.Fatalf("dictmap.Set: %v", err)
	}

	code := cell.NewBuilder()
	op(code, 0x98) // DICTGET
	_ = code.StoreUint(0, 8)
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(5)); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if err := st.Stack().Push(stackFromMaybeCellForTest(m.Root())); err != nil {
		t.Fatalf("seed dict: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(8)); err != nil {
		t.Fatalf("seed n: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	found, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt found flag: %v", err)
	}
	if found.Big().Int64() != -1 {
		t.Fatalf("found flag = %v, want -1", found.Big())
	}
	valueSlice, err := res.Stack.PopCellSlice()
	if err != nil {
		t.Fatalf("PopCellSlice value: %v", err)
	}
	got, err := valueSlice.FetchUint(8)
	if err != nil {
		t.Fatalf("FetchUint: %v", err)
	}
	if got != 0x7A {
		t.Fatalf("value = %#x, want 0x7a", got)
	}
}

func stackFromMaybeCellForTest(c *cell.Cell) stack.Entry {
	if c == nil {
		return stack.Null()
	}
	return stack.FromCell(c)
}

// S10: THROWANY with has_cond unset, has_param unset (args=0): pops the
// boolean condition (none, since has_cond=0) then always pops excno from
// the stack and throws it, ignoring args entirely.
func TestScenarioThrowAnyPopsExcnoFromStack(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xF3) // THROWANY
	_ = code.StoreUint(0, 8)
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(37)); err != nil {
		t.Fatalf("seed excno: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 37 {
		t.Fatalf("exit = %d, want 37", res.ExitCode)
	}
}

// S11: THROWANY with has_param set (args bit0=1): after popping excno,
// a further payload value is popped and forwarded as the exception's
// stack contents rather than discarded.
func TestScenarioThrowAnyForwardsPayload(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xF3) // THROWANY
	_ = code.StoreUint(1, 8) // has_param=1, has_cond=0
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(7)); err != nil {
		t.Fatalf("seed payload: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(99)); err != nil {
		t.Fatalf("seed excno: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 99 {
		t.Fatalf("exit = %d, want 99", res.ExitCode)
	}
	top, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt payload: %v", err)
	}
	if top.Big().Int64() != 7 {
		t.Fatalf("forwarded payload = %v, want 7", top.Big())
	}
}

// S12: seed a builder and a populated dictionary root, STDICT to fold the
// root into the builder as a Maybe-ref, ENDC/CTOS/LDDICT to read it back
// out -> the reconstructed root's hash matches the original.
func TestScenarioStDictLdDictRoundTrip(t *testing.T) {
	valueBuilder := cell.NewBuilder()
	_ = valueBuilder.StoreUint(0x11, 8)
	m, err := dictmap.Empty(8).Set(5, valueBuilder)
	if err != nil {
		t.Fatalf("dictmap.Set: %v", err)
	}

	code := cell.NewBuilder()
	op(code, 0xC8) // NEWC
	op(code, 0x96) // STDICT
	op(code, 0xC9) // ENDC
	op(code, 0xD0) // CTOS
	op(code, 0x97) // LDDICT
	st := newRunner(t, code)

	if err := st.Stack().Push(stackFromMaybeCellForTest(m.Root())); err != nil {
		t.Fatalf("seed dict: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	if err := res.Stack.PopDiscard(); err != nil { // leftover empty slice
		t.Fatalf("PopDiscard: %v", err)
	}
	root, err := res.Stack.PopMaybeCell()
	if err != nil {
		t.Fatalf("PopMaybeCell: %v", err)
	}
	if root == nil {
		t.Fatalf("round-tripped root is nil")
	}
	if root.Hash() != m.Root().Hash() {
		t.Fatalf("round-tripped root hash mismatch")
	}
}

// S13: seed a dictionary holding key 5, DICTDEL 8 5 -> found flag -1 and
// the key is gone from the resulting dictionary.
func TestScenarioDictDelRemovesKey(t *testing.T) {
	valueBuilder := cell.NewBuilder()
	_ = valueBuilder.StoreUint(0x11, 8)
	m, err := dictmap.Empty(8).Set(5, valueBuilder)
	if err != nil {
		t.Fatalf("dictmap.Set: %v", err)
	}

	code := cell.NewBuilder()
	op(code, 0x9A) // DICTDEL
	_ = code.StoreUint(0, 8) // signed key interpretation
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(5)); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if err := st.Stack().Push(stackFromMaybeCellForTest(m.Root())); err != nil {
		t.Fatalf("seed dict: %v", err)
	}
	if err := st.Stack().PushInt(bigint.FromInt64(8)); err != nil {
		t.Fatalf("seed n: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 0 {
		t.Fatalf("exit = %d, want 0", res.ExitCode)
	}
	found, err := res.Stack.PopInt()
	if err != nil {
		t.Fatalf("PopInt found flag: %v", err)
	}
	if found.Big().Int64() != -1 {
		t.Fatalf("found flag = %v, want -1", found.Big())
	}
	root, err := res.Stack.PopMaybeCell()
	if err != nil {
		t.Fatalf("PopMaybeCell: %v", err)
	}
	if root != nil {
		t.Fatalf("dictionary root = %v, want nil (last key removed)", root)
	}
}

// S14: THROWIF 9 with a true condition on the stack -> throws 9. THROWIF
// and THROWIFNOT are otherwise dead code paths with no direct test
// coverage before this, since cp0 never registered them until now.
func TestScenarioThrowIfRaises(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xF4) // THROWIF
	_ = code.StoreUint(9, 8)
	st := newRunner(t, code)

	if err := st.Stack().PushInt(bigint.FromInt64(-1)); err != nil {
		t.Fatalf("seed condition: %v", err)
	}

	res := st.Run(st.table)
	if res.ExitCode != 9 {
		t.Fatalf("exit = %d, want 9", res.ExitCode)
	}
}

// S15: a run that commits c4/c5 with an archive installed persists both
// roots; CommittedState and the archive agree on the result.
func TestScenarioCommitPersistsToArchive(t *testing.T) {
	code := cell.NewBuilder()
	op(code, 0xDC) // RET (only instruction actually executed; commit runs on exit)
	st := newRunner(t, code)

	c4 := cell.NewBuilder()
	_ = c4.StoreUint(0xAA, 8)
	c4Cell := c4.Finalize()

	c5 := cell.NewBuilder()
	_ = c5.StoreUint(0xBB, 8)
	c5Cell := c5.Finalize()

	st.Regs().SetD(4, c4Cell)
	st.Regs().SetD(5, c5Cell)

	arc, err := cell.OpenMemArchive()
	if err != nil {
		t.Fatalf("OpenMemArchive: %v", err)
	}
	defer arc.Close()
	st.SetArchive(arc)

	res := st.Run(st.table)
	if !res.Committed {
		t.Fatalf("expected commit, exit=%d", res.ExitCode)
	}
	gotC4, err := arc.Get(c4Cell.Hash())
	if err != nil {
		t.Fatalf("archive missing committed c4: %v", err)
	}
	if gotC4.Hash() != c4Cell.Hash() {
		t.Fatalf("archived c4 hash mismatch")
	}
	gotC5, err := arc.Get(c5Cell.Hash())
	if err != nil {
		t.Fatalf("archive missing committed c5: %v", err)
	}
	if gotC5.Hash() != c5Cell.Hash() {
		t.Fatalf("archived c5 hash mismatch")
	}
}
