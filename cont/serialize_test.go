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

package cont

import (
	"testing"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/stack"
)

func TestEncodeDecodeQuitCont(t *testing.T) {
	q := NewQuitCont(11)
	b := cell.NewBuilder()
	if err := EncodeContinuation(b, q); err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := cell.NewSlice(b.Finalize())
	got, err := DecodeContinuation(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	qc, ok := got.(*QuitCont)
	if !ok {
		t.Fatalf("decoded type = %T, want *QuitCont", got)
	}
	if qc.ExitCode != 11 {
		t.Fatalf("ExitCode = %d, want 11", qc.ExitCode)
	}
}

func TestEncodeDecodeOrdCont(t *testing.T) {
	code := cell.NewBuilder()
	if err := code.StoreUint(0xAB, 8); err != nil {
		t.Fatalf("store: %v", err)
	}
	oc := NewOrdCont(cell.NewSlice(code.Finalize()))
	oc.CD.Nargs = -1

	b := cell.NewBuilder()
	if err := EncodeContinuation(b, oc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := cell.NewSlice(b.Finalize())
	got, err := DecodeContinuation(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded, ok := got.(*OrdCont)
	if !ok {
		t.Fatalf("decoded type = %T, want *OrdCont", got)
	}
	v, err := decoded.Code.FetchUint(8)
	if err != nil {
		t.Fatalf("fetch code: %v", err)
	}
	if v != 0xAB {
		t.Fatalf("code = %#x, want 0xAB", v)
	}
}

func TestEncodeDecodeStackEntryInt(t *testing.T) {
	e := stack.FromInt(bigint.FromInt64(-42))
	b := cell.NewBuilder()
	if err := EncodeStackEntry(b, e); err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := cell.NewSlice(b.Finalize())
	got, err := DecodeStackEntry(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != stack.KindInt {
		t.Fatalf("kind = %v, want KindInt", got.Kind)
	}
	if got.Int.Big().Int64() != -42 {
		t.Fatalf("value = %v, want -42", got.Int.Big())
	}
}

func TestControlDataSaveListRoundTrip(t *testing.T) {
	save := ControlRegs{}
	save.SetC0(NewQuitCont(0))
	save.SetC7(stack.FromTuple(nil))

	cd := ControlData{Nargs: -1, Save: save, Cp: 0}
	b := cell.NewBuilder()
	if err := encodeControlData(b, &cd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := cell.NewSlice(b.Finalize())
	got, err := decodeControlData(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Save.GetC(0) == nil {
		t.Fatalf("expected c0 to round-trip")
	}
	if _, ok := got.Save.GetC(0).(*QuitCont); !ok {
		t.Fatalf("c0 type = %T, want *QuitCont", got.Save.GetC(0))
	}
}
