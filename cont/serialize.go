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
	"fmt"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/internal/dictmap"
	"github.com/tonvm/tvm/stack"
)

// Continuation tags, matching vmc_std$00 / vmc_envelope$01 / vmc_quit$1000
// / vmc_quit_exc$1001 / vmc_repeat$10100 / vmc_until$110000 /
// vmc_again$110001 / vmc_while_cond$110010 / vmc_while_body$110011 /
// vmc_pushint$1111 in crypto/vm/continuation.h.
const (
	tagStd       = 0x0 // 00, 2 bits
	tagEnvelope  = 0x1 // 01, 2 bits
	tagQuit      = 0x8 // 1000, 4 bits
	tagQuitExc   = 0x9 // 1001, 4 bits
	tagRepeat    = 0x14 // 10100, 5 bits
	tagUntil     = 0x30 // 110000, 6 bits
	tagAgain     = 0x31 // 110001, 6 bits
	tagWhileCond = 0x32 // 110010, 6 bits
	tagWhileBody = 0x33 // 110011, 6 bits
	tagPushInt   = 0xF  // 1111, 4 bits
)

// EncodeContinuation serializes c into b using the compact VmCont-style
// tag layout declared above.
func EncodeContinuation(b *cell.Builder, c Continuation) error {
	switch v := c.(type) {
	case *OrdCont:
		if err := b.StoreUint(tagStd, 2); err != nil {
			return err
		}
		if err := encodeControlData(b, &v.CD); err != nil {
			return err
		}
		return b.StoreSlice(v.Code.Clone())

	case *ArgContExt:
		if err := b.StoreUint(tagEnvelope, 2); err != nil {
			return err
		}
		if err := encodeControlData(b, &ControlData{Save: v.Save, Cp: v.Cp}); err != nil {
			return err
		}
		inner := cell.NewBuilder()
		if err := EncodeContinuation(inner, v.Inner); err != nil {
			return err
		}
		return b.StoreRef(inner.Finalize())

	case *QuitCont:
		if err := b.StoreUint(tagQuit, 4); err != nil {
			return err
		}
		return b.StoreInt(int64(v.ExitCode), 32)

	case *ExcQuitCont:
		return b.StoreUint(tagQuitExc, 4)

	case *RepeatCont:
		if err := b.StoreUint(tagRepeat, 5); err != nil {
			return err
		}
		if err := b.StoreInt(v.Count, 63); err != nil {
			return err
		}
		return storeTwoRefs(b, v.Body, v.After)

	case *UntilCont:
		if err := b.StoreUint(tagUntil, 6); err != nil {
			return err
		}
		return storeTwoRefs(b, v.Body, v.After)

	case *AgainCont:
		if err := b.StoreUint(tagAgain, 6); err != nil {
			return err
		}
		bodyCell, err := encodeRef(v.Body)
		if err != nil {
			return err
		}
		return b.StoreRef(bodyCell)

	case *WhileCont:
		tag := uint64(tagWhileCond)
		if v.Phase == WhilePhaseBody {
			tag = tagWhileBody
		}
		if err := b.StoreUint(tag, 6); err != nil {
			return err
		}
		if err := storeTwoRefs(b, v.Cond, v.Body); err != nil {
			return err
		}
		afterCell, err := encodeRef(v.After)
		if err != nil {
			return err
		}
		return b.StoreRef(afterCell)

	case *PushIntCont:
		if err := b.StoreUint(tagPushInt, 4); err != nil {
			return err
		}
		if err := b.StoreInt257(v.V, 32, true); err != nil {
			return err
		}
		nextCell, err := encodeRef(v.Next)
		if err != nil {
			return err
		}
		return b.StoreRef(nextCell)

	default:
		return fmt.Errorf("cont: EncodeContinuation: unknown continuation type %T", c)
	}
}

func encodeRef(c Continuation) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := EncodeContinuation(b, c); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func storeTwoRefs(b *cell.Builder, a, c Continuation) error {
	aCell, err := encodeRef(a)
	if err != nil {
		return err
	}
	cCell, err := encodeRef(c)
	if err != nil {
		return err
	}
	if err := b.StoreRef(aCell); err != nil {
		return err
	}
	return b.StoreRef(cCell)
}

// DecodeContinuation deserializes a Continuation from s, advancing it past
// the encoded value.
func DecodeContinuation(s *cell.Slice) (Continuation, error) {
	// Disambiguate by trying the longest tags first, since shorter tags
	// are prefixes of longer ones in this scheme's bit layout.
	if t, err := tryTag(s, 6, tagUntil); err == nil && t {
		return decodeUntil(s)
	}
	if t, _ := tryTag(s, 6, tagAgain); t {
		return decodeAgain(s)
	}
	if t, _ := tryTag(s, 6, tagWhileCond); t {
		return decodeWhile(s, WhilePhaseCond)
	}
	if t, _ := tryTag(s, 6, tagWhileBody); t {
		return decodeWhile(s, WhilePhaseBody)
	}
	if t, _ := tryTag(s, 5, tagRepeat); t {
		return decodeRepeat(s)
	}
	if t, _ := tryTag(s, 4, tagQuit); t {
		return decodeQuit(s)
	}
	if t, _ := tryTag(s, 4, tagQuitExc); t {
		return decodeQuitExc(s)
	}
	if t, _ := tryTag(s, 4, tagPushInt); t {
		return decodePushInt(s)
	}
	if t, _ := tryTag(s, 2, tagEnvelope); t {
		return decodeEnvelope(s)
	}
	if t, _ := tryTag(s, 2, tagStd); t {
		return decodeStd(s)
	}
	return nil, fmt.Errorf("cont: DecodeContinuation: no matching tag")
}

func tryTag(s *cell.Slice, n int, want uint64) (bool, error) {
	v, err := s.PrefetchBits(n)
	if err != nil {
		return false, err
	}
	got := v.Uint64()
	if got != want {
		return false, nil
	}
	_, err = s.FetchUint(n)
	return err == nil, err
}

func decodeStd(s *cell.Slice) (Continuation, error) {
	cd, err := decodeControlData(s)
	if err != nil {
		return nil, err
	}
	code := s.Clone()
	return &OrdCont{Code: code, CD: *cd}, nil
}

func decodeEnvelope(s *cell.Slice) (Continuation, error) {
	cd, err := decodeControlData(s)
	if err != nil {
		return nil, err
	}
	innerCell, err := s.FetchRef()
	if err != nil {
		return nil, err
	}
	innerSlice := cell.NewSlice(innerCell)
	inner, err := DecodeContinuation(innerSlice)
	if err != nil {
		return nil, err
	}
	return &ArgContExt{Inner: inner, Save: cd.Save, Cp: cd.Cp}, nil
}

func decodeQuit(s *cell.Slice) (Continuation, error) {
	exitCode, err := s.FetchInt(32)
	if err != nil {
		return nil, err
	}
	return NewQuitCont(int(exitCode)), nil
}

func decodeQuitExc(s *cell.Slice) (Continuation, error) {
	return NewExcQuitCont(), nil
}

func decodeRepeat(s *cell.Slice) (Continuation, error) {
	count, err := s.FetchInt(63)
	if err != nil {
		return nil, err
	}
	body, after, err := fetchTwoRefs(s)
	if err != nil {
		return nil, err
	}
	return NewRepeatCont(body, after, count), nil
}

func decodeUntil(s *cell.Slice) (Continuation, error) {
	body, after, err := fetchTwoRefs(s)
	if err != nil {
		return nil, err
	}
	return NewUntilCont(body, after), nil
}

func decodeAgain(s *cell.Slice) (Continuation, error) {
	bodyCell, err := s.FetchRef()
	if err != nil {
		return nil, err
	}
	body, err := DecodeContinuation(cell.NewSlice(bodyCell))
	if err != nil {
		return nil, err
	}
	return NewAgainCont(body), nil
}

func decodeWhile(s *cell.Slice, phase WhilePhase) (Continuation, error) {
	cond, body, err := fetchTwoRefs(s)
	if err != nil {
		return nil, err
	}
	afterCell, err := s.FetchRef()
	if err != nil {
		return nil, err
	}
	after, err := DecodeContinuation(cell.NewSlice(afterCell))
	if err != nil {
		return nil, err
	}
	w := NewWhileCont(cond, body, after)
	w.Phase = phase
	return w, nil
}

func decodePushInt(s *cell.Slice) (Continuation, error) {
	v, err := s.FetchInt256(32, true)
	if err != nil {
		return nil, err
	}
	nextCell, err := s.FetchRef()
	if err != nil {
		return nil, err
	}
	next, err := DecodeContinuation(cell.NewSlice(nextCell))
	if err != nil {
		return nil, err
	}
	return NewPushIntCont(v, next), nil
}

func fetchTwoRefs(s *cell.Slice) (a, c Continuation, err error) {
	aCell, err := s.FetchRef()
	if err != nil {
		return nil, nil, err
	}
	cCell, err := s.FetchRef()
	if err != nil {
		return nil, nil, err
	}
	a, err = DecodeContinuation(cell.NewSlice(aCell))
	if err != nil {
		return nil, nil, err
	}
	c, err = DecodeContinuation(cell.NewSlice(cCell))
	if err != nil {
		return nil, nil, err
	}
	return a, c, nil
}

// saveListKeyBits is the key width of VmSaveList = HashmapE 4 VmStackValue:
// one slot per control register 0-3 plus 7 (c7), addressed by its own
// index so Get/Set never need the whole ControlRegs in memory at once.
const saveListKeyBits = 4

func encodeControlData(b *cell.Builder, cd *ControlData) error {
	if err := b.StoreInt(int64(cd.Nargs), 22); err != nil {
		return err
	}
	hasStack := cd.Stack != nil
	if err := b.StoreUint(boolBit(hasStack), 1); err != nil {
		return err
	}
	if hasStack {
		entries := cd.Stack.Entries()
		if err := b.StoreUint(uint64(len(entries)), 24); err != nil {
			return err
		}
		for _, e := range entries {
			if err := EncodeStackEntry(b, e); err != nil {
				return err
			}
		}
	}
	saveList, err := buildSaveList(&cd.Save)
	if err != nil {
		return err
	}
	if err := b.StoreMaybeRef(saveList); err != nil {
		return err
	}
	return b.StoreInt(int64(cd.Cp), 16)
}

func decodeControlData(s *cell.Slice) (*ControlData, error) {
	nargs, err := s.FetchInt(22)
	if err != nil {
		return nil, err
	}
	hasStack, err := s.FetchUint(1)
	if err != nil {
		return nil, err
	}
	cd := &ControlData{Nargs: int(nargs)}
	if hasStack != 0 {
		n, err := s.FetchUint(24)
		if err != nil {
			return nil, err
		}
		st := stack.New()
		for i := uint64(0); i < n; i++ {
			e, err := DecodeStackEntry(s)
			if err != nil {
				return nil, err
			}
			if err := st.Push(e); err != nil {
				return nil, err
			}
		}
		cd.Stack = st
	}
	saveListCell, err := s.FetchMaybeRef()
	if err != nil {
		return nil, err
	}
	if saveListCell != nil {
		save, err := parseSaveList(saveListCell)
		if err != nil {
			return nil, err
		}
		cd.Save = *save
	}
	cp, err := s.FetchInt(16)
	if err != nil {
		return nil, err
	}
	cd.Cp = int(cp)
	return cd, nil
}

func buildSaveList(save *ControlRegs) (*cell.Cell, error) {
	if save.IsEmpty() {
		return nil, nil
	}
	m := dictmap.Empty(saveListKeyBits)
	var err error
	for i := 0; i < CRegNum; i++ {
		if save.C[i] == nil {
			continue
		}
		b := cell.NewBuilder()
		if err := EncodeStackEntry(b, stack.FromCont(save.C[i])); err != nil {
			return nil, err
		}
		m, err = m.Set(uint64(i), b)
		if err != nil {
			return nil, err
		}
	}
	if save.C7.Kind != stack.KindNull {
		b := cell.NewBuilder()
		if err := EncodeStackEntry(b, save.C7); err != nil {
			return nil, err
		}
		m, err = m.Set(7, b)
		if err != nil {
			return nil, err
		}
	}
	if m.IsEmpty() {
		return nil, nil
	}
	return m.Root(), nil
}

func parseSaveList(root *cell.Cell) (*ControlRegs, error) {
	m := dictmap.FromRoot(saveListKeyBits, root)
	save := &ControlRegs{}
	var decodeErr error
	m.Iterate(func(e dictmap.Entry) bool {
		entry, err := DecodeStackEntry(e.Value)
		if err != nil {
			decodeErr = err
			return false
		}
		switch {
		case e.Key < uint64(CRegNum):
			if entry.Kind == stack.KindCont {
				save.C[e.Key] = entry.Cont.(Continuation)
			}
		case e.Key == 7:
			save.C7 = entry
		}
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return save, nil
}

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// stack value tags for EncodeStackEntry/DecodeStackEntry, a simplified
// VmStackValue with one small tag per entry kind: null, int, cell, slice,
// cont, builder, tuple.
const (
	svTagNull    = 0x0
	svTagInt     = 0x1
	svTagCell    = 0x2
	svTagSlice   = 0x3
	svTagCont    = 0x4
	svTagBuilder = 0x5
	svTagTuple   = 0x6
)

// EncodeStackEntry serializes a stack.Entry the way a continuation's
// saved data stack or control registers capture arbitrary VM values.
func EncodeStackEntry(b *cell.Builder, e stack.Entry) error {
	switch e.Kind {
	case stack.KindNull:
		return b.StoreUint(svTagNull, 3)
	case stack.KindInt:
		if err := b.StoreUint(svTagInt, 3); err != nil {
			return err
		}
		if e.Int.IsNaN() {
			return b.StoreUint(1, 1)
		}
		if err := b.StoreUint(0, 1); err != nil {
			return err
		}
		return b.StoreInt257(e.Int, 257, true)
	case stack.KindCell:
		if err := b.StoreUint(svTagCell, 3); err != nil {
			return err
		}
		return b.StoreRef(e.Cell)
	case stack.KindSlice:
		if err := b.StoreUint(svTagSlice, 3); err != nil {
			return err
		}
		return b.StoreRef(e.Slice.Cell())
	case stack.KindBuilder:
		if err := b.StoreUint(svTagBuilder, 3); err != nil {
			return err
		}
		return b.StoreRef(e.Builder.Clone().Finalize())
	case stack.KindCont:
		if err := b.StoreUint(svTagCont, 3); err != nil {
			return err
		}
		c, ok := e.Cont.(Continuation)
		if !ok {
			return fmt.Errorf("cont: EncodeStackEntry: foreign continuation type %T", e.Cont)
		}
		contCell, err := encodeRef(c)
		if err != nil {
			return err
		}
		return b.StoreRef(contCell)
	case stack.KindTuple:
		if err := b.StoreUint(svTagTuple, 3); err != nil {
			return err
		}
		if err := b.StoreUint(uint64(len(e.Tuple)), 16); err != nil {
			return err
		}
		tb := cell.NewBuilder()
		for _, entry := range e.Tuple {
			if err := EncodeStackEntry(tb, entry); err != nil {
				return err
			}
		}
		return b.StoreRef(tb.Finalize())
	default:
		return fmt.Errorf("cont: EncodeStackEntry: unknown kind %v", e.Kind)
	}
}

// DecodeStackEntry deserializes one stack.Entry previously written by
// EncodeStackEntry.
func DecodeStackEntry(s *cell.Slice) (stack.Entry, error) {
	tag, err := s.FetchUint(3)
	if err != nil {
		return stack.Entry{}, err
	}
	switch tag {
	case svTagNull:
		return stack.Null(), nil
	case svTagInt:
		isNaN, err := s.FetchUint(1)
		if err != nil {
			return stack.Entry{}, err
		}
		if isNaN != 0 {
			return stack.FromInt(bigint.NaN()), nil
		}
		v, err := s.FetchInt256(257, true)
		if err != nil {
			return stack.Entry{}, err
		}
		return stack.FromInt(v), nil
	case svTagCell:
		c, err := s.FetchRef()
		if err != nil {
			return stack.Entry{}, err
		}
		return stack.FromCell(c), nil
	case svTagSlice:
		c, err := s.FetchRef()
		if err != nil {
			return stack.Entry{}, err
		}
		return stack.FromSlice(cell.NewSlice(c)), nil
	case svTagBuilder:
		c, err := s.FetchRef()
		if err != nil {
			return stack.Entry{}, err
		}
		b := cell.NewBuilder()
		if err := b.StoreSlice(cell.NewSlice(c)); err != nil {
			return stack.Entry{}, err
		}
		return stack.FromBuilder(b), nil
	case svTagCont:
		c, err := s.FetchRef()
		if err != nil {
			return stack.Entry{}, err
		}
		cont, err := DecodeContinuation(cell.NewSlice(c))
		if err != nil {
			return stack.Entry{}, err
		}
		return stack.FromCont(cont), nil
	case svTagTuple:
		n, err := s.FetchUint(16)
		if err != nil {
			return stack.Entry{}, err
		}
		tc, err := s.FetchRef()
		if err != nil {
			return stack.Entry{}, err
		}
		ts := cell.NewSlice(tc)
		entries := make([]stack.Entry, 0, n)
		for i := uint64(0); i < n; i++ {
			e, err := DecodeStackEntry(ts)
			if err != nil {
				return stack.Entry{}, err
			}
			entries = append(entries, e)
		}
		return stack.FromTuple(entries), nil
	default:
		return stack.Entry{}, fmt.Errorf("cont: DecodeStackEntry: unknown tag %d", tag)
	}
}
